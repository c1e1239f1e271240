// Package routeline partitions route geometry into congestion-colored stops and
// re-slices them as the vehicle progresses, producing line-gradient expressions
// for a map renderer.
package routeline

import (
	"crypto/sha256"
	"fmt"
	"image/color"
	"strings"

	"github.com/dpup/routeline/internal/lib/geo"
)

// Congestion is a per-edge traffic label from the directions annotation
type Congestion string

const (
	CongestionLow      Congestion = "low"
	CongestionModerate Congestion = "moderate"
	CongestionHeavy    Congestion = "heavy"
	CongestionSevere   Congestion = "severe"
	CongestionUnknown  Congestion = "unknown"

	// CongestionNone is used when a route carries no traffic data
	CongestionNone Congestion = ""
)

// ColorStop marks the fractional distance from which Color is rendered
type ColorStop struct {
	Offset float64    `json:"offset"`
	Color  color.RGBA `json:"color"`
}

// Stops is an ordered, offset non-decreasing color stop table.
// Values returned by this package may be shared through caches and must not be mutated.
type Stops []ColorStop

// ColorProvider resolves congestion labels to colors
type ColorProvider interface {
	ColorFor(congestion Congestion, isPrimary bool) color.RGBA

	// ID identifies the color mapping for memoization; equal IDs must map equally
	ID() string
}

// Route is the subset of a directions route needed to draw its line
type Route struct {
	ID         string       `json:"id" yaml:"id"`
	Geometry   geo.Polyline `json:"geometry" yaml:"geometry"`
	Congestion []Congestion `json:"congestion" yaml:"congestion"`
	Distance   float64      `json:"distance" yaml:"distance"`
}

// FlattenLegCongestion joins per-leg annotations into one route-wide sequence
func FlattenLegCongestion(legs [][]Congestion) []Congestion {
	var flattened []Congestion
	for _, leg := range legs {
		flattened = append(flattened, leg...)
	}
	return flattened
}

// Fingerprint returns a content hash identifying the route for caching
func (r Route) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|", r.Geometry.EncodedPolyline, r.Geometry.Precision)
	if r.Geometry.EncodedPolyline == "" {
		for _, p := range r.Geometry.Points {
			fmt.Fprintf(&b, "%.7f,%.7f;", p.Latitude, p.Longitude)
		}
	}
	fmt.Fprintf(&b, "|%f|", r.Distance)
	for _, c := range r.Congestion {
		b.WriteString(string(c))
		b.WriteByte(',')
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash)
}
