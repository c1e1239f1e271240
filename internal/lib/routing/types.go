package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dpup/routeline/internal/lib/geo"
	"github.com/dpup/routeline/internal/lib/routeline"
)

// DefaultRerouteBearingTolerance is the origin bearing tolerance in degrees used
// when the original request did not constrain its first bearing.
const DefaultRerouteBearingTolerance = 90.0

// ErrInvalidInput is wrapped by every InvalidInputError
var ErrInvalidInput = errors.New("invalid reroute input")

// Bearing constrains the heading at a coordinate
type Bearing struct {
	Angle     float64 `json:"angle" yaml:"angle"`         // Degrees clockwise from north
	Tolerance float64 `json:"tolerance" yaml:"tolerance"` // Allowed deviation in degrees
}

// RouteOptions describes a route request. Per-coordinate lists are parallel to
// Coordinates; a nil list means no constraint. Waypoint lists describe the
// via-points, a sparse subset of the coordinates selected by WaypointIndices.
type RouteOptions struct {
	Coordinates     []geo.Point `json:"coordinates" yaml:"coordinates"`
	Bearings        []*Bearing  `json:"bearings,omitempty" yaml:"bearings,omitempty"`
	Radiuses        []float64   `json:"radiuses,omitempty" yaml:"radiuses,omitempty"`
	Approaches      []string    `json:"approaches,omitempty" yaml:"approaches,omitempty"`
	WaypointNames   []string    `json:"waypoint_names,omitempty" yaml:"waypoint_names,omitempty"`
	WaypointTargets []geo.Point `json:"waypoint_targets,omitempty" yaml:"waypoint_targets,omitempty"`
	WaypointIndices []int       `json:"waypoint_indices,omitempty" yaml:"waypoint_indices,omitempty"`

	// Passed through unchanged on reroute
	Profile      string `json:"profile,omitempty" yaml:"profile,omitempty"`
	Alternatives bool   `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	Language     string `json:"language,omitempty" yaml:"language,omitempty"`
}

// NewRouteOptions validates options and returns them. Every present
// per-coordinate list must match the coordinate count; waypoint names and
// targets must match the waypoint indices, which must be ascending and in range.
func NewRouteOptions(options RouteOptions) (*RouteOptions, error) {
	n := len(options.Coordinates)
	if n < 2 {
		return nil, fmt.Errorf("route options need at least 2 coordinates, got %d", n)
	}

	lists := []struct {
		name   string
		length int
		isSet  bool
	}{
		{"bearings", len(options.Bearings), options.Bearings != nil},
		{"radiuses", len(options.Radiuses), options.Radiuses != nil},
		{"approaches", len(options.Approaches), options.Approaches != nil},
	}
	for _, list := range lists {
		if list.isSet && list.length != n {
			return nil, fmt.Errorf("%s has %d entries for %d coordinates", list.name, list.length, n)
		}
	}

	for i, idx := range options.WaypointIndices {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("waypoint index %d out of range [0, %d)", idx, n)
		}
		if i > 0 && idx <= options.WaypointIndices[i-1] {
			return nil, fmt.Errorf("waypoint indices must be ascending, got %d after %d", idx, options.WaypointIndices[i-1])
		}
	}

	if options.WaypointIndices != nil {
		if options.WaypointNames != nil && len(options.WaypointNames) != len(options.WaypointIndices) {
			return nil, fmt.Errorf("waypoint names has %d entries for %d waypoints", len(options.WaypointNames), len(options.WaypointIndices))
		}
		if options.WaypointTargets != nil && len(options.WaypointTargets) != len(options.WaypointIndices) {
			return nil, fmt.Errorf("waypoint targets has %d entries for %d waypoints", len(options.WaypointTargets), len(options.WaypointIndices))
		}
	}

	for i, p := range options.Coordinates {
		if _, err := geo.NewPoint(p.Latitude, p.Longitude); err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}
	}

	return &options, nil
}

// Progress is the trip checkpoint a reroute starts from
type Progress struct {
	// LegIndex is the leg being traveled; nil when no leg progress is known
	LegIndex *int `json:"leg_index,omitempty" yaml:"leg_index,omitempty"`

	DistanceRemaining float64 `json:"distance_remaining" yaml:"distance_remaining"`
}

// Location is the current position of the traveler
type Location struct {
	Point geo.Point `json:"point" yaml:"point"`

	// Bearing is the heading in degrees; nil when unknown
	Bearing *float64 `json:"bearing,omitempty" yaml:"bearing,omitempty"`
}

// InvalidInputError reports the inputs missing from an update request
type InvalidInputError struct {
	Missing []string
	Reason  string
}

func (e *InvalidInputError) Error() string {
	var b strings.Builder
	b.WriteString("cannot combine route options")
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ", missing %s", strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// Result is either updated options or the reason they could not be built
type Result struct {
	Options *RouteOptions
	Err     error
}

// OK reports whether Options can be used
func (r Result) OK() bool {
	return r.Err == nil && r.Options != nil
}

// OptionsUpdater rebuilds a route request from the current trip position
type OptionsUpdater interface {
	// Update returns options for a route starting at location that keeps the
	// constraints of the legs not yet traveled.
	Update(original *RouteOptions, progress *Progress, location *Location) Result
}

// NewOptionsUpdater is implemented in updater.go

// Router fetches routes for a request
type Router interface {
	GetRoute(ctx context.Context, options *RouteOptions) ([]routeline.Route, error)

	// Cancel aborts in-flight requests
	Cancel()
}

// NewRerouteController is implemented in controller.go
