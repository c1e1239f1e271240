package routeline

import (
	"errors"
	"strconv"

	"github.com/dpup/routeline/internal/cache"
	"github.com/dpup/routeline/internal/lib/geo"
)

// SegmentCache memoizes ComputeSegments per (route, isPrimary, palette).
// Owners call Invalidate when the displayed routes change.
type SegmentCache struct {
	memo *cache.Memo[Stops]
}

// NewSegmentCache creates an empty segment cache
func NewSegmentCache() *SegmentCache {
	return &SegmentCache{memo: cache.NewMemo[Stops]("route_line_segments")}
}

// Segments returns cached stops for the route, computing them on first use.
// fingerprint identifies the route content, usually Route.Fingerprint().
func (c *SegmentCache) Segments(fingerprint string, route Route, points []geo.Point, isPrimary bool, colors ColorProvider) Stops {
	key := fingerprint + "|" + strconv.FormatBool(isPrimary) + "|" + colors.ID()
	return c.memo.Get(key, func() Stops {
		return ComputeRouteSegments(route, points, isPrimary, colors)
	})
}

// Invalidate drops every memoized result
func (c *SegmentCache) Invalidate() {
	c.memo.Clear()
}

// Stats reports cache usage
func (c *SegmentCache) Stats() cache.Stats {
	return c.memo.Stats()
}

// ErrEmptyGeometry is returned for a route without encoded or decoded points
var ErrEmptyGeometry = errors.New("route geometry is empty")

type decodedGeometry struct {
	points []geo.Point
	err    error
}

// GeometryCache memoizes polyline decoding keyed by precision and encoded string
type GeometryCache struct {
	geoUtils geo.GeoUtils
	memo     *cache.Memo[decodedGeometry]
}

// NewGeometryCache creates an empty geometry cache
func NewGeometryCache(geoUtils geo.GeoUtils) *GeometryCache {
	return &GeometryCache{
		geoUtils: geoUtils,
		memo:     cache.NewMemo[decodedGeometry]("route_geometry"),
	}
}

// Points returns the decoded points of a polyline. Pre-decoded points are
// returned as-is; an unset precision defaults to 6.
func (c *GeometryCache) Points(polyline geo.Polyline) ([]geo.Point, error) {
	if polyline.EncodedPolyline == "" {
		if len(polyline.Points) == 0 {
			return nil, ErrEmptyGeometry
		}
		return polyline.Points, nil
	}

	precision := polyline.Precision
	if precision == 0 {
		precision = geo.Precision6
	}

	key := strconv.Itoa(precision) + "|" + polyline.EncodedPolyline
	decoded := c.memo.Get(key, func() decodedGeometry {
		points, err := c.geoUtils.DecodePolyline(polyline.EncodedPolyline, precision)
		return decodedGeometry{points: points, err: err}
	})
	return decoded.points, decoded.err
}

// Invalidate drops every decoded geometry
func (c *GeometryCache) Invalidate() {
	c.memo.Clear()
}
