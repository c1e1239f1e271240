package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"
)

// Earth's radius in meters
const earthRadius = 6371000

var (
	ErrInvalidCoordinate    = errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	ErrUnsupportedPrecision = errors.New("unsupported polyline precision: must be 5 or 6")
)

// geoUtils implements the GeoUtils interface
type geoUtils struct{}

// NewGeoUtils creates a new GeoUtils implementation
func NewGeoUtils() GeoUtils {
	return &geoUtils{}
}

// PointToPoint calculates great-circle distance between two points using Haversine formula
func (g *geoUtils) PointToPoint(p1, p2 Point) (float64, error) {
	if !isValidCoordinate(p1) || !isValidCoordinate(p2) {
		return 0, ErrInvalidCoordinate
	}
	return Haversine(p1, p2), nil
}

// Haversine returns the great-circle distance in meters without validating input.
// Used on hot paths where the geometry was validated on decode.
func Haversine(p1, p2 Point) float64 {
	if p1.Latitude == p2.Latitude && p1.Longitude == p2.Longitude {
		return 0
	}

	lat1 := p1.Latitude * math.Pi / 180
	lon1 := p1.Longitude * math.Pi / 180
	lat2 := p2.Latitude * math.Pi / 180
	lon2 := p2.Longitude * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// codecFor returns the go-polyline codec for a precision level
func codecFor(precision int) (polyline.Codec, error) {
	switch precision {
	case Precision5, Precision6:
		return polyline.Codec{Dim: 2, Scale: math.Pow10(precision)}, nil
	default:
		return polyline.Codec{}, ErrUnsupportedPrecision
	}
}

// DecodePolyline decodes an encoded polyline string to a point sequence
func (g *geoUtils) DecodePolyline(encoded string, precision int) ([]Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	codec, err := codecFor(precision)
	if err != nil {
		return nil, err
	}

	coords, _, err := codec.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{
			Latitude:  coord[0],
			Longitude: coord[1],
		}

		if !isValidCoordinate(points[i]) {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}

	return points, nil
}

// EncodePolyline encodes a point sequence at the given precision
func (g *geoUtils) EncodePolyline(points []Point, precision int) (string, error) {
	codec, err := codecFor(precision)
	if err != nil {
		return "", err
	}

	coords := make([][]float64, len(points))
	for i, p := range points {
		if !isValidCoordinate(p) {
			return "", ErrInvalidCoordinate
		}
		coords[i] = []float64{p.Latitude, p.Longitude}
	}

	return string(codec.EncodeCoords(nil, coords)), nil
}

// LineLength sums the haversine distance of every edge
func (g *geoUtils) LineLength(points []Point) float64 {
	var total float64
	for i := 0; i < len(points)-1; i++ {
		total += Haversine(points[i], points[i+1])
	}
	return total
}

// SliceAlong returns the portion of the line between startMeters and endMeters.
// Both ends are interpolated on the edge that contains them; distances past the
// end of the line clamp to the last point.
func (g *geoUtils) SliceAlong(points []Point, startMeters, endMeters float64) ([]Point, error) {
	if len(points) < 2 {
		return nil, errors.New("line must have at least 2 points")
	}
	if startMeters < 0 || endMeters < startMeters {
		return nil, fmt.Errorf("invalid slice range [%f, %f]", startMeters, endMeters)
	}

	var sliced []Point
	var travelled float64

	for i := 0; i < len(points)-1; i++ {
		edgeStart := points[i]
		edgeEnd := points[i+1]
		edgeLength := Haversine(edgeStart, edgeEnd)
		edgeFinish := travelled + edgeLength

		if sliced == nil && startMeters <= edgeFinish {
			sliced = append(sliced, interpolateAlong(edgeStart, edgeEnd, startMeters-travelled, edgeLength))
		}

		if sliced != nil {
			if endMeters <= edgeFinish {
				return append(sliced, interpolateAlong(edgeStart, edgeEnd, endMeters-travelled, edgeLength)), nil
			}
			sliced = append(sliced, edgeEnd)
		}

		travelled = edgeFinish
	}

	if sliced == nil {
		last := points[len(points)-1]
		return []Point{last, last}, nil
	}
	return sliced, nil
}

// interpolateAlong returns the point at offset meters from start towards end.
// Road edges are short enough for linear interpolation of lat/lng.
func interpolateAlong(start, end Point, offset, edgeLength float64) Point {
	if edgeLength == 0 {
		return start
	}
	t := offset / edgeLength
	return Point{
		Latitude:  start.Latitude + t*(end.Latitude-start.Latitude),
		Longitude: start.Longitude + t*(end.Longitude-start.Longitude),
	}
}

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if !isValidCoordinate(point) {
		return Point{}, ErrInvalidCoordinate
	}
	return point, nil
}

// isValidCoordinate validates latitude and longitude values
func isValidCoordinate(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}
