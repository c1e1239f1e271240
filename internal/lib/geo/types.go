package geo

// Point represents a geographic coordinate
type Point struct {
	Latitude  float64 `json:"lat" yaml:"lat"`
	Longitude float64 `json:"lng" yaml:"lng"`
}

// Precision levels supported by the polyline codec
const (
	Precision5 = 5
	Precision6 = 6
)

// Polyline represents an encoded polyline with optional decoded points
type Polyline struct {
	EncodedPolyline string  `json:"encoded_polyline" yaml:"encoded_polyline"`
	Precision       int     `json:"precision" yaml:"precision"`
	Points          []Point `json:"points" yaml:"points"`
}

// GeoUtils interface defines geographic calculation utilities
type GeoUtils interface {
	// Calculate great-circle distance between two points in meters
	PointToPoint(p1, p2 Point) (float64, error)

	// Decode polyline string to point sequence at the given precision (5 or 6)
	DecodePolyline(encoded string, precision int) ([]Point, error)

	// Encode point sequence to polyline string at the given precision
	EncodePolyline(points []Point, precision int) (string, error)

	// Sum of great-circle distances between consecutive points in meters
	LineLength(points []Point) float64

	// Sub-line between two distances (meters) measured from the first point
	SliceAlong(points []Point, startMeters, endMeters float64) ([]Point, error)
}

// NewGeoUtils is implemented in geo.go
