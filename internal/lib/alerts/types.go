package alerts

import (
	"github.com/paulmach/orb/geojson"

	"github.com/dpup/routeline/internal/lib/geo"
)

// Kind identifies the category of a route alert
type Kind string

const (
	KindTollCollection        Kind = "toll_collection"
	KindTunnelEntrance        Kind = "tunnel_entrance"
	KindRestrictedArea        Kind = "restricted_area"
	KindRestStop              Kind = "rest_stop"
	KindCountryBorderCrossing Kind = "country_border_crossing"
)

// Alert is a point of interest along the route. The set of implementations is
// closed; Displayer.Render switches over all of them.
type Alert interface {
	Kind() Kind
	Position() Common

	isAlert()
}

// Common holds the fields every alert carries
type Common struct {
	Coordinate      geo.Point `json:"coordinate" yaml:"coordinate"`
	DistanceToStart float64   `json:"distance_to_start" yaml:"distance_to_start"` // Meters from route start
}

// Position returns the shared alert fields
func (c Common) Position() Common { return c }

// Geometry is the stretch of route an alert covers
type Geometry struct {
	StartCoordinate geo.Point `json:"start_coordinate" yaml:"start_coordinate"`
	EndCoordinate   geo.Point `json:"end_coordinate" yaml:"end_coordinate"`
	StartDistance   float64   `json:"start_distance" yaml:"start_distance"` // Meters from route start
	EndDistance     float64   `json:"end_distance" yaml:"end_distance"`
}

// Length returns the covered distance in meters
func (g Geometry) Length() float64 {
	return g.EndDistance - g.StartDistance
}

// TollType distinguishes toll collection points
type TollType string

const (
	TollGantry  TollType = "toll_gantry"
	TollBooth   TollType = "toll_booth"
	TollUnknown TollType = "unknown"
)

// RestStopType distinguishes rest stops
type RestStopType string

const (
	RestArea        RestStopType = "rest_area"
	ServiceArea     RestStopType = "service_area"
	RestStopUnknown RestStopType = "unknown"
)

// Country identifies one side of a border crossing
type Country struct {
	Alpha2 string `json:"alpha2" yaml:"alpha2"`
	Alpha3 string `json:"alpha3" yaml:"alpha3"`
}

// TollCollection marks a toll gantry or booth
type TollCollection struct {
	Common
	Type TollType `json:"type" yaml:"type"`
}

// TunnelEntrance marks the start of a tunnel
type TunnelEntrance struct {
	Common
	Name     string    `json:"name" yaml:"name"`
	Geometry *Geometry `json:"geometry,omitempty" yaml:"geometry,omitempty"`
}

// RestrictedArea marks a stretch with access restrictions
type RestrictedArea struct {
	Common
	Geometry *Geometry `json:"geometry,omitempty" yaml:"geometry,omitempty"`
}

// RestStop marks a rest or service area
type RestStop struct {
	Common
	Type RestStopType `json:"type" yaml:"type"`
}

// CountryBorderCrossing marks a border crossing point
type CountryBorderCrossing struct {
	Common
	From *Country `json:"from,omitempty" yaml:"from,omitempty"`
	To   *Country `json:"to,omitempty" yaml:"to,omitempty"`
}

func (TollCollection) Kind() Kind        { return KindTollCollection }
func (TunnelEntrance) Kind() Kind        { return KindTunnelEntrance }
func (RestrictedArea) Kind() Kind        { return KindRestrictedArea }
func (RestStop) Kind() Kind              { return KindRestStop }
func (CountryBorderCrossing) Kind() Kind { return KindCountryBorderCrossing }

func (TollCollection) isAlert()        {}
func (TunnelEntrance) isAlert()        {}
func (RestrictedArea) isAlert()        {}
func (RestStop) isAlert()              {}
func (CountryBorderCrossing) isAlert() {}

// Layers holds one feature collection per alert kind. Kinds disabled in the
// display options have a nil collection.
type Layers struct {
	Tolls           *geojson.FeatureCollection
	TunnelLines     *geojson.FeatureCollection
	TunnelNames     *geojson.FeatureCollection
	RestrictedAreas *geojson.FeatureCollection
	RestStops       *geojson.FeatureCollection
	BorderCrossings *geojson.FeatureCollection
}

// Named returns the non-nil layers keyed by layer name
func (l Layers) Named() map[string]*geojson.FeatureCollection {
	named := make(map[string]*geojson.FeatureCollection)
	add := func(name string, fc *geojson.FeatureCollection) {
		if fc != nil {
			named[name] = fc
		}
	}
	add("tolls", l.Tolls)
	add("tunnel_lines", l.TunnelLines)
	add("tunnel_names", l.TunnelNames)
	add("restricted_areas", l.RestrictedAreas)
	add("rest_stops", l.RestStops)
	add("border_crossings", l.BorderCrossings)
	return named
}

// Displayer turns route alerts into map layers
type Displayer interface {
	// SetRouteGeometry sets the route that line alerts are sliced from
	SetRouteGeometry(points []geo.Point)

	// Render builds the layers for the alerts enabled in the display options
	Render(alerts []Alert) Layers
}

// NewDisplayer is implemented in displayer.go
