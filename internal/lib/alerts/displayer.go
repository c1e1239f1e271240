package alerts

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/dpup/routeline/internal/lib/geo"
)

const (
	// KindProperty holds the alert kind on every feature
	KindProperty = "kind"

	// DistanceProperty holds the distance from route start in meters
	DistanceProperty = "distance_to_start"

	// DefaultTextProperty holds the label drawn next to point alerts
	DefaultTextProperty = "text"
)

// DisplayOptions selects which alert kinds are rendered
type DisplayOptions struct {
	ShowToll           bool   `yaml:"show_toll"`
	ShowTunnel         bool   `yaml:"show_tunnel"`
	ShowRestrictedArea bool   `yaml:"show_restricted_area"`
	ShowRestStop       bool   `yaml:"show_rest_stop"`
	ShowBorderCrossing bool   `yaml:"show_border_crossing"`
	TextProperty       string `yaml:"text_property"`
}

// DefaultDisplayOptions renders every kind
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		ShowToll:           true,
		ShowTunnel:         true,
		ShowRestrictedArea: true,
		ShowRestStop:       true,
		ShowBorderCrossing: true,
		TextProperty:       DefaultTextProperty,
	}
}

// NewDisplayOptions validates options. An empty TextProperty uses the default.
func NewDisplayOptions(options DisplayOptions) (DisplayOptions, error) {
	if options.TextProperty == "" {
		options.TextProperty = DefaultTextProperty
	}
	switch options.TextProperty {
	case KindProperty, DistanceProperty:
		return DisplayOptions{}, fmt.Errorf("text property %q is reserved", options.TextProperty)
	}
	return options, nil
}

var (
	errMissingGeometry      = errors.New("alert has no geometry")
	errMissingRouteGeometry = errors.New("route geometry is not set")
	errMissingCountry       = errors.New("border crossing is missing a country")
	errUnsupportedType      = errors.New("unsupported alert type")
)

// displayer implements the Displayer interface
type displayer struct {
	options  DisplayOptions
	geoUtils geo.GeoUtils
	logger   *zap.Logger

	mutex sync.RWMutex
	route []geo.Point
}

// NewDisplayer creates a new Displayer implementation. A nil logger disables
// logging of skipped alerts.
func NewDisplayer(options DisplayOptions, logger *zap.Logger) (Displayer, error) {
	validated, err := NewDisplayOptions(options)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &displayer{
		options:  validated,
		geoUtils: geo.NewGeoUtils(),
		logger:   logger,
	}, nil
}

// SetRouteGeometry replaces the route used for line alerts
func (d *displayer) SetRouteGeometry(points []geo.Point) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.route = append([]geo.Point(nil), points...)
}

// Render builds a feature collection per enabled kind
func (d *displayer) Render(alerts []Alert) Layers {
	d.mutex.RLock()
	route := d.route
	d.mutex.RUnlock()

	var layers Layers
	if d.options.ShowToll {
		layers.Tolls = geojson.NewFeatureCollection()
	}
	if d.options.ShowTunnel {
		layers.TunnelLines = geojson.NewFeatureCollection()
		layers.TunnelNames = geojson.NewFeatureCollection()
	}
	if d.options.ShowRestrictedArea {
		layers.RestrictedAreas = geojson.NewFeatureCollection()
	}
	if d.options.ShowRestStop {
		layers.RestStops = geojson.NewFeatureCollection()
	}
	if d.options.ShowBorderCrossing {
		layers.BorderCrossings = geojson.NewFeatureCollection()
	}

	for _, alert := range alerts {
		alert = normalize(alert)

		var err error
		switch a := alert.(type) {
		case TollCollection:
			if layers.Tolls != nil {
				err = d.renderToll(layers.Tolls, a)
			}
		case TunnelEntrance:
			if layers.TunnelLines != nil {
				err = d.renderTunnel(layers.TunnelLines, layers.TunnelNames, a, route)
			}
		case RestrictedArea:
			if layers.RestrictedAreas != nil {
				err = d.renderRestrictedArea(layers.RestrictedAreas, a, route)
			}
		case RestStop:
			if layers.RestStops != nil {
				err = d.renderRestStop(layers.RestStops, a)
			}
		case CountryBorderCrossing:
			if layers.BorderCrossings != nil {
				err = d.renderBorderCrossing(layers.BorderCrossings, a)
			}
		default:
			err = errUnsupportedType
		}

		if err != nil {
			d.logger.Debug("Skipping route alert",
				zap.String("kind", kindOf(alert)),
				zap.Float64("distance_to_start", distanceOf(alert)),
				zap.Error(err))
		}
	}

	return layers
}

func (d *displayer) renderToll(fc *geojson.FeatureCollection, toll TollCollection) error {
	var text string
	switch toll.Type {
	case TollGantry:
		text = "toll gantry"
	case TollBooth:
		text = "toll booth"
	case TollUnknown:
		text = "unknown"
	default:
		return fmt.Errorf("%w: toll type %q", errUnsupportedType, toll.Type)
	}
	fc.Append(d.pointFeature(toll, text))
	return nil
}

func (d *displayer) renderRestStop(fc *geojson.FeatureCollection, stop RestStop) error {
	var text string
	switch stop.Type {
	case RestArea:
		text = "rest area"
	case ServiceArea:
		text = "service area"
	case RestStopUnknown:
		text = "unknown"
	default:
		return fmt.Errorf("%w: rest stop type %q", errUnsupportedType, stop.Type)
	}
	fc.Append(d.pointFeature(stop, text))
	return nil
}

func (d *displayer) renderBorderCrossing(fc *geojson.FeatureCollection, crossing CountryBorderCrossing) error {
	if crossing.From == nil || crossing.To == nil {
		return errMissingCountry
	}
	text := fmt.Sprintf("%s -> %s", crossing.From.Alpha3, crossing.To.Alpha3)
	fc.Append(d.pointFeature(crossing, text))
	return nil
}

func (d *displayer) renderTunnel(lines, names *geojson.FeatureCollection, tunnel TunnelEntrance, route []geo.Point) error {
	line, err := d.lineAlong(tunnel.Geometry, route)
	if err != nil {
		return err
	}
	lines.Append(d.lineFeature(tunnel, line))
	names.Append(d.pointFeature(tunnel, tunnel.Name))
	return nil
}

func (d *displayer) renderRestrictedArea(fc *geojson.FeatureCollection, area RestrictedArea, route []geo.Point) error {
	line, err := d.lineAlong(area.Geometry, route)
	if err != nil {
		return err
	}
	fc.Append(d.lineFeature(area, line))
	return nil
}

// lineAlong cuts the covered stretch out of the route geometry
func (d *displayer) lineAlong(geometry *Geometry, route []geo.Point) (orb.LineString, error) {
	if geometry == nil {
		return nil, errMissingGeometry
	}
	if len(route) < 2 {
		return nil, errMissingRouteGeometry
	}

	points, err := d.geoUtils.SliceAlong(route, geometry.StartDistance, geometry.EndDistance)
	if err != nil {
		return nil, fmt.Errorf("failed to slice route: %w", err)
	}

	line := make(orb.LineString, len(points))
	for i, p := range points {
		line[i] = toOrb(p)
	}
	return line, nil
}

func (d *displayer) pointFeature(alert Alert, text string) *geojson.Feature {
	position := alert.Position()
	f := geojson.NewFeature(toOrb(position.Coordinate))
	f.Properties[KindProperty] = string(alert.Kind())
	f.Properties[DistanceProperty] = position.DistanceToStart
	f.Properties[d.options.TextProperty] = text
	return f
}

func (d *displayer) lineFeature(alert Alert, line orb.LineString) *geojson.Feature {
	f := geojson.NewFeature(line)
	f.Properties[KindProperty] = string(alert.Kind())
	f.Properties[DistanceProperty] = alert.Position().DistanceToStart
	return f
}

func toOrb(p geo.Point) orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// normalize dereferences pointer alerts so Render matches on values. Nil
// pointers become a nil Alert.
func normalize(alert Alert) Alert {
	switch a := alert.(type) {
	case *TollCollection:
		if a != nil {
			return *a
		}
	case *TunnelEntrance:
		if a != nil {
			return *a
		}
	case *RestrictedArea:
		if a != nil {
			return *a
		}
	case *RestStop:
		if a != nil {
			return *a
		}
	case *CountryBorderCrossing:
		if a != nil {
			return *a
		}
	default:
		return alert
	}
	return nil
}

func kindOf(alert Alert) string {
	if alert == nil {
		return ""
	}
	return string(alert.Kind())
}

func distanceOf(alert Alert) float64 {
	if alert == nil {
		return 0
	}
	return alert.Position().DistanceToStart
}

// SortByDistance orders alerts by distance from the route start. The input is
// not modified.
func SortByDistance(alerts []Alert) []Alert {
	sorted := make([]Alert, 0, len(alerts))
	for _, alert := range alerts {
		sorted = append(sorted, normalize(alert))
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return distanceOf(sorted[i]) < distanceOf(sorted[j])
	})
	return sorted
}
