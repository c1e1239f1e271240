package routeline

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dpup/routeline/internal/lib/geo"
)

// RouteLine holds the routes on display and the vanishing point of the primary
// route. It derives the expressions a renderer applies to the route layers.
// Safe for concurrent use.
type RouteLine struct {
	mutex sync.RWMutex

	palette    Palette
	segments   *SegmentCache
	geometries *GeometryCache
	logger     *zap.Logger

	primary      *drawnRoute
	alternatives []drawnRoute
	offset       float64
}

type drawnRoute struct {
	route       Route
	points      []geo.Point
	fingerprint string
}

// Option configures a RouteLine
type Option func(*RouteLine)

// WithLogger sets the logger used for draw and progress events
func WithLogger(logger *zap.Logger) Option {
	return func(l *RouteLine) {
		l.logger = logger
	}
}

// WithSegmentCache shares a segment cache between route lines
func WithSegmentCache(segments *SegmentCache) Option {
	return func(l *RouteLine) {
		l.segments = segments
	}
}

// WithGeometryCache shares a geometry cache between route lines
func WithGeometryCache(geometries *GeometryCache) Option {
	return func(l *RouteLine) {
		l.geometries = geometries
	}
}

// NewRouteLine creates a route line with nothing drawn
func NewRouteLine(palette Palette, opts ...Option) *RouteLine {
	l := &RouteLine{
		palette: palette,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.segments == nil {
		l.segments = NewSegmentCache()
	}
	if l.geometries == nil {
		l.geometries = NewGeometryCache(geo.NewGeoUtils())
	}
	return l
}

// Draw replaces the displayed routes and resets the vanishing point. Cached
// segments are invalidated when the primary route changes.
func (l *RouteLine) Draw(primary Route, alternatives ...Route) error {
	drawnPrimary, err := l.prepare(primary)
	if err != nil {
		return fmt.Errorf("failed to draw primary route %s: %w", primary.ID, err)
	}

	drawnAlternatives := make([]drawnRoute, 0, len(alternatives))
	for _, alt := range alternatives {
		drawn, err := l.prepare(alt)
		if err != nil {
			return fmt.Errorf("failed to draw alternative route %s: %w", alt.ID, err)
		}
		drawnAlternatives = append(drawnAlternatives, drawn)
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.primary != nil && l.primary.fingerprint != drawnPrimary.fingerprint {
		l.segments.Invalidate()
		l.geometries.Invalidate()
	}

	l.primary = &drawnPrimary
	l.alternatives = drawnAlternatives
	l.offset = 0

	l.logger.Debug("Route line drawn",
		zap.String("route_id", primary.ID),
		zap.Int("points", len(drawnPrimary.points)),
		zap.Int("alternatives", len(drawnAlternatives)))

	return nil
}

func (l *RouteLine) prepare(route Route) (drawnRoute, error) {
	points, err := l.geometries.Points(route.Geometry)
	if err != nil {
		return drawnRoute{}, err
	}
	return drawnRoute{route: route, points: points, fingerprint: route.Fingerprint()}, nil
}

// Clear removes every route and drops cached results
func (l *RouteLine) Clear() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.primary = nil
	l.alternatives = nil
	l.offset = 0
	l.segments.Invalidate()
	l.geometries.Invalidate()
}

// UpdateProgress moves the vanishing point from the distance left on the
// primary route. The point only moves forward; the resulting offset is returned.
func (l *RouteLine) UpdateProgress(distanceRemaining float64) float64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.primary == nil {
		return 0
	}

	offset := VanishingOffset(distanceRemaining, l.primary.route.Distance)
	if offset > l.offset {
		l.offset = offset
	}
	return l.offset
}

// VanishingOffset returns the current traveled fraction of the primary route
func (l *RouteLine) VanishingOffset() float64 {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.offset
}

// PrimarySegments returns a copy of the congestion stops of the primary route
func (l *RouteLine) PrimarySegments() Stops {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return append(Stops(nil), l.segmentsFor(l.primary, true)...)
}

// AlternativeSegments returns copies of the congestion stops for each
// alternative route
func (l *RouteLine) AlternativeSegments() []Stops {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	segments := make([]Stops, 0, len(l.alternatives))
	for i := range l.alternatives {
		segments = append(segments, append(Stops(nil), l.segmentsFor(&l.alternatives[i], false)...))
	}
	return segments
}

func (l *RouteLine) segmentsFor(drawn *drawnRoute, isPrimary bool) Stops {
	if drawn == nil {
		return Stops{{Offset: 0, Color: l.palette.UnknownColor(isPrimary)}}
	}
	return l.segments.Segments(drawn.fingerprint, drawn.route, drawn.points, isPrimary, l.palette)
}

// PrimaryTraffic returns the congestion expression ahead of the vanishing point
func (l *RouteLine) PrimaryTraffic() Expression {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return TrafficExpression(l.offset, l.segmentsFor(l.primary, true), l.palette.UnknownColor(true))
}

// PrimaryVanish returns the base route layer expression
func (l *RouteLine) PrimaryVanish() Expression {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return VanishExpression(l.offset, l.palette.Traveled, l.palette.Primary.Default)
}

// ShieldVanish returns the route shield (casing) layer expression
func (l *RouteLine) ShieldVanish() Expression {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return VanishExpression(l.offset, l.palette.ShieldTraveled, l.palette.Shield)
}

// Primary returns the primary route and its decoded points
func (l *RouteLine) Primary() (Route, []geo.Point, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if l.primary == nil {
		return Route{}, nil, false
	}
	return l.primary.route, l.primary.points, true
}
