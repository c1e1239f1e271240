package routing

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dpup/routeline/internal/lib/geo"
)

// optionsUpdater implements the OptionsUpdater interface
type optionsUpdater struct {
	logger           *zap.Logger
	bearingTolerance float64
}

// UpdaterOption configures the options updater
type UpdaterOption func(*optionsUpdater)

// WithUpdaterLogger sets the logger used for rejected updates
func WithUpdaterLogger(logger *zap.Logger) UpdaterOption {
	return func(u *optionsUpdater) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithDefaultBearingTolerance overrides DefaultRerouteBearingTolerance
func WithDefaultBearingTolerance(tolerance float64) UpdaterOption {
	return func(u *optionsUpdater) {
		u.bearingTolerance = tolerance
	}
}

// NewOptionsUpdater creates a new OptionsUpdater implementation
func NewOptionsUpdater(opts ...UpdaterOption) OptionsUpdater {
	u := &optionsUpdater{
		logger:           zap.NewNop(),
		bearingTolerance: DefaultRerouteBearingTolerance,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update rebuilds the request from the current position
func (u *optionsUpdater) Update(original *RouteOptions, progress *Progress, location *Location) Result {
	var missing []string
	if original == nil {
		missing = append(missing, "route options")
	}
	if progress == nil {
		missing = append(missing, "progress")
	}
	if location == nil {
		missing = append(missing, "location")
	}
	if len(missing) > 0 {
		return u.reject(&InvalidInputError{Missing: missing})
	}

	updated := cloneOptions(original)
	if progress.LegIndex == nil {
		// Nothing known about leg progress; the request is reused as is
		return Result{Options: updated}
	}

	index := *progress.LegIndex
	coordinates := original.Coordinates
	if index < 0 || index+1 >= len(coordinates) {
		return u.reject(&InvalidInputError{
			Reason: fmt.Sprintf("leg index %d out of range for %d coordinates", index, len(coordinates)),
		})
	}

	updated.Coordinates = append([]geo.Point{location.Point}, coordinates[index+1:]...)
	updated.Bearings = u.updatedBearings(original, index, location, len(updated.Coordinates))
	updated.Radiuses = tailFrom(original.Radiuses, index)
	updated.Approaches = tailFrom(original.Approaches, index)

	anchor := waypointAnchor(original.WaypointIndices, index)
	updated.WaypointNames = reanchor(original.WaypointNames, anchor)
	updated.WaypointTargets = reanchor(original.WaypointTargets, anchor)
	updated.WaypointIndices = shiftedIndices(original.WaypointIndices, anchor, index)

	u.logger.Debug("Route options updated for reroute",
		zap.Int("leg_index", index),
		zap.Int("original_coordinates", len(coordinates)),
		zap.Int("coordinates", len(updated.Coordinates)))

	return Result{Options: updated}
}

func (u *optionsUpdater) reject(err *InvalidInputError) Result {
	u.logger.Warn("Cannot combine route options", zap.Error(err))
	return Result{Err: err}
}

// updatedBearings constrains the new origin to the current heading, then keeps
// the bearings of the coordinates still ahead.
func (u *optionsUpdater) updatedBearings(original *RouteOptions, index int, location *Location, count int) []*Bearing {
	tolerance := u.bearingTolerance
	if len(original.Bearings) > 0 && original.Bearings[0] != nil {
		tolerance = original.Bearings[0].Tolerance
	}

	bearings := make([]*Bearing, 0, count)
	if location.Bearing != nil {
		bearings = append(bearings, &Bearing{Angle: *location.Bearing, Tolerance: tolerance})
	} else {
		bearings = append(bearings, nil)
	}

	if len(original.Bearings) > 0 {
		for _, b := range tailFrom(original.Bearings, index+1) {
			bearings = append(bearings, cloneBearing(b))
		}
		return bearings
	}

	for len(bearings) < count {
		bearings = append(bearings, nil)
	}
	return bearings
}

// waypointAnchor returns the position of the last waypoint at or behind the
// current leg. Without one the first waypoint anchors the new origin.
func waypointAnchor(indices []int, legIndex int) int {
	anchor := 0
	for i, idx := range indices {
		if idx <= legIndex {
			anchor = i
		}
	}
	return anchor
}

func reanchor[T any](list []T, anchor int) []T {
	if len(list) == 0 {
		return []T{}
	}
	if anchor >= len(list) {
		anchor = len(list) - 1
	}
	out := make([]T, 0, len(list)-anchor)
	out = append(out, list[anchor])
	return append(out, list[anchor+1:]...)
}

func shiftedIndices(indices []int, anchor, legIndex int) []int {
	if len(indices) == 0 {
		return []int{}
	}
	out := make([]int, 0, len(indices)-anchor)
	out = append(out, 0)
	for _, idx := range indices[anchor+1:] {
		out = append(out, idx-legIndex)
	}
	return out
}

// tailFrom returns a copy of list[from:], or an empty list when list is empty
func tailFrom[T any](list []T, from int) []T {
	if len(list) == 0 {
		return []T{}
	}
	if from > len(list) {
		from = len(list)
	}
	return append([]T{}, list[from:]...)
}

func cloneBearing(b *Bearing) *Bearing {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

func cloneOptions(o *RouteOptions) *RouteOptions {
	c := *o
	c.Coordinates = append([]geo.Point(nil), o.Coordinates...)
	if o.Bearings != nil {
		c.Bearings = make([]*Bearing, len(o.Bearings))
		for i, b := range o.Bearings {
			c.Bearings[i] = cloneBearing(b)
		}
	}
	if o.Radiuses != nil {
		c.Radiuses = append([]float64{}, o.Radiuses...)
	}
	if o.Approaches != nil {
		c.Approaches = append([]string{}, o.Approaches...)
	}
	if o.WaypointNames != nil {
		c.WaypointNames = append([]string{}, o.WaypointNames...)
	}
	if o.WaypointTargets != nil {
		c.WaypointTargets = append([]geo.Point{}, o.WaypointTargets...)
	}
	if o.WaypointIndices != nil {
		c.WaypointIndices = append([]int{}, o.WaypointIndices...)
	}
	return &c
}
