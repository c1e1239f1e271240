package routing

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/dpup/routeline/internal/lib/geo"
)

var (
	pointA = geo.Point{Latitude: 38.0675, Longitude: -120.5436}
	pointB = geo.Point{Latitude: 38.1038, Longitude: -120.4980}
	pointC = geo.Point{Latitude: 38.1391, Longitude: -120.4561}
	pointD = geo.Point{Latitude: 38.1932, Longitude: -120.3800}

	// Off route between Vallecito and Murphys
	current = geo.Point{Latitude: 38.1200, Longitude: -120.4700}
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func loadOptions(t *testing.T, name string) *RouteOptions {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)

	var options RouteOptions
	require.NoError(t, yaml.Unmarshal(data, &options))

	validated, err := NewRouteOptions(options)
	require.NoError(t, err)
	return validated
}

func TestOptionsUpdater_DropsTraveledCoordinates(t *testing.T) {
	updater := NewOptionsUpdater()
	original := &RouteOptions{Coordinates: []geo.Point{pointA, pointB, pointC, pointD}}

	result := updater.Update(original, &Progress{LegIndex: intPtr(1)}, &Location{Point: current, Bearing: floatPtr(45)})
	require.True(t, result.OK())

	updated := result.Options
	assert.Equal(t, []geo.Point{current, pointC, pointD}, updated.Coordinates)
	assert.Equal(t, []*Bearing{{Angle: 45, Tolerance: DefaultRerouteBearingTolerance}, nil, nil}, updated.Bearings)
	assert.Empty(t, updated.Radiuses)
	assert.Empty(t, updated.Approaches)
	assert.Empty(t, updated.WaypointNames)
	assert.Empty(t, updated.WaypointTargets)
	assert.Empty(t, updated.WaypointIndices)
}

func TestOptionsUpdater_InvalidInput(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	updater := NewOptionsUpdater(WithUpdaterLogger(zap.New(core)))
	original := &RouteOptions{Coordinates: []geo.Point{pointA, pointB}}
	progress := &Progress{LegIndex: intPtr(0)}
	location := &Location{Point: current}

	tests := []struct {
		name     string
		original *RouteOptions
		progress *Progress
		location *Location
		missing  []string
	}{
		{"no options", nil, progress, location, []string{"route options"}},
		{"no progress", original, nil, location, []string{"progress"}},
		{"no location", original, progress, nil, []string{"location"}},
		{"nothing", nil, nil, nil, []string{"route options", "progress", "location"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := updater.Update(tt.original, tt.progress, tt.location)
			assert.False(t, result.OK())
			assert.Nil(t, result.Options)
			require.Error(t, result.Err)
			assert.True(t, errors.Is(result.Err, ErrInvalidInput))

			var invalid *InvalidInputError
			require.True(t, errors.As(result.Err, &invalid))
			assert.Equal(t, tt.missing, invalid.Missing)
		})
	}

	assert.Equal(t, len(tests), logs.FilterMessage("Cannot combine route options").Len())
}

func TestOptionsUpdater_LegIndexOutOfRange(t *testing.T) {
	updater := NewOptionsUpdater()
	original := &RouteOptions{Coordinates: []geo.Point{pointA, pointB, pointC}}

	for _, index := range []int{-1, 2, 5} {
		result := updater.Update(original, &Progress{LegIndex: intPtr(index)}, &Location{Point: current})
		assert.False(t, result.OK(), "leg index %d", index)
		assert.ErrorIs(t, result.Err, ErrInvalidInput)
	}
}

func TestOptionsUpdater_NoLegProgressKeepsOptions(t *testing.T) {
	updater := NewOptionsUpdater()
	original := loadOptions(t, "multi_leg.yaml")

	result := updater.Update(original, &Progress{}, &Location{Point: current, Bearing: floatPtr(90)})
	require.True(t, result.OK())
	assert.Equal(t, original, result.Options)

	// The copy is independent of the original request
	result.Options.Coordinates[0] = current
	result.Options.Bearings[0].Angle = 180
	assert.Equal(t, pointA, original.Coordinates[0])
	assert.Equal(t, 10.0, original.Bearings[0].Angle)
}

func TestOptionsUpdater_MultiLeg(t *testing.T) {
	updater := NewOptionsUpdater()
	original := loadOptions(t, "multi_leg.yaml")
	location := &Location{Point: current, Bearing: floatPtr(75)}

	t.Run("first leg", func(t *testing.T) {
		result := updater.Update(original, &Progress{LegIndex: intPtr(0)}, location)
		require.True(t, result.OK())
		updated := result.Options

		require.Len(t, updated.Coordinates, 5)
		assert.Equal(t, current, updated.Coordinates[0])
		assert.Equal(t, original.Coordinates[1:], updated.Coordinates[1:])
		assert.Equal(t, &Bearing{Angle: 75, Tolerance: 20}, updated.Bearings[0])
		assert.Equal(t, original.Bearings[1:], updated.Bearings[1:])
		assert.Equal(t, original.Radiuses, updated.Radiuses)
		assert.Equal(t, original.Approaches, updated.Approaches)
		assert.Equal(t, original.WaypointNames, updated.WaypointNames)
		assert.Equal(t, original.WaypointTargets, updated.WaypointTargets)
		assert.Equal(t, []int{0, 2, 4}, updated.WaypointIndices)
	})

	t.Run("after the stop", func(t *testing.T) {
		result := updater.Update(original, &Progress{LegIndex: intPtr(2)}, location)
		require.True(t, result.OK())
		updated := result.Options

		assert.Equal(t, []geo.Point{current, original.Coordinates[3], original.Coordinates[4]}, updated.Coordinates)
		assert.Equal(t, []*Bearing{{Angle: 75, Tolerance: 20}, {Angle: 50, Tolerance: 60}, nil}, updated.Bearings)
		assert.Equal(t, []float64{15, 20, 25}, updated.Radiuses)
		assert.Equal(t, []string{"curb", "curb", "unrestricted"}, updated.Approaches)
		assert.Equal(t, []string{"Murphys", "Arnold"}, updated.WaypointNames)
		assert.Equal(t, original.WaypointTargets[1:], updated.WaypointTargets)
		assert.Equal(t, []int{0, 2}, updated.WaypointIndices)
	})

	t.Run("last leg", func(t *testing.T) {
		result := updater.Update(original, &Progress{LegIndex: intPtr(3)}, location)
		require.True(t, result.OK())
		updated := result.Options

		assert.Equal(t, []geo.Point{current, original.Coordinates[4]}, updated.Coordinates)
		assert.Equal(t, []float64{20, 25}, updated.Radiuses)
		assert.Equal(t, []string{"Murphys", "Arnold"}, updated.WaypointNames)
		assert.Equal(t, []int{0, 1}, updated.WaypointIndices)
	})

	t.Run("pass-through fields", func(t *testing.T) {
		result := updater.Update(original, &Progress{LegIndex: intPtr(1)}, location)
		require.True(t, result.OK())
		assert.Equal(t, "driving-traffic", result.Options.Profile)
		assert.True(t, result.Options.Alternatives)
		assert.Equal(t, "en", result.Options.Language)
	})

	t.Run("every leg produces a valid request", func(t *testing.T) {
		for leg := 0; leg < len(original.Coordinates)-1; leg++ {
			result := updater.Update(original, &Progress{LegIndex: intPtr(leg)}, location)
			require.True(t, result.OK(), "leg %d", leg)
			_, err := NewRouteOptions(*result.Options)
			assert.NoError(t, err, "leg %d", leg)
		}
	})
}

func TestOptionsUpdater_UnknownHeading(t *testing.T) {
	updater := NewOptionsUpdater()
	original := loadOptions(t, "multi_leg.yaml")

	result := updater.Update(original, &Progress{LegIndex: intPtr(1)}, &Location{Point: current})
	require.True(t, result.OK())
	assert.Nil(t, result.Options.Bearings[0])
	assert.Len(t, result.Options.Bearings, len(result.Options.Coordinates))
}

func TestOptionsUpdater_BearingTolerance(t *testing.T) {
	location := &Location{Point: current, Bearing: floatPtr(120)}
	original := &RouteOptions{Coordinates: []geo.Point{pointA, pointB, pointC}}

	result := NewOptionsUpdater(WithDefaultBearingTolerance(45)).Update(original, &Progress{LegIndex: intPtr(0)}, location)
	require.True(t, result.OK())
	assert.Equal(t, &Bearing{Angle: 120, Tolerance: 45}, result.Options.Bearings[0])

	// A leading nil bearing falls back to the default tolerance
	original.Bearings = []*Bearing{nil, {Angle: 10, Tolerance: 15}, nil}
	result = NewOptionsUpdater().Update(original, &Progress{LegIndex: intPtr(0)}, location)
	require.True(t, result.OK())
	assert.Equal(t, []*Bearing{{Angle: 120, Tolerance: DefaultRerouteBearingTolerance}, {Angle: 10, Tolerance: 15}, nil}, result.Options.Bearings)
}

func TestOptionsUpdater_WaypointAnchorFallback(t *testing.T) {
	updater := NewOptionsUpdater()
	original := &RouteOptions{
		Coordinates:     []geo.Point{pointA, pointB, pointC, pointD},
		WaypointIndices: []int{1, 3},
		WaypointNames:   []string{"Vallecito", "Avery"},
	}

	// No waypoint is at or behind leg 0, so the first waypoint anchors the origin
	result := updater.Update(original, &Progress{LegIndex: intPtr(0)}, &Location{Point: current})
	require.True(t, result.OK())
	assert.Equal(t, []string{"Vallecito", "Avery"}, result.Options.WaypointNames)
	assert.Equal(t, []int{0, 3}, result.Options.WaypointIndices)
}

func TestNewRouteOptions(t *testing.T) {
	coordinates := []geo.Point{pointA, pointB, pointC}

	tests := []struct {
		name    string
		options RouteOptions
		wantErr string
	}{
		{"valid", RouteOptions{Coordinates: coordinates, Radiuses: []float64{1, 2, 3}, WaypointIndices: []int{0, 2}, WaypointNames: []string{"a", "b"}}, ""},
		{"too few coordinates", RouteOptions{Coordinates: coordinates[:1]}, "at least 2 coordinates"},
		{"bearing count", RouteOptions{Coordinates: coordinates, Bearings: []*Bearing{nil}}, "bearings has 1 entries"},
		{"radius count", RouteOptions{Coordinates: coordinates, Radiuses: []float64{1, 2}}, "radiuses has 2 entries"},
		{"approach count", RouteOptions{Coordinates: coordinates, Approaches: []string{}}, "approaches has 0 entries"},
		{"index out of range", RouteOptions{Coordinates: coordinates, WaypointIndices: []int{0, 3}}, "out of range"},
		{"indices not ascending", RouteOptions{Coordinates: coordinates, WaypointIndices: []int{2, 0}}, "ascending"},
		{"name count", RouteOptions{Coordinates: coordinates, WaypointIndices: []int{0, 2}, WaypointNames: []string{"a"}}, "waypoint names"},
		{"target count", RouteOptions{Coordinates: coordinates, WaypointIndices: []int{0, 2}, WaypointTargets: []geo.Point{pointA}}, "waypoint targets"},
		{"invalid coordinate", RouteOptions{Coordinates: []geo.Point{pointA, {Latitude: 95}}}, "coordinate 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options, err := NewRouteOptions(tt.options)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.options.Coordinates, options.Coordinates)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInvalidInputError_Message(t *testing.T) {
	err := &InvalidInputError{Missing: []string{"progress", "location"}}
	assert.Equal(t, "cannot combine route options, missing progress, location", err.Error())

	err = &InvalidInputError{Reason: "leg index 4 out of range for 3 coordinates"}
	assert.Equal(t, "cannot combine route options: leg index 4 out of range for 3 coordinates", err.Error())
}
