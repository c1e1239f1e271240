package routeline

import (
	"encoding/json"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStops(p Palette) Stops {
	return Stops{
		{Offset: 0, Color: p.Primary.Low},
		{Offset: 0.25, Color: p.Primary.Moderate},
		{Offset: 0.5, Color: p.Primary.Heavy},
		{Offset: 0.75, Color: p.Primary.Severe},
	}
}

func TestSliceAtOffset(t *testing.T) {
	palette := testPalette()
	stops := sampleStops(palette)
	unknown := palette.Primary.Unknown

	t.Run("at zero keeps every stop", func(t *testing.T) {
		assert.Equal(t, stops, SliceAtOffset(0, stops, unknown))
	})

	t.Run("inside a run uses the run color as filler", func(t *testing.T) {
		sliced := SliceAtOffset(0.3, stops, unknown)
		assert.Equal(t, Stops{
			{Offset: 0.3, Color: palette.Primary.Moderate},
			{Offset: 0.5, Color: palette.Primary.Heavy},
			{Offset: 0.75, Color: palette.Primary.Severe},
		}, sliced)
	})

	t.Run("exactly on a stop replaces it", func(t *testing.T) {
		sliced := SliceAtOffset(0.5, stops, unknown)
		assert.Equal(t, Stops{
			{Offset: 0.5, Color: palette.Primary.Heavy},
			{Offset: 0.75, Color: palette.Primary.Severe},
		}, sliced)
	})

	t.Run("past the last stop keeps the tail color", func(t *testing.T) {
		assert.Equal(t, Stops{{Offset: 0.9, Color: palette.Primary.Severe}}, SliceAtOffset(0.9, stops, unknown))
	})

	t.Run("empty stops use unknown", func(t *testing.T) {
		assert.Equal(t, Stops{{Offset: 0.4, Color: unknown}}, SliceAtOffset(0.4, nil, unknown))
	})

	t.Run("does not modify the input", func(t *testing.T) {
		before := append(Stops(nil), stops...)
		SliceAtOffset(0.6, stops, unknown)
		assert.Equal(t, before, stops)
	})
}

func TestSliceAtOffset_Monotonic(t *testing.T) {
	palette := testPalette()
	stops := sampleStops(palette)

	previous := len(SliceAtOffset(0, stops, palette.Primary.Unknown))
	for offset := 0.05; offset <= 1.0; offset += 0.05 {
		sliced := SliceAtOffset(offset, stops, palette.Primary.Unknown)
		assert.LessOrEqual(t, len(sliced), previous, "offset %f", offset)
		assert.Equal(t, offset, sliced[0].Offset)
		previous = len(sliced)
	}
}

func TestVanishingOffset(t *testing.T) {
	tests := []struct {
		name      string
		remaining float64
		total     float64
		expected  float64
	}{
		{"start", 1000, 1000, 0},
		{"halfway", 500, 1000, 0.5},
		{"arrived", 0, 1000, 1},
		{"remaining exceeds total", 1500, 1000, 0},
		{"negative remaining", -10, 1000, 1},
		{"zero total", 100, 0, 0},
		{"negative total", 100, -5, 0},
		{"NaN total", 100, math.NaN(), 0},
		{"NaN remaining", math.NaN(), 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, VanishingOffset(tt.remaining, tt.total), 1e-12)
		})
	}
}

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		offset   float64
		expected string
	}{
		{0, "0"},
		{1, "1"},
		{0.5, "0.5"},
		{1e-10, "0"},
		{1e-7, "0.0000001"},
		{0.1234567899, "0.123456789"},
		{0.9999999999, "0.999999999"},
		{2.5e-9, "0.000000002"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatOffset(tt.offset))
		})
	}

	assert.InDelta(t, 0.123456789, TruncateOffset(0.1234567899), 1e-15)
}

func TestRGBAString(t *testing.T) {
	assert.Equal(t, "rgba(0, 0, 0, 0)", RGBAString(Transparent))
	assert.Equal(t, "rgba(255, 149, 0, 1)", RGBAString(color.RGBA{R: 255, G: 149, A: 255}))
	assert.Equal(t, "rgba(10, 20, 30, 0.502)", RGBAString(color.RGBA{R: 10, G: 20, B: 30, A: 128}))
}

func TestTrafficExpression_JSON(t *testing.T) {
	low := color.RGBA{R: 86, G: 168, B: 251, A: 255}
	heavy := color.RGBA{R: 255, G: 77, B: 77, A: 255}
	stops := Stops{{Offset: 0, Color: low}, {Offset: 0.5, Color: heavy}}

	expr := TrafficExpression(0.0000000001, stops, low)
	data, err := json.Marshal(expr)
	require.NoError(t, err)

	assert.JSONEq(t,
		`["step", ["line-progress"], "rgba(0, 0, 0, 0)", 0, "rgba(86, 168, 251, 1)", 0.5, "rgba(255, 77, 77, 1)"]`,
		string(data))
	assert.NotContains(t, string(data), "e-")
}

func TestVanishExpression(t *testing.T) {
	traveled := color.RGBA{A: 0}
	remaining := color.RGBA{R: 47, G: 122, B: 198, A: 255}

	expr := VanishExpression(0.1234567899, traveled, remaining)
	assert.Equal(t, traveled, expr.Default)
	require.Len(t, expr.Stops, 1)
	assert.Equal(t, remaining, expr.Stops[0].Color)

	data, err := json.Marshal(expr)
	require.NoError(t, err)
	assert.Equal(t, `["step",["line-progress"],"rgba(0, 0, 0, 0)",0.123456789,"rgba(47, 122, 198, 1)"]`, string(data))
}

func TestExpression_ToProto(t *testing.T) {
	palette := testPalette()
	expr := TrafficExpression(0.3, sampleStops(palette), palette.Primary.Unknown)

	value, err := expr.ToProto()
	require.NoError(t, err)

	list := value.GetListValue()
	require.NotNil(t, list)
	// step, input, default, then a pair per stop
	require.Len(t, list.Values, 3+2*len(expr.Stops))
	assert.Equal(t, "step", list.Values[0].GetStringValue())
	assert.Equal(t, "line-progress", list.Values[1].GetListValue().Values[0].GetStringValue())
	assert.Equal(t, RGBAString(Transparent), list.Values[2].GetStringValue())
	assert.InDelta(t, 0.3, list.Values[3].GetNumberValue(), 1e-12)
	assert.Equal(t, RGBAString(palette.Primary.Moderate), list.Values[4].GetStringValue())
}
