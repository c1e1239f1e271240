package routeline

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

// ExpressionPrecision is the number of decimal places kept for stop offsets
const ExpressionPrecision = 9

// Expression is a step function over normalized line progress: Default is drawn
// before the first stop, then each stop's color from its offset onwards.
type Expression struct {
	Default color.RGBA
	Stops   Stops
}

// TrafficExpression colors the line ahead of offset by congestion and hides the
// traveled part.
func TrafficExpression(offset float64, stops Stops, unknownColor color.RGBA) Expression {
	return Expression{
		Default: Transparent,
		Stops:   SliceAtOffset(offset, stops, unknownColor),
	}
}

// VanishExpression draws traveled up to offset and remaining after it
func VanishExpression(offset float64, traveled, remaining color.RGBA) Expression {
	return Expression{
		Default: traveled,
		Stops:   Stops{{Offset: offset, Color: remaining}},
	}
}

// FormatOffset truncates (rounds down) an offset to ExpressionPrecision decimal
// places and formats it without an exponent.
func FormatOffset(offset float64) string {
	s := strconv.FormatFloat(offset, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > ExpressionPrecision {
		s = s[:dot+1+ExpressionPrecision]
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "" || s == "-0" {
		return "0"
	}
	return s
}

// TruncateOffset is FormatOffset as a number
func TruncateOffset(offset float64) float64 {
	v, err := strconv.ParseFloat(FormatOffset(offset), 64)
	if err != nil {
		return 0
	}
	return v
}

// RGBAString formats a color in the rgba() notation used by style expressions
func RGBAString(c color.RGBA) string {
	alpha := strconv.FormatFloat(float64(c.A)/255, 'f', 3, 64)
	alpha = strings.TrimRight(strings.TrimRight(alpha, "0"), ".")
	if alpha == "" {
		alpha = "0"
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, alpha)
}

// Values returns the expression in style-spec array form:
// ["step", ["line-progress"], default, offset1, color1, ...]
func (e Expression) Values() []interface{} {
	values := []interface{}{"step", []interface{}{"line-progress"}, RGBAString(e.Default)}
	for _, stop := range e.Stops {
		values = append(values, json.Number(FormatOffset(stop.Offset)), RGBAString(stop.Color))
	}
	return values
}

// MarshalJSON encodes the style-spec array form with fixed-point offsets
func (e Expression) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Values())
}

// ToProto converts the expression to a protobuf list value for renderers that
// accept style expressions over gRPC.
func (e Expression) ToProto() (*structpb.Value, error) {
	values := []interface{}{"step", []interface{}{"line-progress"}, RGBAString(e.Default)}
	for _, stop := range e.Stops {
		values = append(values, TruncateOffset(stop.Offset), RGBAString(stop.Color))
	}

	list, err := structpb.NewList(values)
	if err != nil {
		return nil, fmt.Errorf("failed to convert expression: %w", err)
	}
	return structpb.NewListValue(list), nil
}
