package routeline

import (
	"crypto/sha256"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// CongestionColors is the color set for one kind of route line
type CongestionColors struct {
	Default  color.RGBA
	Low      color.RGBA
	Moderate color.RGBA
	Heavy    color.RGBA
	Severe   color.RGBA
	Unknown  color.RGBA
}

// Palette holds the primary and alternative route colors
type Palette struct {
	Primary           CongestionColors
	Alternative       CongestionColors
	Traveled          color.RGBA
	Shield            color.RGBA
	ShieldTraveled    color.RGBA
	AlternativeShield color.RGBA
}

// Transparent is used where nothing should be drawn
var Transparent = color.RGBA{}

// DefaultPalette returns the stock navigation colors
func DefaultPalette() Palette {
	return Palette{
		Primary: CongestionColors{
			Default:  mustHex("#56A8FB"),
			Low:      mustHex("#56A8FB"),
			Moderate: mustHex("#FF9500"),
			Heavy:    mustHex("#FF4D4D"),
			Severe:   mustHex("#8F2447"),
			Unknown:  mustHex("#56A8FB"),
		},
		Alternative: CongestionColors{
			Default:  mustHex("#8694A5"),
			Low:      mustHex("#8694A5"),
			Moderate: mustHex("#BEA087"),
			Heavy:    mustHex("#B58281"),
			Severe:   mustHex("#B58281"),
			Unknown:  mustHex("#8694A5"),
		},
		Traveled:          Transparent,
		Shield:            mustHex("#2F7AC6"),
		ShieldTraveled:    Transparent,
		AlternativeShield: mustHex("#727E8D"),
	}
}

// ColorFor maps a congestion label to a color. Labels without a dedicated color
// (including low) use the low color on the primary route and the default color
// on alternatives. A missing label is rendered as unknown.
func (p Palette) ColorFor(congestion Congestion, isPrimary bool) color.RGBA {
	set := p.Alternative
	if isPrimary {
		set = p.Primary
	}

	switch congestion {
	case CongestionModerate:
		return set.Moderate
	case CongestionHeavy:
		return set.Heavy
	case CongestionSevere:
		return set.Severe
	case CongestionUnknown, CongestionNone:
		return set.Unknown
	default:
		if isPrimary {
			return set.Low
		}
		return set.Default
	}
}

// UnknownColor returns the unknown congestion color for the route kind
func (p Palette) UnknownColor(isPrimary bool) color.RGBA {
	return p.ColorFor(CongestionUnknown, isPrimary)
}

// ID returns a content hash of every color in the palette
func (p Palette) ID() string {
	var b strings.Builder
	for _, set := range []CongestionColors{p.Primary, p.Alternative} {
		for _, c := range []color.RGBA{set.Default, set.Low, set.Moderate, set.Heavy, set.Severe, set.Unknown} {
			b.WriteString(Hex(c))
		}
	}
	for _, c := range []color.RGBA{p.Traveled, p.Shield, p.ShieldTraveled, p.AlternativeShield} {
		b.WriteString(Hex(c))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash[:8])
}

// ParseHexColor parses #RRGGBB or #AARRGGBB
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	switch len(hex) {
	case 6:
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	case 8:
		return color.RGBA{A: uint8(v >> 24), R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q: expected #RRGGBB or #AARRGGBB", s)
	}
}

// Hex formats a color as #AARRGGBB
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.A, c.R, c.G, c.B)
}

func mustHex(s string) color.RGBA {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
