package config

import (
	"fmt"
	"image/color"
	"os"

	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/dpup/routeline/internal/lib/alerts"
	"github.com/dpup/routeline/internal/lib/routeline"
	"github.com/dpup/routeline/internal/lib/routing"
)

// Config represents the complete route line configuration
type Config struct {
	RouteLine RouteLineConfig `yaml:"route_line" koanf:"route_line"`
	Reroute   RerouteConfig   `yaml:"reroute" koanf:"reroute"`
	Alerts    AlertsConfig    `yaml:"alerts" koanf:"alerts"`
}

// RouteLineConfig holds the route line palette as hex colors (#RRGGBB or #AARRGGBB)
type RouteLineConfig struct {
	Primary           CongestionColorsYAML `yaml:"primary" koanf:"primary"`
	Alternative       CongestionColorsYAML `yaml:"alternative" koanf:"alternative"`
	Traveled          string               `yaml:"traveled" koanf:"traveled"`
	Shield            string               `yaml:"shield" koanf:"shield"`
	ShieldTraveled    string               `yaml:"shield_traveled" koanf:"shield_traveled"`
	AlternativeShield string               `yaml:"alternative_shield" koanf:"alternative_shield"`
}

// CongestionColorsYAML holds per-congestion hex colors
type CongestionColorsYAML struct {
	Default  string `yaml:"default" koanf:"default"`
	Low      string `yaml:"low" koanf:"low"`
	Moderate string `yaml:"moderate" koanf:"moderate"`
	Heavy    string `yaml:"heavy" koanf:"heavy"`
	Severe   string `yaml:"severe" koanf:"severe"`
	Unknown  string `yaml:"unknown" koanf:"unknown"`
}

// RerouteConfig holds route options updater settings
type RerouteConfig struct {
	DefaultBearingTolerance float64 `yaml:"default_bearing_tolerance" koanf:"default_bearing_tolerance"` // Degrees
}

// AlertsConfig holds route alert display toggles
type AlertsConfig struct {
	ShowToll           bool   `yaml:"show_toll" koanf:"show_toll"`
	ShowTunnel         bool   `yaml:"show_tunnel" koanf:"show_tunnel"`
	ShowRestrictedArea bool   `yaml:"show_restricted_area" koanf:"show_restricted_area"`
	ShowRestStop       bool   `yaml:"show_rest_stop" koanf:"show_rest_stop"`
	ShowBorderCrossing bool   `yaml:"show_border_crossing" koanf:"show_border_crossing"`
	TextProperty       string `yaml:"text_property" koanf:"text_property"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		RouteLine: RouteLineConfig{
			Primary: CongestionColorsYAML{
				Default:  "#56A8FB",
				Low:      "#56A8FB",
				Moderate: "#FF9500",
				Heavy:    "#FF4D4D",
				Severe:   "#8F2447",
				Unknown:  "#56A8FB",
			},
			Alternative: CongestionColorsYAML{
				Default:  "#8694A5",
				Low:      "#8694A5",
				Moderate: "#BEA087",
				Heavy:    "#B58281",
				Severe:   "#B58281",
				Unknown:  "#8694A5",
			},
			Traveled:          "#00000000", // Fully transparent
			Shield:            "#2F7AC6",
			ShieldTraveled:    "#00000000",
			AlternativeShield: "#727E8D",
		},
		Reroute: RerouteConfig{
			DefaultBearingTolerance: routing.DefaultRerouteBearingTolerance,
		},
		Alerts: AlertsConfig{
			ShowToll:           true,
			ShowTunnel:         true,
			ShowRestrictedArea: true,
			ShowRestStop:       true,
			ShowBorderCrossing: true,
			TextProperty:       alerts.DefaultTextProperty,
		},
	}
}

// LoadFile overlays a YAML file on the defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Overlay applies a koanf section on top of the current values. Keys use the
// same names as the YAML file.
func (c *Config) Overlay(k *koanf.Koanf, section string) error {
	if err := k.Unmarshal(section, c); err != nil {
		return fmt.Errorf("failed to unmarshal %s section: %w", section, err)
	}
	return nil
}

// Validate checks every setting can be converted
func (c *Config) Validate() error {
	if _, err := c.Palette(); err != nil {
		return err
	}
	if c.Reroute.DefaultBearingTolerance < 0 || c.Reroute.DefaultBearingTolerance > 180 {
		return fmt.Errorf("reroute.default_bearing_tolerance must be within [0, 180], got %f", c.Reroute.DefaultBearingTolerance)
	}
	if _, err := c.DisplayOptions(); err != nil {
		return err
	}
	return nil
}

// Palette converts the configured hex colors
func (c *Config) Palette() (routeline.Palette, error) {
	primary, err := c.RouteLine.Primary.toColors("route_line.primary")
	if err != nil {
		return routeline.Palette{}, err
	}
	alternative, err := c.RouteLine.Alternative.toColors("route_line.alternative")
	if err != nil {
		return routeline.Palette{}, err
	}

	p := &parser{}
	palette := routeline.Palette{
		Primary:           primary,
		Alternative:       alternative,
		Traveled:          p.color("route_line.traveled", c.RouteLine.Traveled),
		Shield:            p.color("route_line.shield", c.RouteLine.Shield),
		ShieldTraveled:    p.color("route_line.shield_traveled", c.RouteLine.ShieldTraveled),
		AlternativeShield: p.color("route_line.alternative_shield", c.RouteLine.AlternativeShield),
	}
	if p.err != nil {
		return routeline.Palette{}, p.err
	}
	return palette, nil
}

// DisplayOptions converts the alert toggles
func (c *Config) DisplayOptions() (alerts.DisplayOptions, error) {
	return alerts.NewDisplayOptions(alerts.DisplayOptions{
		ShowToll:           c.Alerts.ShowToll,
		ShowTunnel:         c.Alerts.ShowTunnel,
		ShowRestrictedArea: c.Alerts.ShowRestrictedArea,
		ShowRestStop:       c.Alerts.ShowRestStop,
		ShowBorderCrossing: c.Alerts.ShowBorderCrossing,
		TextProperty:       c.Alerts.TextProperty,
	})
}

func (c CongestionColorsYAML) toColors(section string) (routeline.CongestionColors, error) {
	p := &parser{}
	colors := routeline.CongestionColors{
		Default:  p.color(section+".default", c.Default),
		Low:      p.color(section+".low", c.Low),
		Moderate: p.color(section+".moderate", c.Moderate),
		Heavy:    p.color(section+".heavy", c.Heavy),
		Severe:   p.color(section+".severe", c.Severe),
		Unknown:  p.color(section+".unknown", c.Unknown),
	}
	if p.err != nil {
		return routeline.CongestionColors{}, p.err
	}
	return colors, nil
}

// parser keeps the first hex parsing error
type parser struct {
	err error
}

func (p *parser) color(field, value string) (c color.RGBA) {
	if p.err != nil {
		return c
	}
	parsed, err := routeline.ParseHexColor(value)
	if err != nil {
		p.err = fmt.Errorf("invalid %s: %w", field, err)
		return c
	}
	return parsed
}
