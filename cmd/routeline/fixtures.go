package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dpup/routeline/internal/config"
	"github.com/dpup/routeline/internal/lib/geo"
	"github.com/dpup/routeline/internal/lib/routeline"
	"github.com/dpup/routeline/internal/lib/routing"
)

// fixtureRouter answers every request with routes read from a file
type fixtureRouter struct {
	routes []routeline.Route
	logger *zap.Logger
}

func (r *fixtureRouter) GetRoute(ctx context.Context, options *routing.RouteOptions) ([]routeline.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(r.routes) == 0 {
		return nil, fmt.Errorf("no routes for %d coordinates", len(options.Coordinates))
	}
	r.logger.Debug("Serving fixture routes", zap.Int("routes", len(r.routes)))
	return r.routes, nil
}

func (r *fixtureRouter) Cancel() {}

func mustLoadYAML(path string, out interface{}) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error reading %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		log.Fatalf("Error parsing %s: %v", path, err)
	}
}

func mustPrintYAML(v interface{}) {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Error encoding YAML: %v", err)
	}
	enc.Close()
}

// mustLoadRoute reads a route fixture and decodes its geometry. A missing
// distance is measured from the geometry.
func mustLoadRoute(path string) (routeline.Route, []geo.Point) {
	var route routeline.Route
	mustLoadYAML(path, &route)

	geoUtils := geo.NewGeoUtils()
	points, err := routeline.NewGeometryCache(geoUtils).Points(route.Geometry)
	if err != nil {
		log.Fatalf("Error decoding route %s: %v", route.ID, err)
	}
	if route.Distance <= 0 {
		route.Distance = geoUtils.LineLength(points)
	}
	return route, points
}

func mustPalette(cfg *config.Config) routeline.Palette {
	palette, err := cfg.Palette()
	if err != nil {
		log.Fatalf("Invalid palette: %v", err)
	}
	return palette
}
