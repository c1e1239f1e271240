package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/dpup/prefab"
	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
	"go.uber.org/zap"

	"github.com/dpup/routeline/internal/config"
	"github.com/dpup/routeline/internal/lib/alerts"
	"github.com/dpup/routeline/internal/lib/geo"
	"github.com/dpup/routeline/internal/lib/routeline"
	"github.com/dpup/routeline/internal/lib/routing"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	defer func() {
		if r := recover(); r != nil {
			err, _ := errors.ParseStack(debug.Stack())
			logging.Errorw(ctx, "routeline: recovered from panic",
				"command", command, "error", r, "error.stack_trace", err.MinimalStack(3, 5))
			os.Exit(2)
		}
	}()

	switch command {
	case "segments":
		handleSegments(ctx)
	case "vanish":
		handleVanish(ctx)
	case "kml":
		handleKML(ctx)
	case "reroute":
		handleReroute(ctx)
	case "alerts":
		handleAlerts(ctx)
	case "decode-polyline":
		handleDecodePolyline()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// loadConfig starts from the defaults, overlays an optional YAML file, then the
// routeline section of prefab.yaml and PF__ environment variables.
func loadConfig(path string) *config.Config {
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	if err := cfg.Overlay(prefab.Config, "routeline"); err != nil {
		log.Fatalf("Failed to load prefab config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

func handleSegments(ctx context.Context) {
	fs := flag.NewFlagSet("segments", flag.ExitOnError)
	routePath := fs.String("route", "", "Route fixture (YAML)")
	configPath := fs.String("config", "", "Config file (YAML)")
	alternative := fs.Bool("alternative", false, "Use alternative route colors")
	fs.Parse(os.Args[2:])

	if *routePath == "" {
		fmt.Println("Example usage:")
		fmt.Println("  routeline segments --route cmd/routeline/testdata/hwy4.yaml")
		os.Exit(1)
	}

	palette := mustPalette(loadConfig(*configPath))
	route, points := mustLoadRoute(*routePath)

	stops := routeline.ComputeRouteSegments(route, points, !*alternative, palette)
	logging.Infow(ctx, "Computed route line segments", "route_id", route.ID, "stops", len(stops))

	fmt.Printf("Route %s: %d points, %.0f meters\n", route.ID, len(points), route.Distance)
	for _, stop := range stops {
		fmt.Printf("  %-12s %s\n", routeline.FormatOffset(stop.Offset), routeline.Hex(stop.Color))
	}
}

func handleVanish(ctx context.Context) {
	fs := flag.NewFlagSet("vanish", flag.ExitOnError)
	routePath := fs.String("route", "", "Route fixture (YAML)")
	configPath := fs.String("config", "", "Config file (YAML)")
	remaining := fs.Float64("remaining", -1, "Distance remaining in meters")
	proto := fs.Bool("proto", false, "Print protobuf JSON instead of style JSON")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(os.Args[2:])

	if *routePath == "" || *remaining < 0 {
		fmt.Println("Example usage:")
		fmt.Println("  routeline vanish --route cmd/routeline/testdata/hwy4.yaml --remaining 5000")
		os.Exit(1)
	}

	palette := mustPalette(loadConfig(*configPath))
	route, _ := mustLoadRoute(*routePath)

	line := routeline.NewRouteLine(palette, routeline.WithLogger(newLogger(*verbose)))
	if err := line.Draw(route); err != nil {
		log.Fatalf("Error drawing route: %v", err)
	}
	offset := line.UpdateProgress(*remaining)
	logging.Infow(ctx, "Updated vanishing point", "route_id", route.ID, "offset", offset)

	layers := map[string]routeline.Expression{
		"traffic": line.PrimaryTraffic(),
		"base":    line.PrimaryVanish(),
		"shield":  line.ShieldVanish(),
	}

	fmt.Printf("Vanishing offset: %s\n", routeline.FormatOffset(offset))
	for _, name := range []string{"traffic", "base", "shield"} {
		expr := layers[name]
		if *proto {
			value, err := expr.ToProto()
			if err != nil {
				log.Fatalf("Error converting %s expression: %v", name, err)
			}
			data, err := value.MarshalJSON()
			if err != nil {
				log.Fatalf("Error encoding %s expression: %v", name, err)
			}
			fmt.Printf("  %s: %s\n", name, data)
			continue
		}
		data, err := json.Marshal(expr)
		if err != nil {
			log.Fatalf("Error encoding %s expression: %v", name, err)
		}
		fmt.Printf("  %s: %s\n", name, data)
	}
}

func handleKML(ctx context.Context) {
	fs := flag.NewFlagSet("kml", flag.ExitOnError)
	routePath := fs.String("route", "", "Route fixture (YAML)")
	configPath := fs.String("config", "", "Config file (YAML)")
	out := fs.String("out", "", "Output file (default stdout)")
	fs.Parse(os.Args[2:])

	if *routePath == "" {
		fmt.Println("Example usage:")
		fmt.Println("  routeline kml --route cmd/routeline/testdata/hwy4.yaml --out hwy4.kml")
		os.Exit(1)
	}

	palette := mustPalette(loadConfig(*configPath))
	route, points := mustLoadRoute(*routePath)
	stops := routeline.ComputeRouteSegments(route, points, true, palette)

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Error creating %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	if err := routeline.WriteKML(w, route.ID, points, route.Distance, stops); err != nil {
		log.Fatalf("Error writing KML: %v", err)
	}
	logging.Infow(ctx, "Wrote route line KML", "route_id", route.ID, "segments", len(stops), "out", *out)
}

func handleReroute(ctx context.Context) {
	fs := flag.NewFlagSet("reroute", flag.ExitOnError)
	optionsPath := fs.String("options", "", "Route options fixture (YAML)")
	routesPath := fs.String("routes", "", "Routes returned by the fixture router (YAML list)")
	configPath := fs.String("config", "", "Config file (YAML)")
	leg := fs.Int("leg", -1, "Current leg index (-1 when unknown)")
	lat := fs.Float64("lat", 0, "Current latitude")
	lng := fs.Float64("lng", 0, "Current longitude")
	bearing := fs.Float64("bearing", -1, "Current bearing in degrees (-1 when unknown)")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(os.Args[2:])

	if *optionsPath == "" || (*lat == 0 && *lng == 0) {
		fmt.Println("Example usage:")
		fmt.Println("  routeline reroute --options internal/lib/routing/testdata/multi_leg.yaml --leg 1 --lat 38.12 --lng -120.47 --bearing 75")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := newLogger(*verbose)

	var raw routing.RouteOptions
	mustLoadYAML(*optionsPath, &raw)
	original, err := routing.NewRouteOptions(raw)
	if err != nil {
		log.Fatalf("Invalid route options: %v", err)
	}

	point, err := geo.NewPoint(*lat, *lng)
	if err != nil {
		log.Fatalf("Invalid location: %v", err)
	}
	location := &routing.Location{Point: point}
	if *bearing >= 0 {
		location.Bearing = bearing
	}
	progress := &routing.Progress{}
	if *leg >= 0 {
		progress.LegIndex = leg
	}

	updater := routing.NewOptionsUpdater(
		routing.WithUpdaterLogger(logger),
		routing.WithDefaultBearingTolerance(cfg.Reroute.DefaultBearingTolerance),
	)

	if *routesPath == "" {
		result := updater.Update(original, progress, location)
		if !result.OK() {
			log.Fatalf("Reroute failed: %v", result.Err)
		}
		logging.Infow(ctx, "Rebuilt route options", "coordinates", len(result.Options.Coordinates))
		mustPrintYAML(result.Options)
		return
	}

	var routes []routeline.Route
	mustLoadYAML(*routesPath, &routes)
	controller := routing.NewRerouteController(updater, &fixtureRouter{routes: routes, logger: logger}, logger)

	fetched, err := controller.Reroute(ctx, original, progress, location)
	if err != nil {
		log.Fatalf("Reroute failed: %v", err)
	}
	logging.Infow(ctx, "Reroute complete", "routes", len(fetched))
	for _, route := range fetched {
		fmt.Printf("Route %s: %.0f meters, %d congestion entries\n", route.ID, route.Distance, len(route.Congestion))
	}
}

func handleAlerts(ctx context.Context) {
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	alertsPath := fs.String("alerts", "", "Route alerts fixture (YAML list)")
	routePath := fs.String("route", "", "Route fixture used for tunnel and restricted area lines")
	configPath := fs.String("config", "", "Config file (YAML)")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(os.Args[2:])

	if *alertsPath == "" {
		fmt.Println("Example usage:")
		fmt.Println("  routeline alerts --alerts internal/lib/alerts/testdata/highway4.yaml --route cmd/routeline/testdata/hwy4.yaml")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	options, err := cfg.DisplayOptions()
	if err != nil {
		log.Fatalf("Invalid alert options: %v", err)
	}

	var records []alerts.Record
	mustLoadYAML(*alertsPath, &records)
	routeAlerts, err := alerts.FromRecords(records)
	if err != nil {
		log.Fatalf("Invalid alerts: %v", err)
	}
	routeAlerts = alerts.SortByDistance(alerts.NewContentHasher().Dedupe(routeAlerts))

	displayer, err := alerts.NewDisplayer(options, newLogger(*verbose))
	if err != nil {
		log.Fatalf("Error creating displayer: %v", err)
	}
	if *routePath != "" {
		_, points := mustLoadRoute(*routePath)
		displayer.SetRouteGeometry(points)
	}

	layers := displayer.Render(routeAlerts).Named()
	logging.Infow(ctx, "Rendered route alerts", "alerts", len(routeAlerts), "layers", len(layers))

	data, err := json.MarshalIndent(layers, "", "  ")
	if err != nil {
		log.Fatalf("Error encoding layers: %v", err)
	}
	fmt.Println(string(data))
}

func handleDecodePolyline() {
	fs := flag.NewFlagSet("decode-polyline", flag.ExitOnError)
	polylineStr := fs.String("polyline", "", "Encoded polyline string to decode")
	precision := fs.Int("precision", geo.Precision6, "Polyline precision (5 or 6)")
	from := fs.Float64("from", 0, "Start of the slice to print, in meters")
	to := fs.Float64("to", -1, "End of the slice to print, in meters (-1 for the whole line)")
	verbose := fs.Bool("verbose", false, "Show all decoded points")
	fs.Parse(os.Args[2:])

	if *polylineStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  routeline decode-polyline --polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\" --precision 5")
		fmt.Println("  routeline decode-polyline --polyline \"encoded_string\" --from 100 --to 500 --verbose")
		os.Exit(1)
	}

	geoUtils := geo.NewGeoUtils()
	points, err := geoUtils.DecodePolyline(*polylineStr, *precision)
	if err != nil {
		log.Fatalf("Error decoding polyline: %v", err)
	}
	length := geoUtils.LineLength(points)

	fmt.Printf("Polyline decoded successfully:\n")
	fmt.Printf("  Points: %d\n", len(points))
	fmt.Printf("  Length: %.2f meters (%.2f km, %.2f miles)\n", length, length/1000, length*0.000621371)

	if *to >= 0 {
		points, err = geoUtils.SliceAlong(points, *from, *to)
		if err != nil {
			log.Fatalf("Error slicing polyline: %v", err)
		}
		fmt.Printf("  Slice [%.0f, %.0f]: %d points\n", *from, *to, len(points))
	}

	if *verbose {
		for i, p := range points {
			fmt.Printf("    %d: (%.6f, %.6f)\n", i, p.Latitude, p.Longitude)
		}
	}
}

func printUsage() {
	fmt.Println("routeline - Route line segmentation and reroute tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  routeline <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  segments   Print congestion color stops for a route")
	fmt.Println("  vanish     Print route line expressions at a point of progress")
	fmt.Println("  kml        Export the colored route line as KML")
	fmt.Println("  reroute    Rebuild route options from the current position")
	fmt.Println("  alerts     Render route alerts as GeoJSON layers")
	fmt.Println("  decode-polyline  Decode a polyline and measure it")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Configuration is read from --config, then the routeline section of prefab.yaml")
	fmt.Println("and PF__ROUTELINE__ environment variables.")
}
