package routeline

import (
	"fmt"
	"io"

	"github.com/twpayne/go-kml"

	"github.com/dpup/routeline/internal/lib/geo"
)

const kmlLineWidth = 6

// WriteKML writes the route line as one colored placemark per stop, for
// inspecting segmentation in a desktop globe viewer.
func WriteKML(w io.Writer, name string, points []geo.Point, totalDistance float64, stops Stops) error {
	if len(points) < 2 {
		return ErrEmptyGeometry
	}
	if totalDistance <= 0 {
		return fmt.Errorf("invalid route distance %f", totalDistance)
	}

	geoUtils := geo.NewGeoUtils()
	lineLength := geoUtils.LineLength(points)

	placemarks := []kml.Element{kml.Name(name)}
	for i, stop := range stops {
		start := stop.Offset * totalDistance
		end := lineLength
		if i+1 < len(stops) {
			end = stops[i+1].Offset * totalDistance
		}
		if end <= start {
			continue
		}

		run, err := geoUtils.SliceAlong(points, start, end)
		if err != nil {
			return fmt.Errorf("failed to slice segment %d: %w", i, err)
		}

		coordinates := make([]kml.Coordinate, len(run))
		for j, p := range run {
			coordinates[j] = kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}
		}

		placemarks = append(placemarks, kml.Placemark(
			kml.Name(fmt.Sprintf("segment %d", i)),
			kml.Description(fmt.Sprintf("offset %s color %s", FormatOffset(stop.Offset), Hex(stop.Color))),
			kml.Style(
				kml.LineStyle(
					kml.Color(stop.Color),
					kml.Width(kmlLineWidth),
				),
			),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(coordinates...),
			),
		))
	}

	if err := kml.KML(kml.Document(placemarks...)).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write KML: %w", err)
	}
	return nil
}
