package routeline

import (
	"github.com/dpup/routeline/internal/lib/geo"
)

// MinimumOffset is the smallest gap between two stops. Closer transitions are
// merged so renderers never receive offsets that format in scientific notation.
const MinimumOffset = 1e-7

// ComputeSegments partitions a route line into color stops, one per run of equal
// congestion. Each stop starts where its run starts, as a fraction of
// totalDistance. The first stop is always anchored at offset 0.
//
// Degenerate input (no congestion, fewer than two points, a distance that is not
// positive)
// yields a single unknown-colored stop.
func ComputeSegments(points []geo.Point, congestion []Congestion, totalDistance float64, isPrimary bool, colors ColorProvider) Stops {
	unknown := Stops{{Offset: 0, Color: colors.ColorFor(CongestionNone, isPrimary)}}
	if len(congestion) == 0 || len(points) < 2 || !(totalDistance > 0) {
		return unknown
	}

	var stops Stops
	// categories[i] is the congestion rendered by stops[i]
	var categories []Congestion
	var distanceTraveled float64

	for i := 0; i < len(congestion) && i+1 < len(points); i++ {
		fraction := distanceTraveled / totalDistance
		if fraction > 1 {
			fraction = 1
		}
		distanceTraveled += geo.Haversine(points[i], points[i+1])

		current := congestion[i]
		if len(categories) > 0 && categories[len(categories)-1] == current {
			continue
		}
		stop := ColorStop{Offset: fraction, Color: colors.ColorFor(current, isPrimary)}

		if len(stops) == 0 {
			stop.Offset = 0
			stops = append(stops, stop)
			categories = append(categories, current)
			continue
		}

		last := len(stops) - 1
		if fraction-stops[last].Offset < MinimumOffset {
			// Zero-length runs: the later label wins the offset
			if last > 0 && categories[last-1] == current {
				stops = stops[:last]
				categories = categories[:last]
			} else {
				stops[last].Color = stop.Color
				categories[last] = current
			}
			continue
		}

		stops = append(stops, stop)
		categories = append(categories, current)
	}

	if len(stops) == 0 {
		return unknown
	}
	return stops
}

// ComputeRouteSegments runs ComputeSegments over a route with decoded points
func ComputeRouteSegments(route Route, points []geo.Point, isPrimary bool, colors ColorProvider) Stops {
	return ComputeSegments(points, route.Congestion, route.Distance, isPrimary, colors)
}
