package routeline

import "image/color"

// SliceAtOffset returns the stops visible ahead of offset, led by a filler stop
// at exactly offset carrying the color active there.
func SliceAtOffset(offset float64, stops Stops, unknownColor color.RGBA) Stops {
	first := -1
	var ahead Stops
	for i, stop := range stops {
		if stop.Offset > offset {
			if first < 0 {
				first = i
			}
			ahead = append(ahead, stop)
		}
	}

	if len(ahead) == 0 {
		if len(stops) == 0 {
			return Stops{{Offset: offset, Color: unknownColor}}
		}
		// The tail color persists to the end of the line
		return Stops{{Offset: offset, Color: stops[len(stops)-1].Color}}
	}

	filler := stops[first]
	if first > 0 {
		filler = stops[first-1]
	}
	filler.Offset = offset

	return append(Stops{filler}, ahead...)
}

// VanishingOffset converts remaining distance into the traveled fraction of the
// route, clamped to [0, 1].
func VanishingOffset(distanceRemaining, totalDistance float64) float64 {
	if !(totalDistance > 0) {
		return 0
	}

	offset := 1 - distanceRemaining/totalDistance
	switch {
	case !(offset >= 0):
		return 0
	case offset > 1:
		return 1
	default:
		return offset
	}
}
