package alerts

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// ContentHasher provides content-based deduplication for route alerts. The
// navigator reports the same alerts again after every route refresh.
type ContentHasher struct{}

// NewContentHasher creates a new content hasher
func NewContentHasher() *ContentHasher {
	return &ContentHasher{}
}

// HashAlert creates a content hash for deduplication. Coordinates are compared
// at 6 decimal places and distances to the meter.
func (h *ContentHasher) HashAlert(alert Alert) string {
	alert = normalize(alert)
	if alert == nil {
		return ""
	}

	position := alert.Position()
	signature := fmt.Sprintf("%s|%.6f,%.6f|%.0f|%s",
		alert.Kind(),
		position.Coordinate.Latitude,
		position.Coordinate.Longitude,
		position.DistanceToStart,
		h.details(alert),
	)

	hash := sha256.Sum256([]byte(signature))
	return fmt.Sprintf("%x", hash)
}

// details returns the kind-specific part of the signature
func (h *ContentHasher) details(alert Alert) string {
	switch a := alert.(type) {
	case TollCollection:
		return string(a.Type)
	case RestStop:
		return string(a.Type)
	case TunnelEntrance:
		return h.normalizeText(a.Name) + "|" + geometrySignature(a.Geometry)
	case RestrictedArea:
		return geometrySignature(a.Geometry)
	case CountryBorderCrossing:
		return countrySignature(a.From) + ">" + countrySignature(a.To)
	}
	return ""
}

// Dedupe drops alerts whose content matches an earlier alert
func (h *ContentHasher) Dedupe(alerts []Alert) []Alert {
	seen := make(map[string]struct{}, len(alerts))
	deduped := make([]Alert, 0, len(alerts))
	for _, alert := range alerts {
		hash := h.HashAlert(alert)
		if hash == "" {
			continue
		}
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		deduped = append(deduped, alert)
	}
	return deduped
}

// normalizeText cleans names for consistent hashing
func (h *ContentHasher) normalizeText(text string) string {
	normalized := strings.ToLower(text)
	normalized = whitespace.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

func geometrySignature(g *Geometry) string {
	if g == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f-%.0f", g.StartDistance, g.EndDistance)
}

func countrySignature(c *Country) string {
	if c == nil {
		return "-"
	}
	return strings.ToUpper(c.Alpha3)
}
