package normalize

import (
	"strings"

	"macrocal/internal/models"
)

// NormalizeImpact folds source-specific importance markers into low/medium/high.
// Unknown or empty input is low.
func NormalizeImpact(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high", "red", "3":
		return models.ImpactHigh
	case "medium", "med", "ora", "orange", "2":
		return models.ImpactMedium
	default:
		return models.ImpactLow
	}
}
