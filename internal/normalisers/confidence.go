package normalisers

import (
	"math"

	"github.com/custodia-labs/handover-core/internal/core/domain"
)

// Clamp bounds v to [0,1]. NaN and negative values map to 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// present reports whether a raw score was sent and is a number
func present(v *float64) bool {
	return v != nil && !math.IsNaN(*v)
}

// nonNegative returns the raw value, with missing, NaN and negative values as 0
func nonNegative(v *float64) float64 {
	if !present(v) || *v < 0 {
		return 0
	}
	return *v
}

// DocumentConfidence maps a document hit onto [0,1]. The first score
// present wins: match ratio, then relevance score, then the raw BM25 score
// rescaled by the configured divisor.
func DocumentConfidence(d *domain.DocumentRecord, s domain.ScoringSettings) float64 {
	switch {
	case present(d.MatchRatio):
		return Clamp(*d.MatchRatio)
	case present(d.RelevanceScore):
		return Clamp(*d.RelevanceScore)
	case present(d.Score):
		return Clamp(nonNegative(d.Score) / divisor(s.DocumentBM25Divisor))
	default:
		return 0
	}
}

// EmailConfidence maps an email hit onto [0,1]: the rescaled BM25 score
// plus the entity boost, or the relevance score when neither is sent.
func EmailConfidence(e *domain.EmailRecord, s domain.ScoringSettings) float64 {
	if present(e.BM25Score) || present(e.EntityBoost) {
		return Clamp(nonNegative(e.BM25Score)/divisor(s.EmailBM25Divisor) + nonNegative(e.EntityBoost))
	}
	if present(e.RelevanceScore) {
		return Clamp(*e.RelevanceScore)
	}
	return 0
}

func divisor(d float64) float64 {
	if d <= 0 || math.IsNaN(d) {
		return 1
	}
	return d
}
