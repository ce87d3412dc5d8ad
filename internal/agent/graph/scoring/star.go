package scoring

import "github.com/negotiation-sim/server/internal/agent/model"

// Weights are in tenths: 60% negotiation score, 40% rapport.
const (
	scoreWeight   = 6
	rapportWeight = 4
)

// StarRating derives the 1-5 star rating from the current analysis and emotion.
func StarRating(analysis model.AnalysisResult, emotion model.EmotionState) int {
	return Stars(analysis.NegotiationScore, emotion.Rapport)
}

// Stars weighs a negotiation score and a rapport value, both clamped to
// [0,100], into a star rating. It is monotonic in both inputs.
func Stars(score, rapport int) int {
	// composite is scaled by 10 to keep the threshold comparisons exact
	composite := scoreWeight*model.ClampPercent(score) + rapportWeight*model.ClampPercent(rapport)
	switch {
	case composite >= 900:
		return 5
	case composite >= 750:
		return 4
	case composite >= 600:
		return 3
	case composite >= 400:
		return 2
	default:
		return 1
	}
}
