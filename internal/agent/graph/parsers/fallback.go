package parsers

import "github.com/negotiation-sim/server/internal/agent/model"

// Placeholders substituted for absent or blank text fields.
const (
	FallbackMessage     = "I'm sorry, I could not generate a response just now. Could you say that again?"
	PlaceholderReason   = "No particular reason was given."
	PlaceholderFeedback = "No feedback is available for this message."
	PlaceholderApproach = "general"
	defaultScore        = 50
	defaultRapport      = 50
	defaultWillingness  = 50
	defaultRating       = model.RatingFair
	defaultImpact       = model.ImpactNeutral
	defaultEmotion      = model.EmotionNeutral
)

// FallbackSuggestions is the canonical suggestion set, one per opening style.
func FallbackSuggestions() []model.Suggestion {
	return []model.Suggestion{
		{Text: "Could you tell me more about what matters most to you here?", Approach: "exploratory"},
		{Text: "What if we met somewhere in the middle on this?", Approach: "proposing"},
		{Text: "I understand where you're coming from, and I'd like to find something that works for both of us.", Approach: "empathetic"},
	}
}

// FallbackTurn is the canonical payload returned when nothing could be recovered.
func FallbackTurn() model.TurnPayload {
	return model.TurnPayload{
		Message: FallbackMessage,
		Emotion: model.EmotionState{
			Rapport:       defaultRapport,
			Emotion:       defaultEmotion,
			EmotionReason: PlaceholderReason,
			Willingness:   defaultWillingness,
		},
		Analysis: model.DefaultAnalysis(),
		Feedback: model.MessageFeedback{
			Rating:   defaultRating,
			Feedback: PlaceholderFeedback,
			Impact:   defaultImpact,
		},
	}
}

func FallbackAnalysis() model.AnalysisResult {
	return model.DefaultAnalysis()
}
