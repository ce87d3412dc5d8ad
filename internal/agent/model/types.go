package model

import (
	"strings"
	"time"
)

// ================ Scenario ================

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// CounterpartProfile describes the AI-controlled negotiation party.
type CounterpartProfile struct {
	Role             string `json:"role"`
	Personality      string `json:"personality"`
	Goals            string `json:"goals"`
	Constraints      string `json:"constraints"`
	StartingPosition string `json:"startingPosition"`
}

// Scenario is an immutable catalog entry.
type Scenario struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Difficulty  Difficulty         `json:"difficulty"`
	Category    string             `json:"category"`
	Counterpart CounterpartProfile `json:"counterpart"`
	UserGoals   []string           `json:"userGoals"`
	Tips        []string           `json:"tips"`
}

// ================ Messages ================

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is immutable once appended; its index in the history is its turn order.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ================ Emotion ================

type Emotion string

const (
	EmotionHappy      Emotion = "happy"
	EmotionNeutral    Emotion = "neutral"
	EmotionConcerned  Emotion = "concerned"
	EmotionFrustrated Emotion = "frustrated"
	EmotionAngry      Emotion = "angry"
)

// Emotions lists every recognised emotion in declaration order.
var Emotions = []Emotion{EmotionHappy, EmotionNeutral, EmotionConcerned, EmotionFrustrated, EmotionAngry}

// ParseEmotion returns the matching emotion or neutral for anything unrecognised.
func ParseEmotion(v string) Emotion {
	e := Emotion(strings.ToLower(strings.TrimSpace(v)))
	for _, known := range Emotions {
		if e == known {
			return e
		}
	}
	return EmotionNeutral
}

type EmotionState struct {
	Rapport       int     `json:"rapport"`
	Emotion       Emotion `json:"emotion"`
	EmotionReason string  `json:"emotionReason"`
	Willingness   int     `json:"willingness"`
}

// DefaultEmotionState is the state every conversation starts from.
func DefaultEmotionState() EmotionState {
	return EmotionState{
		Rapport:       50,
		Emotion:       EmotionNeutral,
		EmotionReason: "The conversation has just started.",
		Willingness:   50,
	}
}

// Normalize clamps numerics into [0,100] and replaces an unknown emotion with neutral.
func (e EmotionState) Normalize() EmotionState {
	e.Rapport = ClampPercent(e.Rapport)
	e.Willingness = ClampPercent(e.Willingness)
	e.Emotion = ParseEmotion(string(e.Emotion))
	return e
}

// ================ Analysis ================

type AnalysisResult struct {
	NegotiationScore int      `json:"negotiationScore"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	Suggestions      []string `json:"suggestions"`
	Tactics          []string `json:"tactics"`
}

func DefaultAnalysis() AnalysisResult {
	return AnalysisResult{
		NegotiationScore: 50,
		Strengths:        []string{},
		Weaknesses:       []string{},
		Suggestions:      []string{},
		Tactics:          []string{},
	}
}

// ================ Feedback ================

type MessageRating string

const (
	RatingExcellent MessageRating = "excellent"
	RatingGood      MessageRating = "good"
	RatingFair      MessageRating = "fair"
	RatingPoor      MessageRating = "poor"
)

var MessageRatings = []MessageRating{RatingExcellent, RatingGood, RatingFair, RatingPoor}

type MessageImpact string

const (
	ImpactPositive MessageImpact = "positive"
	ImpactNeutral  MessageImpact = "neutral"
	ImpactNegative MessageImpact = "negative"
)

var MessageImpacts = []MessageImpact{ImpactPositive, ImpactNeutral, ImpactNegative}

// MessageFeedback grades a single user turn. It is returned once and never stored.
type MessageFeedback struct {
	Rating   MessageRating `json:"rating"`
	Feedback string        `json:"feedback"`
	Impact   MessageImpact `json:"impact"`
}

// ================ Suggestions ================

type Suggestion struct {
	Text     string `json:"text"`
	Approach string `json:"approach"`
}

// SuggestionSetSize is the number of suggestions a successful generation yields.
const SuggestionSetSize = 3

// ================ Turn ================

// TurnPayload is everything one backend call returns for a counterpart turn.
type TurnPayload struct {
	Message  string          `json:"message"`
	Emotion  EmotionState    `json:"emotionState"`
	Analysis AnalysisResult  `json:"analysis"`
	Feedback MessageFeedback `json:"messageFeedback"`
}

// ClampPercent limits v to [0,100].
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
