package model

import "github.com/cloudwego/eino/schema"

// GenerationMode selects the prompt variant and extraction contract of a backend call.
type GenerationMode string

const (
	ModeTurn       GenerationMode = "turn"
	ModeSuggestion GenerationMode = "suggestion"
	ModeAnalysis   GenerationMode = "analysis"
)

// GenerationRequest is the input of the generation graph. ConversationID is
// empty for stateless calls.
type GenerationRequest struct {
	ConversationID string
	Mode           GenerationMode
	Scenario       Scenario
	History        []Message
}

// GenerationState is the graph-local state of a single generation run.
type GenerationState struct {
	ConversationID string
	Mode           GenerationMode
	Prompt         []*schema.Message
	Usage          Usage
	CostUSD        float64
}
