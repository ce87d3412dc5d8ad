package model

import (
	"context"
	"time"
)

// ConversationRepository owns live ConversationState records keyed by id.
// Load returns errx.ErrConversationNotFound for unknown ids. Implementations
// store and return copies, so a state loaded by one caller is never mutated
// by another.
type ConversationRepository interface {
	// Create stores a brand new conversation
	Create(ctx context.Context, state *ConversationState) error

	// Load retrieves the conversation state
	Load(ctx context.Context, conversationID string) (*ConversationState, error)

	// Save replaces the stored state; the stored message list is only ever extended
	Save(ctx context.Context, state *ConversationState) error

	// Delete removes the conversation
	Delete(ctx context.Context, conversationID string) error
}

// ConversationRecord is a finished conversation handed to a HistorySink.
type ConversationRecord struct {
	ConversationID string         `json:"conversationId"`
	ScenarioID     string         `json:"scenarioId"`
	ScenarioTitle  string         `json:"scenarioTitle"`
	Category       string         `json:"category"`
	Messages       []Message      `json:"messages"`
	Analysis       AnalysisResult `json:"analysis"`
	EmotionState   EmotionState   `json:"emotionState"`
	FinalScore     int            `json:"finalScore"`
	StarRating     int            `json:"starRating"`
	Turns          int            `json:"turns"`
	Session        SessionStats   `json:"session"`
	Duration       time.Duration  `json:"duration"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// UserStats aggregates a user's finished conversations.
type UserStats struct {
	TotalConversations  int            `json:"totalConversations"`
	TotalMessages       int            `json:"totalMessages"`
	AverageScore        int            `json:"averageScore"`
	MaxTurns            int            `json:"maxTurns"`
	HasFiveStar         bool           `json:"hasFiveStar"`
	MaxRapport          int            `json:"maxRapport"`
	HappyTurns          int            `json:"happyTurns"`
	HadComeback         bool           `json:"hadComeback"`
	CategoryCompletions map[string]int `json:"categoryCompletions"`
	LastActivity        *time.Time     `json:"lastActivity"`
}

// HistorySink persists finished conversations. It is optional.
type HistorySink interface {
	SaveConversation(ctx context.Context, userID string, record ConversationRecord) error
	ListConversations(ctx context.Context, userID string, limit int) ([]ConversationRecord, error)
	Stats(ctx context.Context, userID string) (UserStats, error)
}

// ScenarioCatalog resolves scenario ids. Get returns errx.ErrScenarioNotFound
// for unknown ids.
type ScenarioCatalog interface {
	Get(id string) (Scenario, error)
}
