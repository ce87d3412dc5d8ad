package model

import (
	"errors"
	"strings"
	"time"
)

var ErrEmptyMessage = errors.New("message content is empty")

// SessionStats accumulates per-conversation signals used for achievements.
type SessionStats struct {
	MaxRapport  int  `json:"maxRapport"`
	MinRapport  int  `json:"minRapport"`
	HappyTurns  int  `json:"happyTurns"`
	DroppedLow  bool `json:"droppedLow"`
	HadComeback bool `json:"hadComeback"`
}

const (
	comebackLow  = 30
	comebackHigh = 60
)

func (s *SessionStats) observe(e EmotionState) {
	if e.Rapport > s.MaxRapport {
		s.MaxRapport = e.Rapport
	}
	if e.Rapport < s.MinRapport {
		s.MinRapport = e.Rapport
	}
	if e.Emotion == EmotionHappy {
		s.HappyTurns++
	}
	if e.Rapport <= comebackLow {
		s.DroppedLow = true
	}
	if s.DroppedLow && e.Rapport >= comebackHigh {
		s.HadComeback = true
	}
}

// ConversationState is the per-conversation record. Messages only ever grow;
// ID is assigned at construction and never changes. Callers that need to
// discard a failed mutation work on a Clone.
type ConversationState struct {
	ID              string         `json:"id"`
	ScenarioID      string         `json:"scenarioId"`
	Messages        []Message      `json:"messages"`
	Emotion         EmotionState   `json:"emotionState"`
	Analysis        AnalysisResult `json:"analysis"`
	TurnCount       int            `json:"turnCount"`
	SuggestionUsage int            `json:"suggestionUsage"`
	Session         SessionStats   `json:"session"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func NewConversationState(id, scenarioID string, now time.Time) *ConversationState {
	emotion := DefaultEmotionState()
	return &ConversationState{
		ID:         id,
		ScenarioID: scenarioID,
		Messages:   []Message{},
		Emotion:    emotion,
		Analysis:   DefaultAnalysis(),
		Session:    SessionStats{MaxRapport: emotion.Rapport, MinRapport: emotion.Rapport},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AppendUserMessage appends a user message and advances the turn counter.
func (s *ConversationState) AppendUserMessage(text string, now time.Time) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: text, Timestamp: now})
	s.TurnCount++
	s.UpdatedAt = now
	return nil
}

// AppendAssistantTurn appends the counterpart reply and replaces the current
// emotion and analysis.
func (s *ConversationState) AppendAssistantTurn(message string, emotion EmotionState, analysis AnalysisResult, now time.Time) {
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: message, Timestamp: now})
	s.Emotion = emotion.Normalize()
	s.Analysis = analysis
	s.Session.observe(s.Emotion)
	s.UpdatedAt = now
}

// UserMessages returns the content of every user-authored message in order.
func (s *ConversationState) UserMessages() []string {
	return UserContents(s.Messages)
}

// Clone returns a deep copy.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	c.Analysis = s.Analysis.Clone()
	return &c
}

func (a AnalysisResult) Clone() AnalysisResult {
	return AnalysisResult{
		NegotiationScore: a.NegotiationScore,
		Strengths:        cloneStrings(a.Strengths),
		Weaknesses:       cloneStrings(a.Weaknesses),
		Suggestions:      cloneStrings(a.Suggestions),
		Tactics:          cloneStrings(a.Tactics),
	}
}

// UserContents extracts user-authored contents from any history.
func UserContents(history []Message) []string {
	out := []string{}
	for _, m := range history {
		if m.Role == RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
