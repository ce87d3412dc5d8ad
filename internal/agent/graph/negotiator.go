package graph

import (
	"context"
	"strings"
	"time"

	"github.com/negotiation-sim/server/internal/agent/graph/conversations"
	"github.com/negotiation-sim/server/internal/agent/graph/parsers"
	"github.com/negotiation-sim/server/internal/agent/graph/scoring"
	"github.com/negotiation-sim/server/internal/agent/model"
	errx "github.com/negotiation-sim/server/internal/core/error"
	logx "github.com/negotiation-sim/server/pkg/logger"
)

// Negotiator coordinates conversations: it owns the state lifecycle and
// makes exactly one backend call per operation.
type Negotiator struct {
	catalog   model.ScenarioCatalog
	manager   *conversations.Manager
	generator Generator
	history   model.HistorySink
}

// NewNegotiator wires the orchestrator. history may be nil.
func NewNegotiator(catalog model.ScenarioCatalog, manager *conversations.Manager, generator Generator, history model.HistorySink) *Negotiator {
	return &Negotiator{
		catalog:   catalog,
		manager:   manager,
		generator: generator,
		history:   history,
	}
}

type StartResult struct {
	ConversationID string             `json:"conversationId"`
	Scenario       model.Scenario     `json:"scenario"`
	InitialMessage string             `json:"initialMessage"`
	EmotionState   model.EmotionState `json:"emotionState"`
	Timestamp      time.Time          `json:"timestamp"`
}

type TurnResult struct {
	ConversationID  string                `json:"conversationId"`
	AIMessage       string                `json:"aiMessage"`
	Analysis        model.AnalysisResult  `json:"analysis"`
	EmotionState    model.EmotionState    `json:"emotionState"`
	StarRating      int                   `json:"starRating"`
	MessageFeedback model.MessageFeedback `json:"messageFeedback"`
	Timestamp       time.Time             `json:"timestamp"`
}

type SuggestionResult struct {
	Suggestions []model.Suggestion `json:"suggestions"`
	// RemainingUses is advisory: it is read from an unlocked snapshot.
	// AcceptSuggestion enforces the budget under the conversation lock.
	RemainingUses int `json:"remainingUses"`
}

type EndResult struct {
	ConversationID string                `json:"conversationId"`
	StarRating     int                   `json:"starRating"`
	Analysis       model.AnalysisResult  `json:"analysis"`
	EmotionState   model.EmotionState    `json:"emotionState"`
	Turns          int                   `json:"turns"`
	Achievements   []scoring.Achievement `json:"achievements"`
	Timestamp      time.Time             `json:"timestamp"`
}

// StartConversation creates a conversation for scenarioID and asks the
// counterpart for its opening line. Nothing is stored when generation fails.
func (n *Negotiator) StartConversation(ctx context.Context, scenarioID string) (*StartResult, error) {
	if strings.TrimSpace(scenarioID) == "" {
		return nil, errx.InvalidRequest("scenarioId is required")
	}
	scenario, err := n.catalog.Get(scenarioID)
	if err != nil {
		return nil, err
	}

	state := n.manager.New(scenario.ID)
	raw, err := n.generator.Generate(ctx, model.GenerationRequest{
		ConversationID: state.ID,
		Mode:           model.ModeTurn,
		Scenario:       scenario,
	})
	if err != nil {
		return nil, err
	}

	turn := parsers.ExtractTurn(raw)
	now := n.manager.Now()
	state.AppendAssistantTurn(turn.Value.Message, turn.Value.Emotion, state.Analysis, now)
	if err := n.manager.Create(ctx, state); err != nil {
		return nil, err
	}

	logx.Info().
		Str("conversation_id", state.ID).
		Str("scenario_id", scenario.ID).
		Str("tier", turn.Tier.String()).
		Msg("Conversation started")

	return &StartResult{
		ConversationID: state.ID,
		Scenario:       scenario,
		InitialMessage: turn.Value.Message,
		EmotionState:   state.Emotion,
		Timestamp:      now,
	}, nil
}

// SubmitMessage appends the user's message, asks the counterpart for its reply
// together with the updated emotion, analysis and feedback, and stores the
// result. Calls for the same conversation are serialised; state is only
// written after a successful backend call.
func (n *Negotiator) SubmitMessage(ctx context.Context, conversationID, text, scenarioID string) (*TurnResult, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, errx.InvalidRequest("conversationId is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errx.InvalidRequest("message is required")
	}

	unlock, err := n.manager.Lock(ctx, conversationID)
	if err != nil {
		return nil, errx.GenerationFailed(err)
	}
	defer unlock()

	state, err := n.manager.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if scenarioID != "" && scenarioID != state.ScenarioID {
		return nil, errx.InvalidRequest("scenarioId does not match the conversation")
	}
	scenario, err := n.catalog.Get(state.ScenarioID)
	if err != nil {
		return nil, err
	}

	if err := state.AppendUserMessage(text, n.manager.Now()); err != nil {
		return nil, errx.InvalidRequest(err.Error())
	}

	raw, err := n.generator.Generate(ctx, model.GenerationRequest{
		ConversationID: state.ID,
		Mode:           model.ModeTurn,
		Scenario:       scenario,
		History:        state.Messages,
	})
	if err != nil {
		return nil, err
	}

	turn := parsers.ExtractTurn(raw)
	now := n.manager.Now()
	state.AppendAssistantTurn(turn.Value.Message, turn.Value.Emotion, turn.Value.Analysis, now)
	if err := n.manager.Save(ctx, state); err != nil {
		return nil, err
	}

	stars := scoring.StarRating(state.Analysis, state.Emotion)
	logx.Info().
		Str("conversation_id", state.ID).
		Int("turn", state.TurnCount).
		Int("rapport", state.Emotion.Rapport).
		Str("emotion", string(state.Emotion.Emotion)).
		Int("score", state.Analysis.NegotiationScore).
		Int("stars", stars).
		Str("tier", turn.Tier.String()).
		Msg("Turn completed")

	return &TurnResult{
		ConversationID:  state.ID,
		AIMessage:       turn.Value.Message,
		Analysis:        state.Analysis,
		EmotionState:    state.Emotion,
		StarRating:      stars,
		MessageFeedback: turn.Value.Feedback,
		Timestamp:       now,
	}, nil
}

// RequestSuggestions generates three candidate next messages for the user.
// Once the conversation's suggestion budget is spent it returns an empty set
// without calling the backend.
func (n *Negotiator) RequestSuggestions(ctx context.Context, conversationID, scenarioID string) (*SuggestionResult, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, errx.InvalidRequest("conversationId is required")
	}
	if strings.TrimSpace(scenarioID) == "" {
		return nil, errx.InvalidRequest("scenarioId is required")
	}
	state, err := n.manager.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if scenarioID != state.ScenarioID {
		return nil, errx.InvalidRequest("scenarioId does not match the conversation")
	}

	throttle := n.manager.Throttle()
	if !throttle.MayGenerate(state) {
		logx.Debug().
			Str("conversation_id", conversationID).
			Int("usage", state.SuggestionUsage).
			Msg("Suggestion budget exhausted")
		return &SuggestionResult{Suggestions: []model.Suggestion{}, RemainingUses: 0}, nil
	}

	scenario, err := n.catalog.Get(state.ScenarioID)
	if err != nil {
		return nil, err
	}
	suggestions, err := n.suggest(ctx, conversationID, scenario, state.Messages)
	if err != nil {
		return nil, err
	}
	return &SuggestionResult{Suggestions: suggestions, RemainingUses: throttle.Remaining(state)}, nil
}

// AcceptSuggestion records that the user adopted a suggested text and
// returns the uses left.
func (n *Negotiator) AcceptSuggestion(ctx context.Context, conversationID string) (int, error) {
	if strings.TrimSpace(conversationID) == "" {
		return 0, errx.InvalidRequest("conversationId is required")
	}
	unlock, err := n.manager.Lock(ctx, conversationID)
	if err != nil {
		return 0, errx.GenerationFailed(err)
	}
	defer unlock()

	state, err := n.manager.Load(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	throttle := n.manager.Throttle()
	if !throttle.RecordUsage(state) {
		return 0, errx.InvalidRequest("no suggestion uses remaining")
	}
	if err := n.manager.Save(ctx, state); err != nil {
		return 0, err
	}
	return throttle.Remaining(state), nil
}

// SuggestForHistory generates suggestions for a caller-held transcript. It is
// not tied to a stored conversation and is not throttled.
func (n *Negotiator) SuggestForHistory(ctx context.Context, history []model.Message, scenarioID string) ([]model.Suggestion, error) {
	if strings.TrimSpace(scenarioID) == "" {
		return nil, errx.InvalidRequest("scenarioId is required")
	}
	scenario, err := n.catalog.Get(scenarioID)
	if err != nil {
		return nil, err
	}
	return n.suggest(ctx, "", scenario, history)
}

func (n *Negotiator) suggest(ctx context.Context, conversationID string, scenario model.Scenario, history []model.Message) ([]model.Suggestion, error) {
	raw, err := n.generator.Generate(ctx, model.GenerationRequest{
		ConversationID: conversationID,
		Mode:           model.ModeSuggestion,
		Scenario:       scenario,
		History:        history,
	})
	if err != nil {
		return nil, err
	}
	return parsers.ExtractSuggestions(raw).Value, nil
}

// AnalyzeStandalone evaluates any transcript against scenarioID without
// touching conversation state.
func (n *Negotiator) AnalyzeStandalone(ctx context.Context, history []model.Message, scenarioID string) (model.AnalysisResult, error) {
	if len(history) == 0 {
		return model.AnalysisResult{}, errx.InvalidRequest("conversationHistory is required")
	}
	if strings.TrimSpace(scenarioID) == "" {
		return model.AnalysisResult{}, errx.InvalidRequest("scenarioId is required")
	}
	scenario, err := n.catalog.Get(scenarioID)
	if err != nil {
		return model.AnalysisResult{}, err
	}

	raw, err := n.generator.Generate(ctx, model.GenerationRequest{
		Mode:     model.ModeAnalysis,
		Scenario: scenario,
		History:  history,
	})
	if err != nil {
		return model.AnalysisResult{}, err
	}
	return parsers.ExtractAnalysis(raw).Value, nil
}

// EndConversation finalises a conversation: it computes the final rating,
// hands the record to the history sink, evaluates achievements and removes
// the live state.
func (n *Negotiator) EndConversation(ctx context.Context, conversationID, userID string) (*EndResult, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, errx.InvalidRequest("conversationId is required")
	}
	unlock, err := n.manager.Lock(ctx, conversationID)
	if err != nil {
		return nil, errx.GenerationFailed(err)
	}
	defer unlock()

	state, err := n.manager.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	now := n.manager.Now()
	stars := scoring.StarRating(state.Analysis, state.Emotion)
	record := model.ConversationRecord{
		ConversationID: state.ID,
		ScenarioID:     state.ScenarioID,
		Messages:       state.Messages,
		Analysis:       state.Analysis,
		EmotionState:   state.Emotion,
		FinalScore:     state.Analysis.NegotiationScore,
		StarRating:     stars,
		Turns:          state.TurnCount,
		Session:        state.Session,
		Duration:       now.Sub(state.CreatedAt),
		CreatedAt:      now,
	}
	if scenario, err := n.catalog.Get(state.ScenarioID); err == nil {
		record.ScenarioTitle = scenario.Title
		record.Category = scenario.Category
	}

	achievements := n.finish(ctx, userID, record)

	if err := n.manager.Delete(ctx, conversationID); err != nil {
		return nil, err
	}

	logx.Info().
		Str("conversation_id", conversationID).
		Int("turns", state.TurnCount).
		Int("stars", stars).
		Int("achievements", len(achievements)).
		Msg("Conversation ended")

	return &EndResult{
		ConversationID: conversationID,
		StarRating:     stars,
		Analysis:       state.Analysis,
		EmotionState:   state.Emotion,
		Turns:          state.TurnCount,
		Achievements:   achievements,
		Timestamp:      now,
	}, nil
}

// finish persists the record when a sink and user are present and returns
// the achievements this conversation newly unlocked.
func (n *Negotiator) finish(ctx context.Context, userID string, record model.ConversationRecord) []scoring.Achievement {
	base := scoring.Stats{}
	persist := n.history != nil && strings.TrimSpace(userID) != ""
	if persist {
		stats, err := n.history.Stats(ctx, userID)
		if err != nil {
			logx.Warn().Err(err).Str("user_id", userID).Msg("Error loading user stats, evaluating achievements for this session only")
		} else {
			base = scoring.FromUserStats(stats)
		}
	}

	previous := scoring.IDs(scoring.Unlocked(base))
	achievements := scoring.NewlyUnlocked(previous, scoring.WithConversation(base, record))

	if persist {
		if err := n.history.SaveConversation(ctx, userID, record); err != nil {
			logx.Error().
				Err(err).
				Str("conversation_id", record.ConversationID).
				Str("user_id", userID).
				Msg("Error saving finished conversation")
		}
	}
	return achievements
}
