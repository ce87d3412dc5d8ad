package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negotiation-sim/server/internal/agent/catalog"
	"github.com/negotiation-sim/server/internal/agent/graph"
	"github.com/negotiation-sim/server/internal/agent/model"
	"github.com/negotiation-sim/server/internal/agent/repo"
	errx "github.com/negotiation-sim/server/internal/core/error"
)

type fakeNegotiator struct {
	lastScenarioID string
	lastHistory    []model.Message
	err            error
}

func (f *fakeNegotiator) StartConversation(_ context.Context, scenarioID string) (*graph.StartResult, error) {
	f.lastScenarioID = scenarioID
	if f.err != nil {
		return nil, f.err
	}
	if scenarioID == "" {
		return nil, errx.InvalidRequest("scenarioId is required")
	}
	return &graph.StartResult{ConversationID: "conv_1", InitialMessage: "Hello.", EmotionState: model.DefaultEmotionState()}, nil
}

func (f *fakeNegotiator) SubmitMessage(_ context.Context, conversationID, text, scenarioID string) (*graph.TurnResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &graph.TurnResult{ConversationID: conversationID, AIMessage: "echo: " + text, StarRating: 3}, nil
}

func (f *fakeNegotiator) RequestSuggestions(_ context.Context, _, scenarioID string) (*graph.SuggestionResult, error) {
	f.lastScenarioID = scenarioID
	return &graph.SuggestionResult{Suggestions: []model.Suggestion{}, RemainingUses: 0}, nil
}

func (f *fakeNegotiator) AcceptSuggestion(context.Context, string) (int, error) {
	return 2, nil
}

func (f *fakeNegotiator) SuggestForHistory(_ context.Context, history []model.Message, scenarioID string) ([]model.Suggestion, error) {
	f.lastHistory = history
	f.lastScenarioID = scenarioID
	return []model.Suggestion{{Text: "a", Approach: "x"}, {Text: "b", Approach: "y"}, {Text: "c", Approach: "z"}}, nil
}

func (f *fakeNegotiator) AnalyzeStandalone(_ context.Context, history []model.Message, _ string) (model.AnalysisResult, error) {
	if len(history) == 0 {
		return model.AnalysisResult{}, errx.InvalidRequest("conversationHistory is required")
	}
	return model.DefaultAnalysis(), nil
}

func (f *fakeNegotiator) EndConversation(_ context.Context, conversationID, _ string) (*graph.EndResult, error) {
	return &graph.EndResult{ConversationID: conversationID, StarRating: 4}, nil
}

func newTestServer(t *testing.T, neg Negotiator, history model.HistorySink) http.Handler {
	t.Helper()
	srv, err := New(Config{Addr: ":0", RequestTimeout: "5s"}, neg, catalog.Default(), history)
	require.NoError(t, err)
	return srv.Router
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthAndRequestID(t *testing.T) {
	h := newTestServer(t, &fakeNegotiator{}, nil)

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestScenarioRoutes(t *testing.T) {
	h := newTestServer(t, &fakeNegotiator{}, nil)

	var all []model.Scenario
	rec := do(t, h, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &all)
	assert.Len(t, all, 8)

	var one model.Scenario
	rec = do(t, h, http.MethodGet, "/api/scenarios/vendor-contract", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &one)
	assert.Equal(t, model.DifficultyHard, one.Difficulty)

	rec = do(t, h, http.MethodGet, "/api/scenarios/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var daily []model.Scenario
	rec = do(t, h, http.MethodGet, "/api/scenarios/category/daily-life", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &daily)
	assert.Len(t, daily, 3)

	var easy []model.Scenario
	rec = do(t, h, http.MethodGet, "/api/scenarios/difficulty/EASY", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &easy)
	assert.Len(t, easy, 4)
}

func TestConversationRoutes(t *testing.T) {
	neg := &fakeNegotiator{}
	h := newTestServer(t, neg, nil)

	rec := do(t, h, http.MethodPost, "/api/conversation/start", startRequest{ScenarioID: "salary-negotiation"})
	require.Equal(t, http.StatusOK, rec.Code)
	var start graph.StartResult
	decodeBody(t, rec, &start)
	assert.Equal(t, "conv_1", start.ConversationID)
	assert.Equal(t, "salary-negotiation", neg.lastScenarioID)

	rec = do(t, h, http.MethodPost, "/api/conversation/start", startRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/conversation/message", messageRequest{ConversationID: "conv_1", Message: "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "scenarioId is required")

	rec = do(t, h, http.MethodPost, "/api/conversation/message", messageRequest{ConversationID: "conv_1", Message: "hi", ScenarioID: "salary-negotiation"})
	require.Equal(t, http.StatusOK, rec.Code)
	var turn graph.TurnResult
	decodeBody(t, rec, &turn)
	assert.Equal(t, "echo: hi", turn.AIMessage)

	rec = do(t, h, http.MethodPost, "/api/conversation/suggestions", suggestionsRequest{ConversationID: "conv_1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/conversation/suggestions", suggestionsRequest{ConversationID: "conv_1", ScenarioID: "salary-negotiation"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "salary-negotiation", neg.lastScenarioID)
	var throttled map[string]any
	decodeBody(t, rec, &throttled)
	assert.Equal(t, []any{}, throttled["suggestions"])
	assert.Equal(t, float64(0), throttled["remainingUses"])

	history := []model.Message{{Role: model.RoleUser, Content: "Would you take less?"}}
	rec = do(t, h, http.MethodPost, "/api/conversation/suggestions", suggestionsRequest{ConversationHistory: history, ScenarioID: "second-hand-deal"})
	require.Equal(t, http.StatusOK, rec.Code)
	var stateless map[string]any
	decodeBody(t, rec, &stateless)
	assert.Len(t, stateless["suggestions"], 3)
	assert.NotContains(t, stateless, "remainingUses")
	assert.Equal(t, "Would you take less?", neg.lastHistory[0].Content)

	rec = do(t, h, http.MethodPost, "/api/conversation/suggestions/accept", acceptRequest{ConversationID: "conv_1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"remainingUses": 2}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/conversation/analyze", analyzeRequest{ScenarioID: "salary-negotiation"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/conversation/analyze", analyzeRequest{ConversationHistory: history, ScenarioID: "salary-negotiation"})
	require.Equal(t, http.StatusOK, rec.Code)
	var analysis analyzeResponse
	decodeBody(t, rec, &analysis)
	assert.Equal(t, 50, analysis.Analysis.NegotiationScore)

	rec = do(t, h, http.MethodPost, "/api/conversation/end", endRequest{ConversationID: "conv_1", UserID: "user-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var end graph.EndResult
	decodeBody(t, rec, &end)
	assert.Equal(t, 4, end.StarRating)
}

func TestMalformedBody(t *testing.T) {
	h := newTestServer(t, &fakeNegotiator{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/conversation/start", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"generation failed", errx.GenerationFailed(errors.New("dial tcp: refused")), http.StatusInternalServerError, errx.GenerationFailedMessage},
		{"conversation not found", errx.ConversationNotFound("conv_x"), http.StatusNotFound, "conversation not found"},
		{"scenario not found", errx.ScenarioNotFound("x"), http.StatusNotFound, "scenario not found"},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, errx.SystemErrorMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t, &fakeNegotiator{err: tc.err}, nil)
			rec := do(t, h, http.MethodPost, "/api/conversation/message", messageRequest{ConversationID: "conv_1", Message: "hi", ScenarioID: "s"})
			assert.Equal(t, tc.status, rec.Code)
			var body errorResponse
			decodeBody(t, rec, &body)
			assert.Equal(t, tc.body, body.Error)
			assert.NotContains(t, rec.Body.String(), "refused")
		})
	}
}

func TestHistoryRoutes(t *testing.T) {
	h := newTestServer(t, &fakeNegotiator{}, nil)
	rec := do(t, h, http.MethodGet, "/api/history?userId=user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	store, err := repo.NewSQLiteHistoryStore("file:serverhistory?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.SaveConversation(context.Background(), "user-1", model.ConversationRecord{
		ConversationID: "conv_1",
		ScenarioID:     "salary-negotiation",
		ScenarioTitle:  "Salary Negotiation",
		Category:       "career",
		Messages:       []model.Message{},
		Analysis:       model.DefaultAnalysis(),
		EmotionState:   model.DefaultEmotionState(),
		FinalScore:     70,
		StarRating:     3,
		Turns:          4,
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	h = newTestServer(t, &fakeNegotiator{}, store)

	rec = do(t, h, http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/history?userId=user-1&limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var list []model.ConversationRecord
	rec = do(t, h, http.MethodGet, "/api/history?userId=user-1&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "conv_1", list[0].ConversationID)

	var stats model.UserStats
	rec = do(t, h, http.MethodGet, "/api/history/stats?userId=user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &stats)
	assert.Equal(t, 1, stats.TotalConversations)
	assert.Equal(t, 70, stats.AverageScore)
	assert.Equal(t, 1, stats.CategoryCompletions["career"])
}

func TestNewRejectsBadTimeout(t *testing.T) {
	_, err := New(Config{RequestTimeout: "soon"}, &fakeNegotiator{}, catalog.Default(), nil)
	assert.Error(t, err)
}
