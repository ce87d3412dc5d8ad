package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/negotiation-sim/server/internal/agent/model"
	errx "github.com/negotiation-sim/server/internal/core/error"
)

type handler struct {
	negotiator Negotiator
	catalog    Catalog
	history    model.HistorySink
	now        func() time.Time
}

type startRequest struct {
	ScenarioID string `json:"scenarioId"`
}

type messageRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
	ScenarioID     string `json:"scenarioId"`
}

type suggestionsRequest struct {
	ConversationID      string          `json:"conversationId"`
	ConversationHistory []model.Message `json:"conversationHistory"`
	ScenarioID          string          `json:"scenarioId"`
}

type suggestionsResponse struct {
	Suggestions   []model.Suggestion `json:"suggestions"`
	RemainingUses *int               `json:"remainingUses,omitempty"`
}

type acceptRequest struct {
	ConversationID string `json:"conversationId"`
}

type analyzeRequest struct {
	ConversationHistory []model.Message `json:"conversationHistory"`
	ScenarioID          string          `json:"scenarioId"`
}

type analyzeResponse struct {
	Analysis  model.AnalysisResult `json:"analysis"`
	Timestamp time.Time            `json:"timestamp"`
}

type endRequest struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "timestamp": h.now()})
}

// ---- scenarios ----

func (h *handler) listScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.List())
}

func (h *handler) getScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := h.catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *handler) scenariosByCategory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.ByCategory(chi.URLParam(r, "category")))
}

func (h *handler) scenariosByDifficulty(w http.ResponseWriter, r *http.Request) {
	d := model.Difficulty(strings.ToLower(chi.URLParam(r, "difficulty")))
	writeJSON(w, http.StatusOK, h.catalog.ByDifficulty(d))
}

// ---- conversation ----

func (h *handler) startConversation(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.negotiator.StartConversation(r.Context(), req.ScenarioID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) submitMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ScenarioID) == "" {
		writeError(w, r, errx.InvalidRequest("scenarioId is required"))
		return
	}
	res, err := h.negotiator.SubmitMessage(r.Context(), req.ConversationID, req.Message, req.ScenarioID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// suggestions takes the throttled path for a stored conversation and the
// stateless path for a caller-held transcript.
func (h *handler) suggestions(w http.ResponseWriter, r *http.Request) {
	var req suggestionsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.ConversationID != "" {
		if strings.TrimSpace(req.ScenarioID) == "" {
			writeError(w, r, errx.InvalidRequest("scenarioId is required"))
			return
		}
		res, err := h.negotiator.RequestSuggestions(r.Context(), req.ConversationID, req.ScenarioID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		remaining := res.RemainingUses
		writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: res.Suggestions, RemainingUses: &remaining})
		return
	}

	out, err := h.negotiator.SuggestForHistory(r.Context(), req.ConversationHistory, req.ScenarioID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: out})
}

func (h *handler) acceptSuggestion(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	remaining, err := h.negotiator.AcceptSuggestion(r.Context(), req.ConversationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"remainingUses": remaining})
}

func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	analysis, err := h.negotiator.AnalyzeStandalone(r.Context(), req.ConversationHistory, req.ScenarioID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Analysis: analysis, Timestamp: h.now()})
}

func (h *handler) endConversation(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.negotiator.EndConversation(r.Context(), req.ConversationID, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ---- history ----

func (h *handler) listHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.historyUser(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, errx.InvalidRequest("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	list, err := h.history.ListConversations(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) historyStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.historyUser(w, r)
	if !ok {
		return
	}
	stats, err := h.history.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handler) historyUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.history == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "history is not enabled"})
		return "", false
	}
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeError(w, r, errx.InvalidRequest("userId is required"))
		return "", false
	}
	return userID, true
}
