package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/negotiation-sim/server/internal/agent/graph"
	"github.com/negotiation-sim/server/internal/agent/model"
	logx "github.com/negotiation-sim/server/pkg/logger"
)

const serviceName = "negotiation-server"

// Config is bound from HTTP_* variables.
type Config struct {
	Addr           string `envconfig:"HTTP_ADDR" default:":3000"`
	RequestTimeout string `envconfig:"HTTP_REQUEST_TIMEOUT" default:"60s"`
}

// Negotiator is the conversation surface the HTTP layer drives.
type Negotiator interface {
	StartConversation(ctx context.Context, scenarioID string) (*graph.StartResult, error)
	SubmitMessage(ctx context.Context, conversationID, text, scenarioID string) (*graph.TurnResult, error)
	RequestSuggestions(ctx context.Context, conversationID, scenarioID string) (*graph.SuggestionResult, error)
	AcceptSuggestion(ctx context.Context, conversationID string) (int, error)
	SuggestForHistory(ctx context.Context, history []model.Message, scenarioID string) ([]model.Suggestion, error)
	AnalyzeStandalone(ctx context.Context, history []model.Message, scenarioID string) (model.AnalysisResult, error)
	EndConversation(ctx context.Context, conversationID, userID string) (*graph.EndResult, error)
}

// Catalog is the read-only scenario listing.
type Catalog interface {
	Get(id string) (model.Scenario, error)
	List() []model.Scenario
	ByCategory(category string) []model.Scenario
	ByDifficulty(d model.Difficulty) []model.Scenario
}

type Server struct {
	Router     *chi.Mux
	httpServer *http.Server
}

// New builds the router. history may be nil, in which case the history
// routes answer 404.
func New(cfg Config, negotiator Negotiator, catalog Catalog, history model.HistorySink) (*Server, error) {
	timeout, err := time.ParseDuration(cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}

	h := &handler{
		negotiator: negotiator,
		catalog:    catalog,
		history:    history,
		now:        func() time.Time { return time.Now().UTC() },
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(TimeoutMiddleware(timeout))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName)
	})

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.listScenarios)
			r.Get("/category/{category}", h.scenariosByCategory)
			r.Get("/difficulty/{difficulty}", h.scenariosByDifficulty)
			r.Get("/{id}", h.getScenario)
		})
		r.Route("/conversation", func(r chi.Router) {
			r.Post("/start", h.startConversation)
			r.Post("/message", h.submitMessage)
			r.Post("/suggestions", h.suggestions)
			r.Post("/suggestions/accept", h.acceptSuggestion)
			r.Post("/analyze", h.analyze)
			r.Post("/end", h.endConversation)
		})
		r.Get("/history", h.listHistory)
		r.Get("/history/stats", h.historyStats)
	})

	return &Server{
		Router: r,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Server) Start() error {
	logx.Info().Str("addr", s.httpServer.Addr).Msg("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

var _ Negotiator = (*graph.Negotiator)(nil)
