package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/negotiation-sim/server/internal/agent/catalog"
	"github.com/negotiation-sim/server/internal/agent/graph"
	"github.com/negotiation-sim/server/internal/agent/graph/conversations"
	"github.com/negotiation-sim/server/internal/agent/model"
	"github.com/negotiation-sim/server/internal/agent/repo"
	"github.com/negotiation-sim/server/internal/core"
	"github.com/negotiation-sim/server/internal/server"
	"github.com/negotiation-sim/server/internal/telemetry"
	logx "github.com/negotiation-sim/server/pkg/logger"
	pkgredis "github.com/negotiation-sim/server/pkg/redis"
)

const (
	storeMemory     = "memory"
	storeRedis      = "redis"
	shutdownTimeout = 15 * time.Second
)

// AppConfig defines all configurable parameters of the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config
	HTTP  server.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Response     model.ResponseModelConfig
	Generation   model.GenerationConfig
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig

	// Optional features
	CatalogPath    string `envconfig:"CATALOG_PATH"`
	HistoryPath    string `envconfig:"HISTORY_SQLITE_PATH"`
	TracingEnabled bool   `envconfig:"TRACING_ENABLED" default:"false"`
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to process environment config: %v\n", err)
		os.Exit(1)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logx.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func run(ctx context.Context, cfg AppConfig) error {
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("negotiation-server", nil)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logx.Warn().Err(err).Msg("Tracer shutdown failed")
			}
		}()
	}

	scenarios, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	store, closeStore, err := newConversationStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var history model.HistorySink
	if cfg.HistoryPath != "" {
		sqlite, err := repo.NewSQLiteHistoryStore(cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer sqlite.Close()
		history = sqlite
		logx.Info().Str("path", cfg.HistoryPath).Msg("Conversation history enabled")
	}

	generator, err := graph.BuildGenerator(ctx, graph.Config{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		ResponseModel: cfg.Response,
		Generation:    cfg.Generation,
		Prompt:        cfg.Prompt,
	})
	if err != nil {
		return fmt.Errorf("build generator: %w", err)
	}

	negotiator := graph.NewNegotiator(scenarios, conversations.NewManager(store, cfg.Conversation), generator, history)

	srv, err := server.New(cfg.HTTP, negotiator, scenarios, history)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logx.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	logx.Info().Str("path", path).Int("scenarios", len(c.List())).Msg("Scenario catalog loaded")
	return c, nil
}

func newConversationStore(cfg AppConfig) (model.ConversationRepository, func(), error) {
	switch cfg.Conversation.Store {
	case storeRedis:
		ttl, err := time.ParseDuration(cfg.Conversation.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid CONVERSATION_TTL %q: %w", cfg.Conversation.TTL, err)
		}
		rdb, err := cfg.Redis.New()
		if err != nil {
			return nil, nil, fmt.Errorf("initialise redis client: %w", err)
		}
		logx.Info().Dur("ttl", ttl).Msg("Connected to Redis successfully")
		return repo.NewRedisConversationRepository(rdb, ttl), func() { _ = rdb.Close() }, nil

	case storeMemory, "":
		store, err := repo.NewMemoryConversationRepository(cfg.Conversation.MemoryCapacity)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown CONVERSATION_STORE %q", cfg.Conversation.Store)
	}
}
