package graph

import (
	"context"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/negotiation-sim/server/internal/agent/graph/nodes"
	"github.com/negotiation-sim/server/internal/agent/graph/observers"
	"github.com/negotiation-sim/server/internal/agent/graph/prompts"
	"github.com/negotiation-sim/server/internal/agent/model"
	errx "github.com/negotiation-sim/server/internal/core/error"
	logx "github.com/negotiation-sim/server/pkg/logger"
)

const (
	graphName         = "NegotiationGeneration"
	defaultGenTimeout = 30 * time.Second
	tracerName        = "github.com/negotiation-sim/server/internal/agent/graph"
	maxGraphRunSteps  = 10
)

// Generator performs exactly one backend call and returns its raw text.
// Every failure is reported as errx.ErrGenerationFailed.
type Generator interface {
	Generate(ctx context.Context, req model.GenerationRequest) (string, error)
}

// Config holds everything needed to build a Gemini-backed Generator end-to-end.
type Config struct {
	APIKey        string
	BaseURL       string
	ResponseModel model.ResponseModelConfig
	Generation    model.GenerationConfig
	Prompt        model.PromptConfig
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModel einomodel.BaseChatModel
	ModelName string
	Prompts   *prompts.Builder
	Timeout   time.Duration
}

// GraphBuilder handles the construction of the generation graph
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.GenerationRequest, *schema.Message]
}

type graphRunner struct {
	runnable compose.Runnable[model.GenerationRequest, *schema.Message]
	timeout  time.Duration
	tracer   trace.Tracer
}

func (r *graphRunner) Generate(ctx context.Context, req model.GenerationRequest) (string, error) {
	ctx, span := r.tracer.Start(ctx, "negotiation.generate", trace.WithAttributes(
		attribute.String("conversation.id", req.ConversationID),
		attribute.String("generation.mode", string(req.Mode)),
		attribute.String("scenario.id", req.Scenario.ID),
		attribute.Int("history.length", len(req.History)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	out, err := r.runnable.Invoke(ctx, req, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		logx.Error().
			Err(err).
			Str("conversation_id", req.ConversationID).
			Str("mode", string(req.Mode)).
			Dur("elapsed", time.Since(start)).
			Msg("Backend generation failed")
		return "", errx.GenerationFailed(err)
	}
	if out == nil {
		return "", nil
	}
	span.SetAttributes(attribute.Int("response.length", len(out.Content)))
	return out.Content, nil
}

// BuildGenerator creates the Gemini chat model and compiles the generation graph around it.
func BuildGenerator(ctx context.Context, cfg Config) (Generator, error) {
	chatModel, err := nodes.NewChatModel(ctx, nodes.ChatModelConfig{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		RespConfig: &cfg.ResponseModel,
	})
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(cfg.Generation.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid generation timeout %q: %w", cfg.Generation.Timeout, err)
	}

	return NewGenerator(ctx, &GraphConfig{
		ChatModel: chatModel,
		ModelName: cfg.ResponseModel.Model,
		Prompts:   prompts.NewBuilder(cfg.Prompt),
		Timeout:   timeout,
	})
}

// NewGenerator compiles the generation graph for an already constructed chat model.
func NewGenerator(ctx context.Context, config *GraphConfig) (Generator, error) {
	runnable, err := BuildGraph(ctx, config)
	if err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultGenTimeout
	}
	logx.Debug().Dur("timeout", timeout).Msg("Generation graph built successfully")
	return &graphRunner{
		runnable: runnable,
		timeout:  timeout,
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// BuildGraph constructs and returns the compiled generation graph:
// START -> PromptAssembler -> NegotiationChatModel -> END.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.GenerationRequest, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil {
		return nil, fmt.Errorf("chat model is not initialized")
	}
	if config.Prompts == nil {
		return nil, fmt.Errorf("prompt builder is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.GenerationRequest, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.GenerationState {
				return &model.GenerationState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	if err := b.graph.AddLambdaNode(nodes.NodePromptAssembler,
		nodes.NewPromptAssemblerNode(b.config.Prompts),
		compose.WithStatePreHandler(nodes.NewPromptAssemblerPreHandler()),
	); err != nil {
		return fmt.Errorf("add %s node: %w", nodes.NodePromptAssembler, err)
	}

	if err := b.graph.AddChatModelNode(nodes.NodeChatModel,
		b.config.ChatModel,
		compose.WithStatePreHandler(nodes.NewChatModelPreHandler()),
		compose.WithStatePostHandler(nodes.NewChatModelPostHandler(b.config.ModelName)),
	); err != nil {
		return fmt.Errorf("add %s node: %w", nodes.NodeChatModel, err)
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodePromptAssembler},
		{nodes.NodePromptAssembler, nodes.NodeChatModel},
		{nodes.NodeChatModel, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.GenerationRequest, *schema.Message], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName(graphName),
		compose.WithMaxRunSteps(maxGraphRunSteps),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
