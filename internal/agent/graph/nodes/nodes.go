package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/negotiation-sim/server/internal/agent/graph/conversations"
	"github.com/negotiation-sim/server/internal/agent/graph/prompts"
	"github.com/negotiation-sim/server/internal/agent/model"
	logx "github.com/negotiation-sim/server/pkg/logger"
)

const (
	NodePromptAssembler = "PromptAssembler"
	NodeChatModel       = "NegotiationChatModel"
)

// NewPromptAssemblerPreHandler records which conversation and mode the run serves.
func NewPromptAssemblerPreHandler() func(context.Context, model.GenerationRequest, *model.GenerationState) (model.GenerationRequest, error) {
	return func(ctx context.Context, in model.GenerationRequest, s *model.GenerationState) (model.GenerationRequest, error) {
		s.ConversationID = in.ConversationID
		s.Mode = in.Mode
		return in, nil
	}
}

// NewPromptAssemblerNode renders the prompt for the request's mode and lays
// it out as chat messages. Rendering happens inside the graph so prompt
// callbacks observe it.
func NewPromptAssemblerNode(builder *prompts.Builder) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, req model.GenerationRequest) ([]*schema.Message, error) {
		scenario := req.Scenario
		switch req.Mode {
		case model.ModeTurn:
			turn, err := builder.BuildTurnPrompt(ctx, scenario, scenario.Counterpart)
			if err != nil {
				return nil, fmt.Errorf("build turn prompt: %w", err)
			}
			return conversations.BuildMessages(turn.Segments(), req.History, prompts.OpeningSeed), nil

		case model.ModeSuggestion:
			text, err := builder.BuildSuggestionPrompt(ctx, scenario, scenario.Counterpart, req.History)
			if err != nil {
				return nil, fmt.Errorf("build suggestion prompt: %w", err)
			}
			return []*schema.Message{schema.UserMessage(text)}, nil

		case model.ModeAnalysis:
			text, err := builder.BuildAnalysisPrompt(ctx, scenario, req.History)
			if err != nil {
				return nil, fmt.Errorf("build analysis prompt: %w", err)
			}
			return []*schema.Message{schema.UserMessage(text)}, nil

		default:
			return nil, fmt.Errorf("unknown generation mode %q", req.Mode)
		}
	})
}

// NewChatModelPreHandler keeps the outgoing prompt for usage estimation.
func NewChatModelPreHandler() func(context.Context, []*schema.Message, *model.GenerationState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.GenerationState) ([]*schema.Message, error) {
		state.Prompt = in
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("mode", string(state.Mode)).
			Int("messages", len(in)).
			Msg("AI thinking...")
		return in, nil
	}
}

// NewChatModelPostHandler computes and logs usage cost for the chat model.
func NewChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.GenerationState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.GenerationState) (*schema.Message, error) {
		if out == nil {
			return out, nil
		}
		usage := UsageOf(out, state.Prompt)
		pricing := model.ResolvePricing(modelName)
		inC, outC, totalC := model.ComputeCost(usage, pricing)

		state.Usage = usage
		state.CostUSD += totalC

		if out.Extra == nil {
			out.Extra = map[string]any{}
		}
		out.Extra["usage_cost"] = map[string]any{
			"currency":          "USD",
			"model":             modelName,
			"prompt_tokens":     usage.PromptTokens,
			"completion_tokens": usage.CompletionTokens,
			"total_tokens":      usage.Total(),
			"estimated":         usage.Estimated,
			"input_cost":        inC,
			"output_cost":       outC,
			"total_cost":        totalC,
		}

		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("node", NodeChatModel).
			Str("mode", string(state.Mode)).
			Str("model", modelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Int("total_tokens", usage.Total()).
			Bool("estimated", usage.Estimated).
			Float64("input_cost_usd", inC).
			Float64("output_cost_usd", outC).
			Float64("total_cost_usd", totalC).
			Msg("LLM usage")

		return out, nil
	}
}
