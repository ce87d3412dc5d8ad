package nodes

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negotiation-sim/server/internal/agent/model"
)

func TestChatModelConfigValidation(t *testing.T) {
	_, err := NewChatModel(context.Background(), ChatModelConfig{RespConfig: &model.ResponseModelConfig{}})
	assert.Error(t, err)

	_, err = NewChatModel(context.Background(), ChatModelConfig{APIKey: "k"})
	assert.Error(t, err)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	short := EstimateTokens("hello")
	long := EstimateTokens("hello there, I would like to discuss my salary for the coming year")
	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
}

func TestUsageOfReported(t *testing.T) {
	out := &schema.Message{
		Role:    schema.Assistant,
		Content: "{}",
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150},
		},
	}
	u := UsageOf(out, nil)
	assert.Equal(t, model.Usage{PromptTokens: 120, CompletionTokens: 30}, u)
	assert.Equal(t, 150, u.Total())
}

func TestUsageOfEstimated(t *testing.T) {
	prompt := []*schema.Message{schema.SystemMessage("You are a landlord."), nil, schema.UserMessage("Lower the rent?")}
	u := UsageOf(schema.AssistantMessage("No.", nil), prompt)

	assert.True(t, u.Estimated)
	assert.Greater(t, u.PromptTokens, 2*(tokensPerMessage+tokensPerRole))
	assert.Greater(t, u.CompletionTokens, 0)
}

func TestChatModelHandlers(t *testing.T) {
	ctx := context.Background()
	state := &model.GenerationState{}

	req, err := NewPromptAssemblerPreHandler()(ctx, model.GenerationRequest{ConversationID: "conv_1", Mode: model.ModeTurn}, state)
	require.NoError(t, err)
	assert.Equal(t, "conv_1", req.ConversationID)
	assert.Equal(t, model.ModeTurn, state.Mode)

	prompt := []*schema.Message{schema.UserMessage("hi")}
	_, err = NewChatModelPreHandler()(ctx, prompt, state)
	require.NoError(t, err)
	assert.Equal(t, prompt, state.Prompt)

	out := &schema.Message{
		Role:         schema.Assistant,
		Content:      "hello",
		ResponseMeta: &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000}},
	}
	got, err := NewChatModelPostHandler("gemini-2.5-flash")(ctx, out, state)
	require.NoError(t, err)
	assert.InDelta(t, 2.80, state.CostUSD, 1e-9)
	assert.Equal(t, 1_000_000, state.Usage.PromptTokens)
	require.Contains(t, got.Extra, "usage_cost")
}
