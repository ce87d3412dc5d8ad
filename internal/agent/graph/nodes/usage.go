package nodes

import (
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/tiktoken-go/tokenizer"

	"github.com/negotiation-sim/server/internal/agent/model"
	logx "github.com/negotiation-sim/server/pkg/logger"
)

// Token overhead per chat message, following the cl100k chat accounting.
const (
	tokensPerMessage = 3
	tokensPerRole    = 1
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

func getCodec() tokenizer.Codec {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err != nil {
			logx.Warn().Err(err).Msg("tokenizer unavailable, falling back to length heuristic")
			return
		}
		codec = c
	})
	return codec
}

// EstimateTokens approximates the token count of text. Gemini does not use
// cl100k, so the result is only an estimate.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	if c := getCodec(); c != nil {
		if ids, _, err := c.Encode(text); err == nil {
			return len(ids)
		}
	}
	return (len(text) + 3) / 4
}

// UsageOf returns the usage reported in out's response metadata, or an
// estimate over the prompt and completion when the backend reported none.
func UsageOf(out *schema.Message, prompt []*schema.Message) model.Usage {
	if out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		u := out.ResponseMeta.Usage
		if u.PromptTokens > 0 || u.CompletionTokens > 0 {
			return model.Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens}
		}
	}

	usage := model.Usage{Estimated: true}
	for _, m := range prompt {
		if m == nil {
			continue
		}
		usage.PromptTokens += tokensPerMessage + tokensPerRole + EstimateTokens(m.Content)
	}
	if out != nil {
		usage.CompletionTokens = EstimateTokens(out.Content)
	}
	return usage
}
