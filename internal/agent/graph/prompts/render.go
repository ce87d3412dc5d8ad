package prompts

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/negotiation-sim/server/internal/agent/model"
)

const defaultLanguage = "English"

// recentWindow bounds the transcript tail shown to the suggestion coach.
const recentWindow = 6

// Builder renders every prompt the negotiation engine sends to the model.
// Rendering is pure: identical inputs always produce identical text.
type Builder struct {
	language string
}

func NewBuilder(cfg model.PromptConfig) *Builder {
	lang := cfg.Language
	if lang == "" {
		lang = defaultLanguage
	}
	return &Builder{language: lang}
}

func (b *Builder) Language() string { return b.language }

type line struct {
	Speaker string
	Content string
}

// render formats a single Go template through the eino prompt component so
// prompt callbacks fire for every rendered prompt.
func render(ctx context.Context, name, tmpl string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(schema.GoTemplate, schema.SystemMessage(tmpl))
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("%s prompt render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%s prompt render: empty result", name)
	}
	return msgs[0].Content, nil
}

func transcript(history []model.Message, counterpart string) []line {
	out := make([]line, 0, len(history))
	for _, m := range history {
		speaker := "User"
		if m.Role == model.RoleAssistant {
			speaker = counterpart
		}
		out = append(out, line{Speaker: speaker, Content: m.Content})
	}
	return out
}

func trimTail[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func lastCounterpart(history []model.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == model.RoleAssistant {
			return history[i].Content
		}
	}
	return ""
}
