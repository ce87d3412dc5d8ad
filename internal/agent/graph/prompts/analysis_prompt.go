package prompts

import (
	"context"
	_ "embed"

	"github.com/negotiation-sim/server/internal/agent/model"
)

//go:embed template/analysis_prompt.txt
var analysisPrompt string

// BuildAnalysisPrompt renders a standalone evaluation request over the full transcript.
func (b *Builder) BuildAnalysisPrompt(ctx context.Context, scenario model.Scenario, history []model.Message) (string, error) {
	return render(ctx, "analysis", analysisPrompt, map[string]any{
		"Title":       scenario.Title,
		"Description": scenario.Description,
		"Role":        scenario.Counterpart.Role,
		"UserGoals":   scenario.UserGoals,
		"Transcript":  transcript(history, scenario.Counterpart.Role),
		"Language":    b.language,
	})
}
