package prompts

import (
	"context"
	_ "embed"

	"github.com/negotiation-sim/server/internal/agent/model"
)

var (
	//go:embed template/suggestion_opening.txt
	suggestionOpening string
	//go:embed template/suggestion_continuation.txt
	suggestionContinuation string
	//go:embed template/suggestion_contract.txt
	suggestionContract string
)

// BuildSuggestionPrompt renders the coaching prompt. With no user messages in
// history it asks for three openers in distinct styles; otherwise it feeds the
// user's own messages back so the suggestions continue their style.
func (b *Builder) BuildSuggestionPrompt(ctx context.Context, scenario model.Scenario, profile model.CounterpartProfile, history []model.Message) (string, error) {
	contract, err := render(ctx, "suggestion contract", suggestionContract, map[string]any{
		"Language": b.language,
	})
	if err != nil {
		return "", err
	}

	vars := map[string]any{
		"Title":            scenario.Title,
		"Description":      scenario.Description,
		"Role":             profile.Role,
		"Personality":      profile.Personality,
		"StartingPosition": profile.StartingPosition,
		"UserGoals":        scenario.UserGoals,
		"Contract":         contract,
	}

	userMessages := model.UserContents(history)
	if len(userMessages) == 0 {
		vars["LastCounterpart"] = lastCounterpart(history)
		return render(ctx, "suggestion opening", suggestionOpening, vars)
	}
	vars["UserMessages"] = userMessages
	vars["Recent"] = transcript(trimTail(history, recentWindow), profile.Role)
	return render(ctx, "suggestion continuation", suggestionContinuation, vars)
}
