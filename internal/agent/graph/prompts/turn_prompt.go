package prompts

import (
	"context"
	_ "embed"

	"github.com/negotiation-sim/server/internal/agent/model"
)

//go:embed template/persona_prompt.txt
var personaPrompt string

//go:embed template/response_contract.txt
var responseContract string

// OpeningSeed is sent as the only user turn when the counterpart speaks first.
const OpeningSeed = "(The user has just joined. Open the negotiation in character with your first line.)"

// TurnPrompt is the system instruction for a counterpart turn, split into a
// scenario-specific persona and the scenario-independent output contract.
type TurnPrompt struct {
	Persona  string
	Contract string
}

// Segments returns the prompt as ordered system segments.
func (p TurnPrompt) Segments() []string {
	return []string{p.Persona, p.Contract}
}

// BuildTurnPrompt renders the persona and the JSON response contract.
func (b *Builder) BuildTurnPrompt(ctx context.Context, scenario model.Scenario, profile model.CounterpartProfile) (TurnPrompt, error) {
	persona, err := render(ctx, "persona", personaPrompt, map[string]any{
		"Title":            scenario.Title,
		"Description":      scenario.Description,
		"Difficulty":       string(scenario.Difficulty),
		"Role":             profile.Role,
		"Personality":      profile.Personality,
		"Goals":            profile.Goals,
		"Constraints":      profile.Constraints,
		"StartingPosition": profile.StartingPosition,
		"Language":         b.language,
	})
	if err != nil {
		return TurnPrompt{}, err
	}
	contract, err := render(ctx, "contract", responseContract, map[string]any{
		"Language": b.language,
	})
	if err != nil {
		return TurnPrompt{}, err
	}
	return TurnPrompt{Persona: persona, Contract: contract}, nil
}
