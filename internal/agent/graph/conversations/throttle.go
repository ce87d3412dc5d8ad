package conversations

import "github.com/negotiation-sim/server/internal/agent/model"

const defaultMaxSuggestionUses = 3

// Throttle caps how many suggestion sets a conversation may adopt.
type Throttle struct {
	maxUses int
}

func NewThrottle(maxUses int) Throttle {
	if maxUses <= 0 {
		maxUses = defaultMaxSuggestionUses
	}
	return Throttle{maxUses: maxUses}
}

func (t Throttle) MaxUses() int { return t.maxUses }

// MayGenerate reports whether the conversation still has suggestion budget.
func (t Throttle) MayGenerate(state *model.ConversationState) bool {
	return state.SuggestionUsage < t.maxUses
}

// RecordUsage consumes one use when the user adopts a suggestion. It reports
// false, leaving the counter untouched, once the budget is spent.
func (t Throttle) RecordUsage(state *model.ConversationState) bool {
	if !t.MayGenerate(state) {
		return false
	}
	state.SuggestionUsage++
	return true
}

func (t Throttle) Remaining(state *model.ConversationState) int {
	return max(t.maxUses-state.SuggestionUsage, 0)
}
