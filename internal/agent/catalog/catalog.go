package catalog

import (
	"fmt"
	"strings"

	"github.com/negotiation-sim/server/internal/agent/model"
	errx "github.com/negotiation-sim/server/internal/core/error"
)

// Catalog is an immutable, ordered set of scenarios. It is safe for concurrent reads.
type Catalog struct {
	scenarios []model.Scenario
	byID      map[string]int
}

// New validates scenarios and builds a catalog preserving their order.
func New(scenarios []model.Scenario) (*Catalog, error) {
	c := &Catalog{
		scenarios: make([]model.Scenario, 0, len(scenarios)),
		byID:      make(map[string]int, len(scenarios)),
	}
	for i, sc := range scenarios {
		if err := validate(sc); err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i, err)
		}
		if _, dup := c.byID[sc.ID]; dup {
			return nil, fmt.Errorf("scenario %d: duplicate id %q", i, sc.ID)
		}
		c.byID[sc.ID] = len(c.scenarios)
		c.scenarios = append(c.scenarios, sc)
	}
	return c, nil
}

func validate(sc model.Scenario) error {
	switch {
	case strings.TrimSpace(sc.ID) == "":
		return fmt.Errorf("id is required")
	case strings.TrimSpace(sc.Title) == "":
		return fmt.Errorf("%s: title is required", sc.ID)
	case strings.TrimSpace(sc.Counterpart.Role) == "":
		return fmt.Errorf("%s: counterpart role is required", sc.ID)
	}
	switch sc.Difficulty {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
	default:
		return fmt.Errorf("%s: unknown difficulty %q", sc.ID, sc.Difficulty)
	}
	return nil
}

// Get returns the scenario with id or errx.ErrScenarioNotFound.
func (c *Catalog) Get(id string) (model.Scenario, error) {
	i, ok := c.byID[id]
	if !ok {
		return model.Scenario{}, errx.ScenarioNotFound(id)
	}
	return c.scenarios[i], nil
}

func (c *Catalog) List() []model.Scenario {
	return append([]model.Scenario(nil), c.scenarios...)
}

func (c *Catalog) ByCategory(category string) []model.Scenario {
	return c.filter(func(sc model.Scenario) bool { return sc.Category == category })
}

func (c *Catalog) ByDifficulty(d model.Difficulty) []model.Scenario {
	return c.filter(func(sc model.Scenario) bool { return sc.Difficulty == d })
}

func (c *Catalog) filter(keep func(model.Scenario) bool) []model.Scenario {
	out := []model.Scenario{}
	for _, sc := range c.scenarios {
		if keep(sc) {
			out = append(out, sc)
		}
	}
	return out
}
