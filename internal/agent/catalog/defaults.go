package catalog

import "github.com/negotiation-sim/server/internal/agent/model"

// Default returns the built-in scenario catalog.
func Default() *Catalog {
	c, err := New(defaultScenarios())
	if err != nil {
		panic(err)
	}
	return c
}

func defaultScenarios() []model.Scenario {
	return []model.Scenario{
		{
			ID:          "salary-negotiation",
			Title:       "Salary Negotiation",
			Description: "Negotiate your salary with the recruiter at a new company.",
			Difficulty:  model.DifficultyMedium,
			Category:    "career",
			Counterpart: model.CounterpartProfile{
				Role:             "HR manager",
				Personality:      "Professional and analytical; has to protect the company budget",
				Goals:            "Hire strong talent at a reasonable salary",
				Constraints:      "Salary band: $40,000 to $55,000",
				StartingPosition: "Offers $45,000",
			},
			UserGoals: []string{
				"Secure the highest salary possible",
				"Negotiate additional benefits",
				"Discuss bonus conditions",
			},
			Tips: []string{
				"Use market research data",
				"Explain your value with concrete examples",
				"Offer alternatives such as benefits or a performance bonus",
			},
		},
		{
			ID:          "vendor-contract",
			Title:       "Vendor Contract",
			Description: "Negotiate price and terms with a vendor for a software purchase.",
			Difficulty:  model.DifficultyHard,
			Category:    "business",
			Counterpart: model.CounterpartProfile{
				Role:             "B2B sales representative",
				Personality:      "Persuasive and friendly; works hard to close the deal",
				Goals:            "Sign the contract at the highest possible price",
				Constraints:      "Can discount up to 20%, contract term of at least 2 years",
				StartingPosition: "Annual license at $50,000 on a 1-year contract",
			},
			UserGoals: []string{
				"Secure a price discount",
				"Get flexible contract terms",
				"Include additional services",
			},
			Tips: []string{
				"Mention competitor pricing",
				"Use a longer contract as a bargaining chip",
				"Propose a phased rollout",
			},
		},
		{
			ID:          "client-deadline",
			Title:       "Project Deadline",
			Description: "Negotiate with a client who demands an unrealistic deadline.",
			Difficulty:  model.DifficultyEasy,
			Category:    "project-management",
			Counterpart: model.CounterpartProfile{
				Role:             "Project client",
				Personality:      "Impatient and demanding, but cares about quality",
				Goals:            "Finish the project as fast as possible",
				Constraints:      "No budget overrun, no compromise on quality",
				StartingPosition: "Demands completion within 2 weeks",
			},
			UserGoals: []string{
				"Agree on a realistic timeline",
				"Request additional resources",
				"Adjust the scope",
			},
			Tips: []string{
				"Explain the risks clearly",
				"Propose a staged delivery",
				"Suggest an MVP approach",
			},
		},
		{
			ID:          "real-estate",
			Title:       "Real Estate Price",
			Description: "Negotiate the purchase price of an apartment.",
			Difficulty:  model.DifficultyMedium,
			Category:    "personal",
			Counterpart: model.CounterpartProfile{
				Role:             "Real estate agent",
				Personality:      "Experienced, knows the market well and wants the deal to close",
				Goals:            "Reach a price that satisfies both seller and buyer",
				Constraints:      "Seller's minimum is $550,000; current asking price is $600,000",
				StartingPosition: "Asking $600,000",
			},
			UserGoals: []string{
				"Lower the price",
				"Have defects repaired before the sale",
				"Adjust the move-in date",
			},
			Tips: []string{
				"Research prices in the neighbourhood",
				"Point to the property's weaknesses as evidence",
				"Use strengths such as a cash purchase",
			},
		},
		{
			ID:          "team-resource",
			Title:       "Team Resource Allocation",
			Description: "Negotiate how developers are split with the leader of another department.",
			Difficulty:  model.DifficultyHard,
			Category:    "management",
			Counterpart: model.CounterpartProfile{
				Role:             "Leader of another team",
				Personality:      "Competitive and puts their own team first, but considers the company's interest",
				Goals:            "Get the best developers for their own team",
				Constraints:      "Senior management expects a fair outcome",
				StartingPosition: "Asks for two senior developers",
			},
			UserGoals: []string{
				"Secure enough people",
				"Balance skills across teams",
				"Keep a cooperative relationship",
			},
			Tips: []string{
				"Look for a win-win solution",
				"Prove the need with data",
				"Propose ways to collaborate",
			},
		},
		{
			ID:          "second-hand-deal",
			Title:       "Second-hand Laptop",
			Description: "Negotiate the price of a used laptop with a seller on a local marketplace app.",
			Difficulty:  model.DifficultyEasy,
			Category:    "daily-life",
			Counterpart: model.CounterpartProfile{
				Role:             "Used laptop seller",
				Personality:      "Friendly, knows what the laptop is worth and wants to sell quickly",
				Goals:            "Sell quickly at a reasonable price",
				Constraints:      "Lowest acceptable price $450, asking $550",
				StartingPosition: "Wants $550, a little room to negotiate",
			},
			UserGoals: []string{
				"Buy as cheaply as possible",
				"Check the condition and ask for a guarantee",
				"Arrange the meeting place and time",
			},
			Tips: []string{
				"Mention prices on other platforms",
				"Point to flaws such as scratches or battery health",
				"Offer an immediate cash deal",
			},
		},
		{
			ID:          "roommate-chores",
			Title:       "Roommate Chores",
			Description: "Negotiate how to split cleaning, dishes and other chores with your roommate.",
			Difficulty:  model.DifficultyEasy,
			Category:    "daily-life",
			Counterpart: model.CounterpartProfile{
				Role:             "Roommate",
				Personality:      "Laid-back and friendly but passive about chores; values fairness",
				Goals:            "Avoid the chores they dislike",
				Constraints:      "Accepts that the split should be fair; has a busy schedule",
				StartingPosition: "Thinks everyone should just handle things on their own",
			},
			UserGoals: []string{
				"Split the chores fairly",
				"Agree on clear rules",
				"Keep a good relationship",
			},
			Tips: []string{
				"Consider each other's schedules and preferences",
				"Propose a rotation system",
				"Start small and improve step by step",
			},
		},
		{
			ID:          "gym-membership",
			Title:       "Gym Membership Discount",
			Description: "Negotiate a discount when signing up at your local gym.",
			Difficulty:  model.DifficultyEasy,
			Category:    "daily-life",
			Counterpart: model.CounterpartProfile{
				Role:             "Gym owner",
				Personality:      "Friendly, business-minded and prefers long-term members",
				Goals:            "Attract new members and encourage long sign-ups",
				Constraints:      "$60 per month on the standard 3-month plan, maximum discount 30%",
				StartingPosition: "$180 for 3 months ($60 per month)",
			},
			UserGoals: []string{
				"Sign up at a discounted price",
				"Get personal training or other extras",
				"Secure a flexible refund policy",
			},
			Tips: []string{
				"Ask for a discount in exchange for a longer sign-up",
				"Mention friends or referrals",
				"Compare prices with other gyms nearby",
			},
		},
	}
}
