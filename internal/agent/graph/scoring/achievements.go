package scoring

import "github.com/negotiation-sim/server/internal/agent/model"

// SuccessStars is the lowest star rating that counts as a successful negotiation.
const SuccessStars = 3

const (
	categoryDailyLife = "daily-life"
	categoryBusiness  = "business"
)

// Stats is the input every achievement condition is evaluated against.
type Stats struct {
	CompletedNegotiations  int  `json:"completedNegotiations"`
	MaxRapport             int  `json:"maxRapport"`
	HappyCount             int  `json:"happyCount"`
	HadComeback            bool `json:"hadComeback"`
	LastNegotiationTurns   int  `json:"lastNegotiationTurns"`
	LastNegotiationSuccess bool `json:"lastNegotiationSuccess"`
	DailyLifeCompletions   int  `json:"dailyLifeCompletions"`
	BusinessCompletions    int  `json:"businessCompletions"`
	HasFiveStar            bool `json:"hasFiveStar"`
	MaxTurns               int  `json:"maxTurns"`
}

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`

	condition func(Stats) bool
}

var achievements = []Achievement{
	{
		ID:          "first-negotiation",
		Title:       "First Negotiation",
		Icon:        "🎯",
		Description: "Completed your first negotiation",
		condition:   func(s Stats) bool { return s.CompletedNegotiations >= 1 },
	},
	{
		ID:          "master-negotiator",
		Title:       "Master Negotiator",
		Icon:        "👑",
		Description: "Completed 10 negotiations",
		condition:   func(s Stats) bool { return s.CompletedNegotiations >= 10 },
	},
	{
		ID:          "perfect-deal",
		Title:       "Perfect Deal",
		Icon:        "⭐",
		Description: "Finished a negotiation with rapport of 90 or more",
		condition:   func(s Stats) bool { return s.MaxRapport >= 90 },
	},
	{
		ID:          "sweet-talker",
		Title:       "Sweet Talker",
		Icon:        "😊",
		Description: "Made the counterpart happy 5 times",
		condition:   func(s Stats) bool { return s.HappyCount >= 5 },
	},
	{
		ID:          "comeback-king",
		Title:       "Comeback King",
		Icon:        "🔥",
		Description: "Recovered rapport from 30 or below to 60 or above",
		condition:   func(s Stats) bool { return s.HadComeback },
	},
	{
		ID:          "efficient-negotiator",
		Title:       "Efficient Negotiator",
		Icon:        "⚡",
		Description: "Closed a successful negotiation within 5 turns",
		condition:   efficient,
	},
	{
		ID:          "daily-life-expert",
		Title:       "Daily Life Expert",
		Icon:        "🏠",
		Description: "Completed 3 daily-life negotiations",
		condition:   func(s Stats) bool { return s.DailyLifeCompletions >= 3 },
	},
	{
		ID:          "business-pro",
		Title:       "Business Pro",
		Icon:        "💼",
		Description: "Completed 5 business negotiations",
		condition:   func(s Stats) bool { return s.BusinessCompletions >= 5 },
	},
	{
		ID:          "five-star",
		Title:       "Five Stars",
		Icon:        "🌟",
		Description: "Earned a five-star rating",
		condition:   func(s Stats) bool { return s.HasFiveStar },
	},
	{
		ID:          "persistent",
		Title:       "Persistent Negotiator",
		Icon:        "🎖️",
		Description: "Completed a negotiation of 15 turns or more",
		condition:   func(s Stats) bool { return s.MaxTurns >= 15 },
	},
}

func efficient(s Stats) bool {
	return s.LastNegotiationTurns >= 1 && s.LastNegotiationTurns <= 5 && s.LastNegotiationSuccess
}

// Achievements returns every defined achievement in display order.
func Achievements() []Achievement {
	return append([]Achievement(nil), achievements...)
}

// Unlocked returns the achievements whose condition holds for stats.
func Unlocked(stats Stats) []Achievement {
	out := []Achievement{}
	for _, a := range achievements {
		if a.condition(stats) {
			out = append(out, a)
		}
	}
	return out
}

// NewlyUnlocked returns the achievements unlocked by stats that are not in previousIDs.
func NewlyUnlocked(previousIDs []string, stats Stats) []Achievement {
	seen := make(map[string]struct{}, len(previousIDs))
	for _, id := range previousIDs {
		seen[id] = struct{}{}
	}
	out := []Achievement{}
	for _, a := range Unlocked(stats) {
		if _, ok := seen[a.ID]; !ok {
			out = append(out, a)
		}
	}
	return out
}

func IDs(list []Achievement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

// FromUserStats maps stored history aggregates onto achievement stats.
func FromUserStats(u model.UserStats) Stats {
	return Stats{
		CompletedNegotiations: u.TotalConversations,
		MaxRapport:            u.MaxRapport,
		HappyCount:            u.HappyTurns,
		HadComeback:           u.HadComeback,
		DailyLifeCompletions:  u.CategoryCompletions[categoryDailyLife],
		BusinessCompletions:   u.CategoryCompletions[categoryBusiness],
		HasFiveStar:           u.HasFiveStar,
		MaxTurns:              u.MaxTurns,
	}
}

// WithConversation folds one finished conversation into base.
func WithConversation(base Stats, rec model.ConversationRecord) Stats {
	s := base
	s.CompletedNegotiations++
	s.MaxRapport = max(s.MaxRapport, rec.Session.MaxRapport, rec.EmotionState.Rapport)
	s.HappyCount += rec.Session.HappyTurns
	s.HadComeback = s.HadComeback || rec.Session.HadComeback
	s.LastNegotiationTurns = rec.Turns
	s.LastNegotiationSuccess = rec.StarRating >= SuccessStars
	switch rec.Category {
	case categoryDailyLife:
		s.DailyLifeCompletions++
	case categoryBusiness:
		s.BusinessCompletions++
	}
	s.HasFiveStar = s.HasFiveStar || rec.StarRating == 5
	s.MaxTurns = max(s.MaxTurns, rec.Turns)
	return s
}
