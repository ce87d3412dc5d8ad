package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/negotiation-sim/server/internal/agent/model"
)

func TestStars(t *testing.T) {
	tests := []struct {
		score, rapport, want int
	}{
		{100, 100, 5},
		{0, 0, 1},
		{90, 90, 5},
		{80, 65, 3},
		{75, 75, 4},
		{60, 60, 3},
		{40, 40, 2},
		{39, 39, 1},
		{150, 150, 5},
		{-20, -20, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stars(tt.score, tt.rapport), "score=%d rapport=%d", tt.score, tt.rapport)
	}
}

func TestStarsMonotonic(t *testing.T) {
	for score := 0; score <= 100; score += 5 {
		for rapport := 0; rapport <= 100; rapport += 5 {
			base := Stars(score, rapport)
			if score+5 <= 100 {
				assert.GreaterOrEqual(t, Stars(score+5, rapport), base)
			}
			if rapport+5 <= 100 {
				assert.GreaterOrEqual(t, Stars(score, rapport+5), base)
			}
		}
	}
}

func TestStarRatingUsesAnalysisAndEmotion(t *testing.T) {
	got := StarRating(model.AnalysisResult{NegotiationScore: 95}, model.EmotionState{Rapport: 90})
	assert.Equal(t, 5, got)
}

func TestUnlocked(t *testing.T) {
	assert.Empty(t, Unlocked(Stats{}))

	got := IDs(Unlocked(Stats{
		CompletedNegotiations:  1,
		MaxRapport:             92,
		LastNegotiationTurns:   4,
		LastNegotiationSuccess: true,
	}))
	assert.Equal(t, []string{"first-negotiation", "perfect-deal", "efficient-negotiator"}, got)
}

func TestEfficientRequiresTurns(t *testing.T) {
	got := IDs(Unlocked(Stats{LastNegotiationSuccess: true}))
	assert.NotContains(t, got, "efficient-negotiator")
}

func TestNewlyUnlocked(t *testing.T) {
	stats := Stats{CompletedNegotiations: 10, HasFiveStar: true}
	got := IDs(NewlyUnlocked([]string{"first-negotiation"}, stats))
	assert.Equal(t, []string{"master-negotiator", "five-star"}, got)
}

func TestWithConversation(t *testing.T) {
	base := FromUserStats(model.UserStats{
		TotalConversations:  2,
		MaxTurns:            7,
		HappyTurns:          3,
		CategoryCompletions: map[string]int{"daily-life": 2, "business": 4},
	})
	rec := model.ConversationRecord{
		Category:     "daily-life",
		Turns:        16,
		StarRating:   5,
		EmotionState: model.EmotionState{Rapport: 70},
		Session:      model.SessionStats{MaxRapport: 91, HappyTurns: 2, HadComeback: true},
	}

	s := WithConversation(base, rec)

	assert.Equal(t, 3, s.CompletedNegotiations)
	assert.Equal(t, 91, s.MaxRapport)
	assert.Equal(t, 5, s.HappyCount)
	assert.True(t, s.HadComeback)
	assert.Equal(t, 3, s.DailyLifeCompletions)
	assert.Equal(t, 4, s.BusinessCompletions)
	assert.True(t, s.HasFiveStar)
	assert.Equal(t, 16, s.MaxTurns)
	assert.True(t, s.LastNegotiationSuccess)

	ids := IDs(NewlyUnlocked(IDs(Unlocked(base)), s))
	assert.Equal(t, []string{"perfect-deal", "sweet-talker", "comeback-king", "daily-life-expert", "five-star", "persistent"}, ids)
}

func TestAchievementsCopy(t *testing.T) {
	list := Achievements()
	assert.Len(t, list, 10)
	list[0].ID = "changed"
	assert.Equal(t, "first-negotiation", Achievements()[0].ID)
}
