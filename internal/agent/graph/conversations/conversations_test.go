package conversations

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/negotiation-sim/server/internal/agent/model"
	errx "github.com/negotiation-sim/server/internal/core/error"
)

type mapRepo struct {
	mu     sync.Mutex
	states map[string]*model.ConversationState
}

func newMapRepo() *mapRepo {
	return &mapRepo{states: map[string]*model.ConversationState{}}
}

func (r *mapRepo) Create(_ context.Context, s *model.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[s.ID] = s.Clone()
	return nil
}

func (r *mapRepo) Load(_ context.Context, id string) (*model.ConversationState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[id]
	if !ok {
		return nil, errx.ConversationNotFound(id)
	}
	return s.Clone(), nil
}

func (r *mapRepo) Save(ctx context.Context, s *model.ConversationState) error {
	return r.Create(ctx, s)
}

func (r *mapRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, id)
	return nil
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newMapRepo(), model.ConversationConfig{})

	state := m.New("salary-negotiation")
	assert.True(t, strings.HasPrefix(state.ID, "conv_"))
	assert.Equal(t, 50, state.Emotion.Rapport)
	assert.Equal(t, model.EmotionNeutral, state.Emotion.Emotion)
	assert.Equal(t, 0, state.TurnCount)
	assert.Empty(t, state.Messages)

	require.NoError(t, m.Create(ctx, state))

	loaded, err := m.Load(ctx, state.ID)
	require.NoError(t, err)
	require.NoError(t, loaded.AppendUserMessage("hello", m.Now()))

	untouched, err := m.Load(ctx, state.ID)
	require.NoError(t, err)
	assert.Empty(t, untouched.Messages)

	require.NoError(t, m.Save(ctx, loaded))
	saved, err := m.Load(ctx, state.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Messages, 1)

	require.NoError(t, m.Delete(ctx, state.ID))
	_, err = m.Load(ctx, state.ID)
	assert.ErrorIs(t, err, errx.ErrConversationNotFound)
}

func TestNewConversationIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewConversationID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestThrottle(t *testing.T) {
	th := NewThrottle(0)
	assert.Equal(t, 3, th.MaxUses())

	for usage, want := range map[int]bool{0: true, 1: true, 2: true, 3: false, 4: false} {
		assert.Equal(t, want, th.MayGenerate(&model.ConversationState{SuggestionUsage: usage}), "usage=%d", usage)
	}

	state := &model.ConversationState{}
	for i := 0; i < 3; i++ {
		assert.True(t, th.RecordUsage(state))
	}
	assert.False(t, th.MayGenerate(state))
	assert.False(t, th.RecordUsage(state))
	assert.Equal(t, 3, state.SuggestionUsage)
	assert.Equal(t, 0, th.Remaining(state))
}

func TestLockerSerializesSameKey(t *testing.T) {
	l := NewLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "a")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := l.Lock(ctx, "a")
		if err == nil {
			close(acquired)
			u()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired the same key")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter was never released")
	}
}

func TestLockerIndependentKeys(t *testing.T) {
	l := NewLocker()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlockA, err := l.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLockerHonoursContext(t *testing.T) {
	l := NewLocker()
	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Equal(t, 0, l.Len())
}

func TestBuildMessages(t *testing.T) {
	history := []model.Message{
		{Role: model.RoleAssistant, Content: "Welcome."},
		{Role: model.RoleUser, Content: "Hi."},
		{Role: model.RoleUser, Content: ""},
	}

	msgs := BuildMessages([]string{"persona", "", "contract"}, history, "seed")
	require.Len(t, msgs, 4)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "contract", msgs[1].Content)
	assert.Equal(t, schema.Assistant, msgs[2].Role)
	assert.Equal(t, schema.User, msgs[3].Role)

	seeded := BuildMessages([]string{"persona"}, nil, "seed")
	require.Len(t, seeded, 2)
	assert.Equal(t, schema.User, seeded[1].Role)
	assert.Equal(t, "seed", seeded[1].Content)
}
