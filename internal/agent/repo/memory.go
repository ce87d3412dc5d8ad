package repo

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/negotiation-sim/server/internal/agent/model"
	errx "github.com/negotiation-sim/server/internal/core/error"
)

const defaultMemoryCapacity = 1024

// MemoryConversationRepository is a single-process store bounded by capacity.
// The least recently used conversation is evicted first.
type MemoryConversationRepository struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *model.ConversationState]
}

func NewMemoryConversationRepository(capacity int) (*MemoryConversationRepository, error) {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	cache, err := lru.New[string, *model.ConversationState](capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryConversationRepository{cache: cache}, nil
}

func (r *MemoryConversationRepository) Create(_ context.Context, state *model.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cache.Contains(state.ID) {
		return fmt.Errorf("conversation %q already exists", state.ID)
	}
	r.cache.Add(state.ID, state.Clone())
	return nil
}

func (r *MemoryConversationRepository) Load(_ context.Context, conversationID string) (*model.ConversationState, error) {
	state, ok := r.cache.Get(conversationID)
	if !ok {
		return nil, errx.ConversationNotFound(conversationID)
	}
	return state.Clone(), nil
}

func (r *MemoryConversationRepository) Save(_ context.Context, state *model.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.cache.Peek(state.ID)
	if !ok {
		return errx.ConversationNotFound(state.ID)
	}
	if len(stored.Messages) > len(state.Messages) {
		return fmt.Errorf("conversation %q: store holds %d messages, state has %d", state.ID, len(stored.Messages), len(state.Messages))
	}
	r.cache.Add(state.ID, state.Clone())
	return nil
}

func (r *MemoryConversationRepository) Delete(_ context.Context, conversationID string) error {
	r.cache.Remove(conversationID)
	return nil
}

func (r *MemoryConversationRepository) Len() int {
	return r.cache.Len()
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
