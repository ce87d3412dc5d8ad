package conversations

import (
	"context"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/negotiation-sim/server/internal/agent/model"
)

const conversationIDPrefix = "conv_"

// Manager owns ConversationState records: it creates them, serialises access
// per conversation id and gates suggestion usage.
type Manager struct {
	conversationRepo model.ConversationRepository
	locks            *Locker
	throttle         Throttle
	now              func() time.Time
}

func NewManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *Manager {
	return &Manager{
		conversationRepo: conversationRepo,
		locks:            NewLocker(),
		throttle:         NewThrottle(config.Suggestions.MaxUses),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func NewConversationID() string {
	return conversationIDPrefix + uuid.NewString()
}

// Now is the clock every state mutation is stamped with.
func (cm *Manager) Now() time.Time {
	return cm.now()
}

func (cm *Manager) Throttle() Throttle {
	return cm.throttle
}

// New builds an unsaved conversation for scenarioID.
func (cm *Manager) New(scenarioID string) *model.ConversationState {
	return model.NewConversationState(NewConversationID(), scenarioID, cm.now())
}

func (cm *Manager) Create(ctx context.Context, state *model.ConversationState) error {
	return cm.conversationRepo.Create(ctx, state)
}

// Load returns a private copy of the stored state.
func (cm *Manager) Load(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	return cm.conversationRepo.Load(ctx, conversationID)
}

func (cm *Manager) Save(ctx context.Context, state *model.ConversationState) error {
	return cm.conversationRepo.Save(ctx, state)
}

func (cm *Manager) Delete(ctx context.Context, conversationID string) error {
	return cm.conversationRepo.Delete(ctx, conversationID)
}

// Lock blocks until the caller holds the conversation's single pending-operation
// slot or ctx is done. Different conversation ids never block each other.
func (cm *Manager) Lock(ctx context.Context, conversationID string) (func(), error) {
	return cm.locks.Lock(ctx, conversationID)
}

// BuildMessages lays out chat messages for the model: every system segment
// in order, then the history. An empty history is replaced by the seed turn.
func BuildMessages(system []string, history []model.Message, seed string) []*schema.Message {
	messages := make([]*schema.Message, 0, len(system)+len(history)+1)
	for _, segment := range system {
		if segment == "" {
			continue
		}
		messages = append(messages, schema.SystemMessage(segment))
	}

	if len(history) == 0 && seed != "" {
		return append(messages, schema.UserMessage(seed))
	}
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case model.RoleUser:
			messages = append(messages, schema.UserMessage(msg.Content))
		case model.RoleAssistant:
			messages = append(messages, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return messages
}
