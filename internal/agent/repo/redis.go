package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/negotiation-sim/server/internal/agent/model"
	errx "github.com/negotiation-sim/server/internal/core/error"
	logx "github.com/negotiation-sim/server/pkg/logger"
)

// RedisConversationRepository keeps the state document (without messages)
// under one key and the append-only message list under another. Every write
// refreshes the TTL of both.
type RedisConversationRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisConversationRepository) stateKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:state", conversationID)
}

func (r *RedisConversationRepository) messagesKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:messages", conversationID)
}

func (r *RedisConversationRepository) Create(ctx context.Context, state *model.ConversationState) error {
	doc, err := encodeState(state)
	if err != nil {
		return err
	}
	key := r.stateKey(state.ID)

	ok, err := r.rdb.SetNX(ctx, key, doc, r.ttl).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to create conversation in redis")
		return errx.WrapRedis(err)
	}
	if !ok {
		return fmt.Errorf("conversation %q already exists", state.ID)
	}
	return r.appendMessages(ctx, state.ID, state.Messages)
}

func (r *RedisConversationRepository) Load(ctx context.Context, conversationID string) (*model.ConversationState, error) {
	key := r.stateKey(conversationID)

	doc, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errx.ConversationNotFound(conversationID)
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation state from redis")
		return nil, errx.WrapRedis(err)
	}

	var state model.ConversationState
	if err := json.Unmarshal(doc, &state); err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to unmarshal conversation state")
		return nil, fmt.Errorf("unmarshal conversation state: %w", err)
	}

	rows, err := r.rdb.LRange(ctx, r.messagesKey(conversationID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to load conversation messages from redis")
		return nil, errx.WrapRedis(err)
	}

	state.Messages = make([]model.Message, 0, len(rows))
	for i, s := range rows {
		var m model.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("conversationID", conversationID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		state.Messages = append(state.Messages, m)
	}
	return &state, nil
}

// Save rewrites the state document and pushes only the messages the store
// does not have yet.
func (r *RedisConversationRepository) Save(ctx context.Context, state *model.ConversationState) error {
	key := r.stateKey(state.ID)

	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to check conversation in redis")
		return errx.WrapRedis(err)
	}
	if n == 0 {
		return errx.ConversationNotFound(state.ID)
	}

	stored, err := r.rdb.LLen(ctx, r.messagesKey(state.ID)).Result()
	if err != nil {
		logx.Error().Err(err).Str("conversationID", state.ID).Msg("failed to get message count from redis")
		return errx.WrapRedis(err)
	}
	if int(stored) > len(state.Messages) {
		return fmt.Errorf("conversation %q: store holds %d messages, state has %d", state.ID, stored, len(state.Messages))
	}

	doc, err := encodeState(state)
	if err != nil {
		return err
	}
	tail, err := encodeMessages(state.Messages[stored:])
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, key, doc, r.ttl)
	if len(tail) > 0 {
		pipe.RPush(ctx, r.messagesKey(state.ID), tail...)
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, r.messagesKey(state.ID), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("conversationID", state.ID).Msg("failed to save conversation to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) Delete(ctx context.Context, conversationID string) error {
	if err := r.rdb.Del(ctx, r.stateKey(conversationID), r.messagesKey(conversationID)).Err(); err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to delete conversation from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) appendMessages(ctx context.Context, conversationID string, messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}
	rows, err := encodeMessages(messages)
	if err != nil {
		return err
	}
	key := r.messagesKey(conversationID)

	if err := r.rdb.RPush(ctx, key, rows...).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push messages to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on conversation key")
		}
	}
	return nil
}

func encodeState(state *model.ConversationState) ([]byte, error) {
	doc := *state
	doc.Messages = nil
	b, err := json.Marshal(doc)
	if err != nil {
		logx.Error().Err(err).Str("conversationID", state.ID).Msg("failed to marshal conversation state")
		return nil, fmt.Errorf("marshal conversation state: %w", err)
	}
	return b, nil
}

func encodeMessages(messages []model.Message) ([]any, error) {
	rows := make([]any, 0, len(messages))
	for _, m := range messages {
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("marshal message: %w", err)
		}
		rows = append(rows, b)
	}
	return rows, nil
}

var _ model.ConversationRepository = (*RedisConversationRepository)(nil)
