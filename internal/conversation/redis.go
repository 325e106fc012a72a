package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"WhatsappReminder/internal/entity"
	"WhatsappReminder/pkg/redis"
)

const keyPrefix = "conversation:state:"

// RedisStore persists conversation state so it survives restarts. SETNX keeps
// the transition single-shot across processes.
type RedisStore struct {
	client redis.IRedis
	ttl    time.Duration
}

func NewRedisStore(client redis.IRedis, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, id string) (entity.ConversationState, error) {
	raw, err := r.client.Get(ctx, keyPrefix+id)
	if errors.Is(err, redis.ErrNotFound) {
		return entity.StateUnset, nil
	}
	if err != nil {
		return entity.StateUnset, fmt.Errorf("get conversation state: %w", err)
	}
	return entity.ParseConversationState(raw), nil
}

func (r *RedisStore) TransitionIfUnset(ctx context.Context, id string, state entity.ConversationState) (bool, error) {
	ok, err := r.client.SetIfAbsent(ctx, keyPrefix+id, string(state), r.ttl)
	if err != nil {
		return false, fmt.Errorf("set conversation state: %w", err)
	}
	return ok, nil
}
