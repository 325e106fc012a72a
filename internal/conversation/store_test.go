package conversation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"WhatsappReminder/internal/entity"
	"WhatsappReminder/pkg/redis"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := redis.New(redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, time.Hour), mr
}

func storesUnderTest(t *testing.T) map[string]Store {
	redisStore, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

func TestStoreTransitionsOnce(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			state, err := store.Get(ctx, "3001112233")
			require.NoError(t, err)
			assert.Equal(t, entity.StateUnset, state)

			ok, err := store.TransitionIfUnset(ctx, "3001112233", entity.StatePositive)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = store.TransitionIfUnset(ctx, "3001112233", entity.StateNegative)
			require.NoError(t, err)
			assert.False(t, ok)

			state, err = store.Get(ctx, "3001112233")
			require.NoError(t, err)
			assert.Equal(t, entity.StatePositive, state)
		})
	}
}

func TestStoreConcurrentTransition(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			var (
				wg   sync.WaitGroup
				wins atomic.Int32
			)
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					state := entity.StatePositive
					if i%2 == 0 {
						state = entity.StateNegative
					}
					ok, err := store.TransitionIfUnset(context.Background(), "3004445566", state)
					assert.NoError(t, err)
					if ok {
						wins.Add(1)
					}
				}(i)
			}
			wg.Wait()

			assert.Equal(t, int32(1), wins.Load())
		})
	}
}

func TestRedisStoreKeyLayout(t *testing.T) {
	store, mr := newRedisStore(t)

	_, err := store.TransitionIfUnset(context.Background(), "3001112233", entity.StateNegative)
	require.NoError(t, err)

	got, err := mr.Get("conversation:state:3001112233")
	require.NoError(t, err)
	assert.Equal(t, "negative", got)
	assert.Equal(t, time.Hour, mr.TTL("conversation:state:3001112233"))
}
