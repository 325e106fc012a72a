package conversation

import (
	"context"
	"sync"

	"WhatsappReminder/internal/entity"
)

// Store remembers the resolved conversation state per contact.
type Store interface {
	Get(ctx context.Context, id string) (entity.ConversationState, error)
	// TransitionIfUnset records state for id only if none is recorded yet.
	// It reports whether this call performed the transition.
	TransitionIfUnset(ctx context.Context, id string, state entity.ConversationState) (bool, error)
}

type MemoryStore struct {
	mu     sync.Mutex
	states map[string]entity.ConversationState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]entity.ConversationState)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (entity.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[id], nil
}

func (m *MemoryStore) TransitionIfUnset(_ context.Context, id string, state entity.ConversationState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.states[id].IsResolved() {
		return false, nil
	}
	m.states[id] = state
	return true, nil
}
