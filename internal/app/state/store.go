package state

import (
	"sync"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// Listener is notified after every applied action with the new state.
type Listener func(s State, a Action)

type subscription struct {
	id       string
	listener Listener
}

// Store holds the current State and serializes dispatches.
type Store struct {
	mu            sync.RWMutex
	state         State
	subscriptions []subscription
}

// NewStore creates a store holding initial.
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies a and notifies subscribers.
// It returns false when the reducer rejected the action.
func (s *Store) Dispatch(a Action) bool {
	s.mu.Lock()
	next, ok := Reduce(s.state, a)
	if !ok {
		phase := s.state.Phase
		s.mu.Unlock()
		zlog.Debug().Msgf("action rejected: %s (phase=%s)", a.Name(), phase)
		return false
	}
	s.state = next
	subs := make([]subscription, len(s.subscriptions))
	copy(subs, s.subscriptions)
	s.mu.Unlock()

	zlog.Debug().Msgf("action applied: %s (phase=%s tracks=%d)", a.Name(), next.Phase, next.Playlist.Len())

	for _, sub := range subs {
		sub.listener(next, a)
	}
	return true
}

// Subscribe registers l and returns the subscription ID.
func (s *Store) Subscribe(l Listener) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.subscriptions = append(s.subscriptions, subscription{id: id, listener: l})
	return id
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscriptions {
		if sub.id == id {
			s.subscriptions = append(s.subscriptions[:i:i], s.subscriptions[i+1:]...)
			return
		}
	}
}
