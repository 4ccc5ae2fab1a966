package http

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"social-integration/domain/model"
)

const stateTTL = 10 * time.Minute

type pendingState struct {
	identity model.Identity
	expires  time.Time
}

// stateStore remembers which user started an OAuth round trip; the callback carries no session.
type stateStore struct {
	mu     sync.Mutex
	states map[string]pendingState
	now    func() time.Time
}

func newStateStore() *stateStore {
	return &stateStore{states: map[string]pendingState{}, now: time.Now}
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (s *stateStore) issue(identity model.Identity) string {
	state := randomState()
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.states {
		if now.After(v.expires) {
			delete(s.states, k)
		}
	}
	s.states[state] = pendingState{identity: identity, expires: now.Add(stateTTL)}
	return state
}

// consume returns the identity behind state; a state is usable once.
func (s *stateStore) consume(state string) (model.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.states[state]
	if !ok {
		return "", false
	}
	delete(s.states, state)
	if s.now().After(p.expires) {
		return "", false
	}
	return p.identity, true
}
