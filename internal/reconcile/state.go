package reconcile

import (
	"sync"
	"time"
)

// Status is the client's view of the session.
type Status string

const (
	StatusUnknown         Status = "unknown"
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticated   Status = "authenticated"
)

// State is the locally cached auth snapshot a client renders from between
// reconciliations. It is a cache, never an authority: the server copy wins on
// every divergence.
type State struct {
	Status              Status    `json:"status"`
	UserID              string    `json:"userId,omitempty"`
	Email               string    `json:"email,omitempty"`
	Name                string    `json:"name,omitempty"`
	EmailVerified       bool      `json:"emailVerified"`
	OnboardingStep      int       `json:"onboardingStep,omitempty"`
	OnboardingCompleted bool      `json:"onboardingCompleted"`
	RedirectURL         string    `json:"redirectUrl,omitempty"`
	SyncedAt            time.Time `json:"syncedAt"`
}

// Store persists the cached state between reconciliations.
type Store interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

type MemoryStore struct {
	mu    sync.Mutex
	state State
	set   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return State{Status: StatusUnknown}, nil
	}
	return s.state, nil
}

func (s *MemoryStore) Save(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.set = true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Status: StatusUnknown}
	s.set = false
	return nil
}
