package dappbind

import (
	"context"
	"sync"
)

// SessionStore persists the name of the last selected wallet so a later
// connection can reuse it without asking again.
type SessionStore interface {
	// Load returns the cached wallet name, or "" when there is none.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, wallet string) error
	Clear(ctx context.Context) error
}

// MemorySessionStore keeps the session for the lifetime of the process.
type MemorySessionStore struct {
	mu     sync.Mutex
	wallet string
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Load(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallet, nil
}

func (s *MemorySessionStore) Save(_ context.Context, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallet = wallet
	return nil
}

func (s *MemorySessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallet = ""
	return nil
}
