package authclient

import (
	"context"
	"sync"
)

// CredentialStore is the durable slot holding at most one raw bearer token.
// An absent credential means logged out. Only session store operations
// write the slot; every other component reads identity through the session
// store, never through storage directly.
type CredentialStore interface {
	Load(ctx context.Context) (string, error)
	Store(ctx context.Context, raw string) error
	Clear(ctx context.Context) error
}

// MemoryCredentialStore keeps the credential in process memory, for tests
// and sessions that should not outlive the process.
type MemoryCredentialStore struct {
	mu  sync.Mutex
	raw string
	set bool
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

// Load returns the stored credential, or ErrNoCredential when the slot is empty.
func (s *MemoryCredentialStore) Load(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		return "", ErrNoCredential
	}
	return s.raw, nil
}

// Store replaces the slot content unconditionally.
func (s *MemoryCredentialStore) Store(ctx context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw = raw
	s.set = true
	return nil
}

// Clear empties the slot. Clearing an already empty slot is a no-op.
func (s *MemoryCredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw = ""
	s.set = false
	return nil
}
