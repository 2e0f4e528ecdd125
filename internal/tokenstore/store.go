// Package tokenstore persists the session's bearer token across runs.
//
// There is exactly one slot: the raw token under Key. Stores never
// interpret the token; decoding belongs to the session.
package tokenstore

import (
	"sync"
)

// Key is the fixed slot name the token is stored under.
const Key = "token"

// FileName is the credentials file inside the LegalTime home directory.
const FileName = "credentials.json"

// Store is a single-slot persistent token holder.
type Store interface {
	// Load returns the persisted token. ok is false when nothing is stored.
	Load() (token string, ok bool, err error)
	// Save replaces the persisted token.
	Save(token string) error
	// Clear removes the persisted token. Clearing an empty store is not an error.
	Clear() error
}

// MemoryStore keeps the token for the life of the process only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != "", nil
}

func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
