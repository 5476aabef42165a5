// Package store provides session persistence backends: in-memory, Redis,
// MongoDB and PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/session"
)

// InMemoryStore keeps snapshots in process memory. The default backend for
// tests and single-process deployments.
type InMemoryStore struct {
	mu    sync.RWMutex
	snaps map[string][]byte
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snaps: make(map[string][]byte)}
}

// Save stores a deep copy of the snapshot via JSON round trip.
func (s *InMemoryStore) Save(ctx context.Context, snap *session.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", errors.ErrInvalidInput)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	s.mu.Lock()
	s.snaps[snap.ID] = data
	s.mu.Unlock()
	return nil
}

// Load returns the snapshot for id.
func (s *InMemoryStore) Load(ctx context.Context, id string) (*session.Snapshot, error) {
	s.mu.RLock()
	data, ok := s.snaps[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, errors.ErrSessionNotFound)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot for id. Deleting a missing session is a no-op.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.snaps, id)
	s.mu.Unlock()
	return nil
}

// List returns all stored session IDs, sorted.
func (s *InMemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.snaps))
	for id := range s.snaps {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op.
func (s *InMemoryStore) Close(ctx context.Context) error { return nil }
