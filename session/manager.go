package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sweetpotato0/rehab-orchestra/errors"
	"github.com/sweetpotato0/rehab-orchestra/pkg/logging"
)

// Store persists session snapshots. Implementations live in session/store.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	Close(ctx context.Context) error
}

// Manager loads, caches and persists sessions, and serialises all access to a
// given session ID. Concurrent turns on the same session run one at a time;
// turns on different sessions run in parallel.
type Manager struct {
	store  Store
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
}

// NewManager creates a manager backed by the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		logger:   logging.WithComponent("session_manager"),
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Acquire returns the session for id, creating it if needed, with its
// per-session lock held. The caller must call release exactly once.
func (m *Manager) Acquire(ctx context.Context, id string) (*Session, func(), error) {
	if id == "" {
		return nil, nil, fmt.Errorf("%w: empty session id", errors.ErrInvalidInput)
	}

	m.mu.Lock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	release := lock.Unlock

	sess, err := m.get(ctx, id)
	if err != nil {
		release()
		return nil, nil, err
	}
	return sess, release, nil
}

// get returns the cached session or loads it from the store, creating a fresh
// one when the store has no snapshot. Callers hold the per-session lock.
func (m *Manager) get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return sess, nil
	}

	snap, err := m.store.Load(ctx, id)
	switch {
	case err == nil:
		sess = FromSnapshot(snap)
	case stderrors.Is(err, errors.ErrSessionNotFound):
		sess = New(id)
		m.logger.Debug("created session", "session_id", id)
	default:
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()
	return sess, nil
}

// Persist writes the session snapshot through to the store.
func (m *Manager) Persist(ctx context.Context, sess *Session) error {
	if err := m.store.Save(ctx, sess.Snapshot()); err != nil {
		return fmt.Errorf("persist session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes a session from the cache and the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	delete(m.locks, id)
	m.mu.Unlock()
	return m.store.Delete(ctx, id)
}

// List returns the IDs of all persisted sessions.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Close flushes nothing (Persist is write-through) and closes the store.
func (m *Manager) Close(ctx context.Context) error {
	return m.store.Close(ctx)
}
