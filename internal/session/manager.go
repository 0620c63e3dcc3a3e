// Package session owns per-client disk builder instances.
//
// Every client works against its own builder, so concurrent conversion
// sessions cannot corrupt each other's pad tables. A default session backs
// clients that never ask for one.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when a session ID is unknown or expired.
	ErrNotFound = errors.New("session not found")
	// ErrManagerFull is returned when the session limit is reached.
	ErrManagerFull = errors.New("session limit reached")
	// ErrManagerClosed is returned after the manager has been stopped.
	ErrManagerClosed = errors.New("session manager is closed")
)

// DefaultID names the session used by clients that do not request one.
// It never expires.
const DefaultID = "default"

// Manager tracks live sessions and expires idle ones.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	capacity int
	ttl      time.Duration
	logger   *slog.Logger
	closed   bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewManager creates a manager holding at most capacity sessions, expiring
// sessions idle for longer than ttl. A ttl of zero disables expiry.
func NewManager(capacity int, ttl time.Duration, logger *slog.Logger) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		capacity: capacity,
		ttl:      ttl,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}

	def := newSession()
	def.ID = DefaultID
	m.sessions[DefaultID] = def

	return m
}

// Create registers a new session and returns it.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if len(m.sessions) >= m.capacity {
		return nil, ErrManagerFull
	}

	s := newSession()
	m.sessions[s.ID] = s
	m.logger.Debug("session created", "session_id", s.ID, "sessions", len(m.sessions))
	return s, nil
}

// Get returns the session with the given ID and marks it as used.
// An empty ID resolves to the default session.
func (m *Manager) Get(id string) (*Session, error) {
	if id == "" {
		id = DefaultID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.lastUsed = time.Now()
	return s, nil
}

// Remove deletes a session. The default session cannot be removed.
// It reports whether a session was deleted.
func (m *Manager) Remove(id string) bool {
	if id == DefaultID {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.logger.Debug("session removed", "session_id", id, "sessions", len(m.sessions))
	return true
}

// Len returns the number of live sessions, including the default one.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Start begins the background expiry goroutine.
func (m *Manager) Start() {
	if m.ttl <= 0 {
		return
	}
	m.wg.Add(1)
	go m.janitor()
}

// Stop closes the manager and waits for the expiry goroutine.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	close(m.stopCh)
	m.wg.Wait()
}

// janitor periodically drops sessions idle for longer than the TTL.
func (m *Manager) janitor() {
	defer m.wg.Done()

	interval := m.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

// sweep removes expired sessions. The default session is kept.
func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if id == DefaultID {
			continue
		}
		if s.idleSince(now) > m.ttl {
			delete(m.sessions, id)
			m.logger.Info("session expired", "session_id", id, "idle", s.idleSince(now))
		}
	}
}
