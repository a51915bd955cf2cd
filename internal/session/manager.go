package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jo-hoe/photolog/internal/capture"
	"github.com/jo-hoe/photolog/internal/category"
	"github.com/jo-hoe/photolog/internal/entry"
	"github.com/jo-hoe/photolog/internal/storage"
)

// Manager owns all live page sessions
type Manager struct {
	device      capture.Device
	storage     storage.Factory
	resolver    *category.Resolver
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(device capture.Device, factory storage.Factory, resolver *category.Resolver, idleTimeout time.Duration) *Manager {
	return &Manager{
		device:      device,
		storage:     factory,
		resolver:    resolver,
		idleTimeout: idleTimeout,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Create opens a new session. A denied or missing camera yields a capture-disabled session, not an error.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()

	feed, err := m.device.Open(ctx)
	var captureErr error
	if err != nil {
		if !capture.IsCapabilityError(err) {
			return nil, fmt.Errorf("failed to open capture device %s: %w", m.device.Name(), err)
		}
		slog.Warn("capture device unavailable, session starts capture-disabled",
			"session_id", id, "device", m.device.Name(), "error", err)
		captureErr = err
	}

	store := entry.NewStore(m.storage.Open(id), m.resolver)
	s := New(id, feed, captureErr, store, m.now())

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	slog.Info("session created", "session_id", id, "device", m.device.Name())
	return s, nil
}

// Get returns the session and marks it as active, in memory and in the entry store.
// The idle clock is reset under the manager lock so a concurrent Sweep sees it.
func (m *Manager) Get(ctx context.Context, id string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		s.touch(m.now())
	}
	m.mu.Unlock()
	if !ok {
		return nil, false
	}

	if err := s.store.Touch(ctx); err != nil {
		slog.Warn("failed to refresh session entries", "session_id", id, "error", err)
	}
	return s, true
}

// End discards a session and its entries. Unknown ids are ignored.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return m.discard(ctx, s)
}

func (m *Manager) discard(ctx context.Context, s *Session) error {
	if err := s.end(ctx); err != nil {
		return fmt.Errorf("failed to discard session %s: %w", s.ID, err)
	}
	slog.Info("session ended", "session_id", s.ID)
	return nil
}

// Sweep ends every session idle for longer than the idle timeout and returns how many were ended.
// Expired sessions leave the map in the same critical section that judged them idle.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.idleTimeout && !s.Exporting() {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		if err := m.discard(ctx, s); err != nil {
			slog.Error("failed to end idle session", "session_id", s.ID, "error", err)
		}
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is cancelled
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(ctx, m.now()); n > 0 {
				slog.Info("idle sessions swept", "count", n)
			}
		}
	}
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close ends all sessions
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		errs = append(errs, m.End(ctx, id))
	}
	return errors.Join(errs...)
}
