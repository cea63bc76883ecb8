package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/panel-configurator/backend/internal/design"
	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/models"
	"github.com/panel-configurator/backend/internal/placement"
	"github.com/panel-configurator/backend/internal/rules"
)

// DefaultMaxSessions limits concurrent customizer sessions.
const DefaultMaxSessions = 200

// DefaultKeepAlive is how long a session is protected from eviction after use.
const DefaultKeepAlive = 5 * time.Minute

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when the manager is full of active sessions.
	ErrTooManySessions = errors.New("too many active sessions")
)

// Options configures a Manager.
type Options struct {
	MaxSessions int
	KeepAlive   time.Duration
	Rules       *rules.RuleSet
	Logger      *log.Logger
	Now         func() time.Time
}

// Manager owns the open customizer sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	layouts  *layout.Provider
	opts     Options
	logger   *log.Logger
}

// NewManager creates a session manager over the given layouts.
func NewManager(layouts *layout.Provider, opts Options) *Manager {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = DefaultKeepAlive
	}
	if opts.Rules == nil {
		opts.Rules = rules.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Manager{
		sessions: make(map[string]*Session),
		layouts:  layouts,
		opts:     opts,
		logger:   logger.WithPrefix("session"),
	}
}

// Create opens an empty customizer for a panel type.
func (m *Manager) Create(pt models.PanelType) (State, error) {
	s, err := m.newSession(pt)
	if err != nil {
		return State{}, err
	}
	if err := m.add(s); err != nil {
		return State{}, err
	}

	m.logger.Info("session created", "id", s.ID, "panel", s.PanelType)
	return s.state(), nil
}

// CreateFromDesign opens a customizer pre-filled from a cart design. Finalizing
// the session updates the design at index instead of adding a new one.
func (m *Manager) CreateFromDesign(index int, d models.Design, icons design.IconResolver) (State, error) {
	s, err := m.newSession(d.PanelType)
	if err != nil {
		return State{}, err
	}

	snapshot, err := design.ToSnapshot(d, icons)
	if err != nil {
		return State{}, err
	}
	if err := s.store.Restore(snapshot); err != nil {
		return State{}, fmt.Errorf("design %d: %w", index, err)
	}
	s.style = d.Style
	s.quantity = d.Quantity
	if s.quantity < 1 {
		s.quantity = 1
	}
	s.SetEditing(index, d.ID)

	if err := m.add(s); err != nil {
		return State{}, err
	}

	m.logger.Info("session opened for editing", "id", s.ID, "panel", s.PanelType, "index", index)
	return s.state(), nil
}

func (m *Manager) newSession(pt models.PanelType) (*Session, error) {
	l, err := m.layouts.LayoutFor(pt)
	if err != nil {
		return nil, err
	}
	now := m.opts.Now()
	return newSession(uuid.New().String(), l, placement.New(l, m.opts.Rules), now), nil
}

func (m *Manager) add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.opts.MaxSessions {
		if !m.evictLocked() {
			return fmt.Errorf("%w (limit %d)", ErrTooManySessions, m.opts.MaxSessions)
		}
	}
	m.sessions[s.ID] = s
	return nil
}

// evictLocked drops the least recently used session if it is outside the
// keep-alive window. Callers hold m.mu.
func (m *Manager) evictLocked() bool {
	var oldest *Session
	for _, s := range m.sessions {
		if oldest == nil || s.lastAccessed.Before(oldest.lastAccessed) {
			oldest = s
		}
	}
	if oldest == nil || m.opts.Now().Sub(oldest.lastAccessed) < m.opts.KeepAlive {
		return false
	}
	delete(m.sessions, oldest.ID)
	m.logger.Info("session evicted", "id", oldest.ID, "idle", m.opts.Now().Sub(oldest.lastAccessed).Round(time.Second))
	return true
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.lastAccessed = m.opts.Now()
	return s, nil
}

// Get returns the current state of a session.
func (m *Manager) Get(id string) (State, error) {
	s, err := m.lookup(id)
	if err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(), nil
}

// With runs fn with exclusive access to a session. Every mutation of a
// session goes through With so one completes before the next begins.
func (m *Manager) With(id string, fn func(*Session) error) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

// Touch marks a session as in use.
func (m *Manager) Touch(id string) bool {
	_, err := m.lookup(id)
	return err == nil
}

// Delete closes a session.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.logger.Debug("session deleted", "id", id)
	return true
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the open session ids, most recently used first.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].lastAccessed.After(list[j].lastAccessed) })

	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}

// CleanupOldSessions removes sessions idle for longer than maxAge and returns
// how many were removed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.opts.Now().Add(-maxAge)
	removed := 0
	for id, s := range m.sessions {
		if s.lastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
			m.logger.Info("session expired", "id", id, "idle", m.opts.Now().Sub(s.lastAccessed).Round(time.Second))
		}
	}
	return removed
}

// RunCleanup calls CleanupOldSessions every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupOldSessions(maxAge)
		}
	}
}
