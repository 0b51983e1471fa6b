// Package session keeps one lifecycle controller per connected client for
// the HTTP server. Each session owns a push-fed location source that the
// client drives.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rxkshit04/nightpulse/internal/controller"
	"github.com/rxkshit04/nightpulse/internal/location"
	"github.com/rxkshit04/nightpulse/internal/store"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrClosed   = errors.New("session manager closed")
)

type Session struct {
	ID         string
	Controller *controller.Controller
	Feed       *location.Feed
	CreatedAt  time.Time

	lastSeen time.Time
	watchers int
}

func (s *Session) close() {
	s.Controller.Close()
	s.Feed.Close()
}

type Config struct {
	Location     location.Options
	IdleTimeout  time.Duration
	ReapInterval time.Duration
}

type Manager struct {
	client store.Client
	cfg    Config
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

func NewManager(client store.Client, cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		client:   client,
		cfg:      cfg,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
}

// Start runs the idle session reaper until ctx is done or Close is called.
// Without an idle timeout sessions live until deleted.
func (m *Manager) Start(ctx context.Context) {
	if m.cfg.IdleTimeout <= 0 || m.cfg.ReapInterval <= 0 {
		return
	}
	m.wg.Add(1)
	go m.runReaper(ctx)
}

func (m *Manager) runReaper(ctx context.Context) {
	defer m.wg.Done()
	slog.Info("starting session reaper", "interval", m.cfg.ReapInterval, "idle_timeout", m.cfg.IdleTimeout)

	ticker := time.NewTicker(m.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.reap()
		}
	}
}

func (m *Manager) reap() int {
	cutoff := m.now().Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.watchers == 0 && s.lastSeen.Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.close()
		slog.Info("reaped idle session", "session_id", s.ID)
	}
	return len(idle)
}

// Create starts a new session. Its controller waits in LocationPending until
// the client pushes a first position.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	feed := location.NewFeed()
	ctrl := controller.New(m.client, location.NewTracker(feed, m.cfg.Location))
	if err := ctrl.Start(m.ctx); err != nil {
		feed.Close()
		return nil, err
	}

	now := m.now()
	s := &Session{
		ID:         uuid.NewString(),
		Controller: ctrl,
		Feed:       feed,
		CreatedAt:  now,
		lastSeen:   now,
	}
	m.sessions[s.ID] = s

	slog.Info("session created", "session_id", s.ID)
	return s, nil
}

// Get returns the session and marks it as active.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.lastSeen = m.now()
	return s, nil
}

// Watch marks the session as streamed to until release is called. A watched
// session is never reaped, and its idle time starts again on release.
func (m *Manager) Watch(id string) (*Session, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil, ErrNotFound
	}
	s.watchers++
	s.lastSeen = m.now()

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			s.watchers--
			s.lastSeen = m.now()
		})
	}
	return s, release, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.close()
	slog.Info("session closed", "session_id", id)
	return nil
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close tears down every session and stops the reaper.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()

	for _, s := range sessions {
		s.close()
	}
	slog.Info("session manager stopped", "closed_sessions", len(sessions))
}
