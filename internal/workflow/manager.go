package workflow

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/cvjob-dk/cvjob-backend/internal/models"
)

// Factory builds an orchestrator for a user session.
type Factory func(user models.User) *Orchestrator

// Manager owns the per-session orchestrators. Opening a session arms its
// lifecycle; closing it stops the lifecycle, which aborts any in-flight
// generation and suppresses late continuations.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Orchestrator
	factory  Factory
	logger   *slog.Logger
}

func NewManager(factory Factory, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Orchestrator),
		factory:  factory,
		logger:   logger,
	}
}

// Open creates and starts a session for the user, returning its id.
func (m *Manager) Open(user models.User) (string, *Orchestrator) {
	orch := m.factory(user)
	orch.Start()

	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = orch
	m.mu.Unlock()

	m.logger.Info("session.opened", "session_id", id, "user_id", user.ID)
	return id, orch
}

func (m *Manager) Get(id string) (*Orchestrator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orch, ok := m.sessions[id]
	return orch, ok
}

// Close tears one session down. Returns whether it existed.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	orch, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		orch.Stop()
		m.logger.Info("session.closed", "session_id", id)
	}
	return ok
}

// CloseAll stops every session. Called on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Orchestrator)
	m.mu.Unlock()

	for id, orch := range sessions {
		orch.Stop()
		m.logger.Info("session.closed", "session_id", id)
	}
}
