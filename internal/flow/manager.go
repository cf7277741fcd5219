package flow

import (
	"log/slog"
	"sync"
)

// SessionManager tracks the live session per provider. Sessions exist only
// while the provider is inside the onboarding view; starting a new one
// replaces whatever was there before.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Start registers a fresh session for the provider, replacing any existing
// one. An abandoned session's in-flight operation finishes against the old
// session value and is simply never observed again.
func (m *SessionManager) Start(s *Session) {
	m.mu.Lock()
	if _, ok := m.sessions[s.ProviderID()]; ok {
		slog.Info("SessionManager.Start: replacing existing session", "providerID", s.ProviderID())
	}
	m.sessions[s.ProviderID()] = s
	m.mu.Unlock()
}

// Get returns the provider's live session, or nil when none exists.
func (m *SessionManager) Get(providerID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[providerID]
}

// End discards the provider's session, if any.
func (m *SessionManager) End(providerID string) {
	m.mu.Lock()
	delete(m.sessions, providerID)
	m.mu.Unlock()
}
