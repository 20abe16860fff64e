package wire

import (
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Session holds per-connection state. A session is one voter.
type Session struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`

	conn *websocket.Conn
}

// NewSession creates a session. An empty name defaults to the session ID.
func NewSession(name string) *Session {
	now := time.Now()
	s := &Session{
		ID:           uuid.New().String(),
		Name:         name,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if s.Name == "" {
		s.Name = s.ID
	}
	return s
}

// Touch updates the last activity timestamp.
func (s *Session) Touch() {
	s.LastActiveAt = time.Now()
}

// Manager tracks live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create creates a new session for conn and returns it.
func (m *Manager) Create(name string, conn *websocket.Conn) *Session {
	s := NewSession(name)
	s.conn = conn
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Remove deletes a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Conns returns the connections of all live sessions.
func (m *Manager) Conns() []*websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conns := make([]*websocket.Conn, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.conn != nil {
			conns = append(conns, s.conn)
		}
	}
	return conns
}
