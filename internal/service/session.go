package service

import (
	"sync"
	"time"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/cloo-solutions/propertybot/internal/telemetry"
)

// SessionHistoryLimit is how many messages a session replays to the model.
const SessionHistoryLimit = 10

// ChatSession is the state of one open chat connection.
type ChatSession struct {
	ID       string
	OpenedAt time.Time

	mu         sync.Mutex
	lastTurnID string
	turns      int
	history    []domain.ChatMessage
}

// Remember appends a question and its answer to the session history,
// dropping the oldest messages beyond SessionHistoryLimit.
func (s *ChatSession) Remember(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		domain.ChatMessage{Role: domain.ChatRoleUser, Content: question},
		domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: answer},
	)
	if over := len(s.history) - SessionHistoryLimit; over > 0 {
		s.history = append(s.history[:0:0], s.history[over:]...)
	}
}

// History returns a copy of the remembered messages, oldest first.
func (s *ChatSession) History() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.history...)
}

// RecordTurn remembers the most recent turn delivered on the connection.
func (s *ChatSession) RecordTurn(turnID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTurnID = turnID
	s.turns++
}

// LastTurnID returns the ID of the most recent turn, empty before the greeting.
func (s *ChatSession) LastTurnID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTurnID
}

// Turns returns the number of turns delivered, greeting included.
func (s *ChatSession) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

// SessionRegistry tracks open chat connections. Sessions are created when a
// connection opens and must be closed when it ends.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*ChatSession
	uuidGen  UUIDGenerator
	metrics  *telemetry.Metrics
}

// NewSessionRegistry creates a new SessionRegistry
func NewSessionRegistry(metrics *telemetry.Metrics) *SessionRegistry {
	return NewSessionRegistryWithUUIDGen(metrics, &DefaultUUIDGenerator{})
}

// NewSessionRegistryWithUUIDGen creates a new SessionRegistry with custom UUID generator (for testing)
func NewSessionRegistryWithUUIDGen(metrics *telemetry.Metrics, uuidGen UUIDGenerator) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*ChatSession),
		uuidGen:  uuidGen,
		metrics:  metrics,
	}
}

// Open registers a new session.
func (r *SessionRegistry) Open() *ChatSession {
	s := &ChatSession{ID: r.uuidGen.NewString(), OpenedAt: time.Now().UTC()}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.metrics.SessionOpened()
	return s
}

// Get returns a registered session.
func (r *SessionRegistry) Get(id string) (*ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotRegistered
	}
	return s, nil
}

// Close removes a session. Closing an unknown session is a no-op.
func (r *SessionRegistry) Close(id string) {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		r.metrics.SessionClosed()
	}
}

// Len returns the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
