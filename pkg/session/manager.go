package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultIdleTTL is how long a conversation may sit idle before the
// cleanup sweep evicts it.
const DefaultIdleTTL = 2 * time.Hour

// Manager owns the set of live conversations, keyed by session ID.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Conversation
	idleTTL  time.Duration
	maxTurns int
	cron     *cron.Cron

	// OnEvict, when set, runs for each conversation removed by Sweep.
	// It is called outside the manager lock.
	OnEvict func(*Conversation)
}

// NewManager creates a session manager. A non-positive idleTTL falls
// back to DefaultIdleTTL; a non-positive maxTurns to DefaultMaxTurns.
func NewManager(idleTTL time.Duration, maxTurns int) *Manager {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Manager{
		sessions: make(map[string]*Conversation),
		idleTTL:  idleTTL,
		maxTurns: maxTurns,
	}
}

// Create registers a new conversation and returns it.
func (m *Manager) Create() *Conversation {
	conv := newConversation(uuid.New().String(), m.maxTurns)

	m.mu.Lock()
	m.sessions[conv.ID] = conv
	m.mu.Unlock()

	log.Debug().Str("session_id", conv.ID).Msg("Session created")
	return conv
}

// Get returns the conversation for id, or nil if none exists.
func (m *Manager) Get(id string) *Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// GetOrCreate returns the conversation for id, creating one under that
// ID if it does not exist yet. Chat requests may carry session IDs the
// manager has never seen, such as after a restart.
func (m *Manager) GetOrCreate(id string) *Conversation {
	if id == "" {
		return m.Create()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if conv, ok := m.sessions[id]; ok {
		return conv
	}
	conv := newConversation(id, m.maxTurns)
	m.sessions[id] = conv
	return conv
}

// Delete removes the conversation for id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	delete(m.sessions, id)
	return nil
}

// Reset clears the conversation's history without removing it.
func (m *Manager) Reset(id string) error {
	conv := m.Get(id)
	if conv == nil {
		return fmt.Errorf("session not found: %s", id)
	}
	conv.Clear()
	return nil
}

// Count returns the number of live conversations.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep evicts every conversation idle longer than the manager's TTL
// and returns how many were removed.
func (m *Manager) Sweep() int {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var evicted []*Conversation
	for id, conv := range m.sessions {
		if conv.LastActive().Before(cutoff) {
			evicted = append(evicted, conv)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, conv := range evicted {
		log.Info().Str("session_id", conv.ID).Msg("Idle session evicted")
		if m.OnEvict != nil {
			m.OnEvict(conv)
		}
	}
	return len(evicted)
}

// StartCleanup schedules Sweep on the given cron spec, for example
// "@every 15m".
func (m *Manager) StartCleanup(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { m.Sweep() }); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	c.Start()
	m.cron = c
	return nil
}

// StopCleanup stops the cleanup schedule, if running.
func (m *Manager) StopCleanup() {
	if m.cron != nil {
		m.cron.Stop()
		m.cron = nil
	}
}
