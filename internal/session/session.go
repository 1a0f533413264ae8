// Package session tracks per-session navigation state. State is purely
// in-memory and never persisted; it exists so the UI layer reads explicit
// session-scoped state instead of ambient globals.
package session

import (
	"fmt"
	"sync"
)

// DefaultID serves single-user local use, where requests carry no session
// header.
const DefaultID = "local"

type Session struct {
	CurrentIndex int
	Drafts       map[int]string
}

type Manager struct {
	mu            sync.Mutex
	sessions      map[string]*Session
	questionCount int
}

func NewManager(questionCount int) *Manager {
	return &Manager{
		sessions:      make(map[string]*Session),
		questionCount: questionCount,
	}
}

// get returns the live session, creating it on first use. An index found out
// of bounds resets to 0 (the question list may have shrunk between runs).
func (m *Manager) get(id string) *Session {
	if id == "" {
		id = DefaultID
	}
	s, ok := m.sessions[id]
	if !ok {
		s = &Session{Drafts: make(map[int]string)}
		m.sessions[id] = s
	}
	if s.CurrentIndex < 0 || s.CurrentIndex >= m.questionCount {
		s.CurrentIndex = 0
	}
	return s
}

// CurrentIndex returns the session's clamped question index.
func (m *Manager) CurrentIndex(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id).CurrentIndex
}

// Next advances to the following question unless already at the last.
func (m *Manager) Next(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(id)
	if s.CurrentIndex < m.questionCount-1 {
		s.CurrentIndex++
	}
	return s.CurrentIndex
}

// Previous steps back unless already at the first question.
func (m *Manager) Previous(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.get(id)
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
	return s.CurrentIndex
}

// JumpTo sets the index directly, validated against the question list.
func (m *Manager) JumpTo(id string, index int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= m.questionCount {
		return 0, fmt.Errorf("question index %d out of range [0, %d)", index, m.questionCount)
	}
	s := m.get(id)
	s.CurrentIndex = index
	return s.CurrentIndex, nil
}

// SaveDraft keeps the learner's in-progress SQL for a question so it survives
// navigation within the session.
func (m *Manager) SaveDraft(id string, questionID int, sqlText string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.get(id).Drafts[questionID] = sqlText
}

func (m *Manager) Draft(id string, questionID int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id).Drafts[questionID]
}
