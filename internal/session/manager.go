// Copyright (c) 2024-2026 VeraLux AI
// SPDX-License-Identifier: GPL-2.0-only

package session

import (
	"sync"

	"github.com/veralux-ai/voice-runtime/internal/commons"
)

// Manager indexes one Session per active call-control-id and routes events to the right session's queue.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	logger   commons.Logger
}

// NewManager builds an empty session index.
func NewManager(logger commons.Logger) *Manager {
	return &Manager{sessions: make(map[string]*Session), logger: logger}
}

// Register adds a newly created Session under its call-control-id.
// Overwrites any previous (necessarily ended) session under the same id.
func (m *Manager) Register(callControlID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[callControlID] = s
}

// Lookup returns the session for a call-control-id, or nil if none exists.
func (m *Manager) Lookup(callControlID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[callControlID]
}

// Enqueue routes ev to the named session, if one exists. Events for an
// unknown or already-removed call-control-id are dropped with a log line.
func (m *Manager) Enqueue(callControlID string, ev Event) {
	s := m.Lookup(callControlID)
	if s == nil {
		if m.logger != nil {
			m.logger.Debugw("dropping event for unknown session", "call_control_id", callControlID, "kind", ev.Kind())
		}
		return
	}
	s.Enqueue(ev)
}

// Deregister removes a session from the index
// "deregister from the session index" on ENDING. Callers should Wait() on
// the session first if they need its worker goroutine to have fully
// drained.
func (m *Manager) Deregister(callControlID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, callControlID)
}

// Count reports the number of currently indexed sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
