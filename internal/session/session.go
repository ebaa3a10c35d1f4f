// Package session holds the state of one interactive chat session: the
// ordered transcript and whether the completion client is ready.
//
// The transcript always begins with exactly one system message, the
// preamble, which Initialize inserts once. Nothing is persisted; a Store
// lives as long as the session that created it.
package session

import (
	"slices"
	"sync"

	"chat-fe/internal/llm"

	"github.com/google/uuid"
)

type Store struct {
	id       string
	preamble string

	mu          sync.RWMutex
	transcript  []llm.Message
	initialized bool
	ready       bool
}

// New creates an uninitialized store that will use preamble as the system
// message. The store is assigned a UUIDv7 identifier.
func New(preamble string) *Store {
	return &Store{
		id:       uuid.Must(uuid.NewV7()).String(),
		preamble: preamble,
	}
}

func (s *Store) ID() string {
	return s.id
}

// Initialize creates the transcript with only the system preamble. Calling it
// again once the transcript exists does nothing.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return
	}
	s.transcript = []llm.Message{{Role: llm.RoleSystem, Content: s.preamble}}
	s.initialized = true
}

// Transcript returns a copy of the transcript in conversation order.
func (s *Store) Transcript() []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transcript)
}

// Visible returns the transcript without system messages.
func (s *Store) Visible() []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visible := make([]llm.Message, 0, len(s.transcript))
	for _, msg := range s.transcript {
		if msg.Role == llm.RoleSystem {
			continue
		}
		visible = append(visible, msg)
	}
	return visible
}

// Append adds msg to the end of the transcript. Role order is the caller's
// responsibility.
func (s *Store) Append(msg llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, msg)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transcript)
}

func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Store) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}
