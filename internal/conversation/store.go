// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package conversation keeps follow-up dialogue about past analyses and the
// per-worker results that ground follow-up answers.
package conversation

import (
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/intellidrug/pkg/types"
)

// Key identifies one conversation. Subject and context are compared
// case-insensitively with surrounding space removed.
type Key struct {
	Subject string `json:"subject"`
	Context string `json:"context"`
}

// NewKey returns the normalized key for subject and context.
func NewKey(subject, context string) Key {
	return Key{Subject: normalize(subject), Context: normalize(context)}
}

type workerKey struct {
	subject string
	worker  string
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Store holds conversations and worker contexts for one process or session.
// Conversations are append-only. The store never evicts.
type Store struct {
	mu            sync.RWMutex
	conversations map[Key][]types.Message
	contexts      map[workerKey]types.WorkerResult
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[Key][]types.Message),
		contexts:      make(map[workerKey]types.WorkerResult),
	}
}

// AddMessage appends msg to the conversation for subject and context.
func (s *Store) AddMessage(subject, context string, msg types.Message) {
	k := NewKey(subject, context)
	s.mu.Lock()
	s.conversations[k] = append(s.conversations[k], msg)
	s.mu.Unlock()
}

// Conversation returns a copy of the ordered history for subject and
// context, or an empty slice for an unknown pair.
func (s *Store) Conversation(subject, context string) []types.Message {
	k := NewKey(subject, context)
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.conversations[k]
	out := make([]types.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Keys returns every conversation key, sorted by subject then context.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	keys := make([]Key, 0, len(s.conversations))
	for k := range s.conversations {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Subject != keys[j].Subject {
			return keys[i].Subject < keys[j].Subject
		}
		return keys[i].Context < keys[j].Context
	})
	return keys
}

// SetWorkerContext records the latest result a worker produced for subject.
func (s *Store) SetWorkerContext(subject, worker string, result types.WorkerResult) {
	k := workerKey{subject: normalize(subject), worker: worker}
	s.mu.Lock()
	s.contexts[k] = result
	s.mu.Unlock()
}

// WorkerContext returns the latest result recorded for subject and worker.
func (s *Store) WorkerContext(subject, worker string) (types.WorkerResult, bool) {
	k := workerKey{subject: normalize(subject), worker: worker}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.contexts[k]
	return r, ok
}
