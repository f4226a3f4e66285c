package state

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps thread state in process memory. It is the default store
// when no Postgres DSN is configured; state is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*ThreadState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]*ThreadState)}
}

func (s *MemoryStore) Load(_ context.Context, threadID string) (*ThreadState, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, ErrInvalidThread
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.threads[threadID]
	if !ok {
		return nil, ErrStateNotFound
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, st *ThreadState) error {
	if st == nil {
		return ErrNilThreadState
	}
	if strings.TrimSpace(st.ThreadID) == "" {
		return ErrInvalidThread
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[st.ThreadID] = st.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, threadID string) error {
	if strings.TrimSpace(threadID) == "" {
		return ErrInvalidThread
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads, threadID)
	return nil
}
