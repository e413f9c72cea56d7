package runstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store for tests and ephemeral hosts.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

func (s *MemoryStore) SaveRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *run
	s.runs[run.ID] = &stored
	return nil
}

func (s *MemoryStore) Run(_ context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	copied := *run
	return &copied, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, workflowName string) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var runs []*Run
	for _, run := range s.runs {
		if run.Workflow == workflowName {
			copied := *run
			runs = append(runs, &copied)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	return runs, nil
}

func (s *MemoryStore) Close() error { return nil }
