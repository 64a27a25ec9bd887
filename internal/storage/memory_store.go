package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/avi3tal/weaveflow/pkg/types"
)

type MemoryStore struct {
	workflows map[string]types.Workflow
	opts      options
	mu        sync.RWMutex
}

func NewMemoryStore(opt ...Option) *MemoryStore {
	return &MemoryStore{
		workflows: make(map[string]types.Workflow),
		opts:      newOptions(opt),
	}
}

func (m *MemoryStore) List(_ context.Context) ([]types.Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Workflow, 0, len(m.workflows))
	for _, wf := range m.workflows {
		out = append(out, wf.Clone())
	}
	slices.SortFunc(out, func(a, b types.Workflow) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (types.Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wf, exists := m.workflows[id]
	if !exists {
		return types.Workflow{}, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return wf.Clone(), nil
}

func (m *MemoryStore) Create(_ context.Context, wf types.Workflow) (types.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wf = prepareCreate(wf, m.opts.clock.Now())
	if _, exists := m.workflows[wf.ID]; exists {
		return types.Workflow{}, fmt.Errorf("workflow already exists: %s", wf.ID)
	}
	m.workflows[wf.ID] = wf
	return wf.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, wf types.Workflow) (types.Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.workflows[wf.ID]
	if !exists {
		return types.Workflow{}, fmt.Errorf("%w: %s", ErrWorkflowNotFound, wf.ID)
	}
	wf = wf.Clone()
	if wf.Name == "" {
		wf.Name = existing.Name
	}
	wf.CreatedAt = existing.CreatedAt
	wf.UpdatedAt = m.opts.clock.Now()
	m.workflows[wf.ID] = wf
	return wf.Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.workflows[id]; !exists {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	delete(m.workflows, id)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
