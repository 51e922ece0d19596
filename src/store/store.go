// Package store persists project aggregates. Each successful mutating tool
// call saves the whole aggregate before the next call runs, so a crash can
// lose at most the call in flight.
package store

import (
	"context"
	"sync"

	"github.com/taskweave/go-assistant/src/fault"
	"github.com/taskweave/go-assistant/src/project"
)

// ProjectStore saves and loads whole project aggregates.
type ProjectStore interface {
	Save(ctx context.Context, p *project.Project) error
	Load(ctx context.Context, id string) (*project.Project, error)
}

// MemoryStore keeps aggregates in process memory. It backs tests and the
// default CLI configuration where no database is reachable.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]project.Project
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[string]project.Project)}
}

func (ms *MemoryStore) Save(ctx context.Context, p *project.Project) error {
	if p == nil || p.ID == "" {
		return fault.InvalidArguments("project has no id")
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.projects[p.ID] = *p
	return nil
}

func (ms *MemoryStore) Load(ctx context.Context, id string) (*project.Project, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	p, ok := ms.projects[id]
	if !ok {
		return nil, fault.NotFound("project %s not found", id)
	}
	return &p, nil
}
