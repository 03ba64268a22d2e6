package members

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Source.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[int64][]Member // projectId -> members
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[int64][]Member)}
}

// Add registers members on a project.
func (r *MemoryRepo) Add(projectID int64, items ...Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[projectID] = append(r.data[projectID], items...)
}

// ListMembers returns a copy of the project's members in insertion order.
func (r *MemoryRepo) ListMembers(ctx context.Context, projectID int64) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if projectID <= 0 {
		return nil, ErrInvalidProject
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Member, len(r.data[projectID]))
	copy(out, r.data[projectID])
	return out, nil
}

var _ Source = (*MemoryRepo)(nil)
