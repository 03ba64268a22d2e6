package annotations

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Source.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[int64][]Annotation // projectId -> annotations
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[int64][]Annotation),
	}
}

// Add appends annotations to a project.
func (r *MemoryRepo) Add(projectID int64, items ...Annotation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[projectID] = append(r.data[projectID], items...)
}

// ListAnnotations returns a copy of the project's annotations that pass the filters,
// in insertion order.
func (r *MemoryRepo) ListAnnotations(ctx context.Context, projectID int64, filters Filters) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if projectID <= 0 {
		return Page{}, ErrInvalidProject
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Annotation, 0, len(r.data[projectID]))
	for _, a := range r.data[projectID] {
		if filters.Matches(a) {
			out = append(out, a)
		}
	}
	return Page{Results: out, Count: len(out)}, nil
}

var _ Source = (*MemoryRepo)(nil)
