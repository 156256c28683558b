package audit

import (
	"context"
	"sync"
)

// DefaultCapacity bounds MemoryRepo when no capacity is given.
const DefaultCapacity = 1000

// MemoryRepo is a bounded in-memory append-only repository.
// Once full, the oldest event is dropped for each new one.

type MemoryRepo struct {
	mu       sync.Mutex
	capacity int
	events   []Event
}

func NewMemoryRepo(capacity int) *MemoryRepo {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryRepo{capacity: capacity}
}

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == r.capacity {
		copy(r.events, r.events[1:])
		r.events = r.events[:len(r.events)-1]
	}
	r.events = append(r.events, e)
	return nil
}

// List returns up to limit events, newest first. limit <= 0 returns everything retained.
func (r *MemoryRepo) List(ctx context.Context, limit int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Event, 0, n)
	for i := len(r.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}

func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
