package profile

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string]Profile
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{store: make(map[string]Profile)}
}

func (r *memoryRepository) Upsert(_ context.Context, p Profile) error {
	if p.ClerkID == "" {
		return ErrMissingClerkID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[p.ClerkID] = cloneProfile(p)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, clerkID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.store[clerkID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneProfile(p)
	return &out, nil
}

func (r *memoryRepository) Delete(_ context.Context, clerkID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, clerkID)
	return nil
}

func (r *memoryRepository) Ping(context.Context) error { return nil }

func cloneProfile(p Profile) Profile {
	return Profile{ClerkID: p.ClerkID, FirstName: cloneString(p.FirstName), LastName: cloneString(p.LastName)}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
