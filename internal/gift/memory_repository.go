package gift

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu    sync.Mutex
	order []string
	rows  map[string]Gift
}

// NewMemoryRepository constructs an in-memory repository for tests and dev
// mode. Insertion order is retained so listing can tie-break equal
// timestamps deterministically.
func NewMemoryRepository() Repository {
	return &memoryRepository{rows: make(map[string]Gift)}
}

func (r *memoryRepository) Create(_ context.Context, g Gift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[g.ID]; exists {
		return errors.New("gift exists")
	}
	r.rows[g.ID] = g
	r.order = append(r.order, g.ID)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Gift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.rows[id]
	if !ok {
		return Gift{}, ErrNotFound
	}
	return g, nil
}

func (r *memoryRepository) ListByAccount(_ context.Context, accountID string) ([]Gift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var gifts []Gift
	for _, id := range r.order {
		g := r.rows[id]
		if g.SenderID == accountID || g.RecipientID == accountID {
			gifts = append(gifts, g)
		}
	}
	sort.SliceStable(gifts, func(i, j int) bool {
		return gifts[i].CreatedAt.After(gifts[j].CreatedAt)
	})
	return gifts, nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id string, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	if g.Status != from {
		return ErrStatusConflict
	}
	g.Status = to
	r.rows[id] = g
	return nil
}

func (r *memoryRepository) MarkThanked(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	if g.ThankedAt != nil {
		return ErrAlreadyThanked
	}
	t := at.UTC()
	g.ThankedAt = &t
	r.rows[id] = g
	return nil
}
