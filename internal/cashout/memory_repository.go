package cashout

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
	rows  map[string]Request
}

// NewMemoryRepository constructs an in-memory repository for tests and dev
// mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{rows: make(map[string]Request)}
}

func (r *memoryRepository) Create(_ context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[req.ID]; exists {
		return errors.New("cash out request exists")
	}
	r.rows[req.ID] = req
	r.order = append(r.order, req.ID)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.rows[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

func (r *memoryRepository) ListByAccount(_ context.Context, accountID string) ([]Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var requests []Request
	for _, id := range r.order {
		if req := r.rows[id]; req.AccountID == accountID {
			requests = append(requests, req)
		}
	}
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return ErrNotFound
	}
	delete(r.rows, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memoryRepository) MarkProcessing(_ context.Context, id, transferRef string) error {
	return r.transition(id, StatusPending, StatusProcessing, ErrNotPending, func(req *Request) {
		req.TransferRef = transferRef
	})
}

func (r *memoryRepository) MarkFailed(_ context.Context, id, errorMessage string) error {
	return r.transition(id, StatusPending, StatusFailed, ErrNotPending, func(req *Request) {
		req.ErrorMessage = errorMessage
	})
}

func (r *memoryRepository) MarkCompleted(_ context.Context, id string) error {
	return r.transition(id, StatusProcessing, StatusCompleted, ErrNotProcessing, nil)
}

func (r *memoryRepository) ListPendingBefore(_ context.Context, cutoff time.Time) ([]Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var requests []Request
	for _, id := range r.order {
		req := r.rows[id]
		if req.Status == StatusPending && req.CreatedAt.Before(cutoff) {
			requests = append(requests, req)
		}
	}
	return requests, nil
}

func (r *memoryRepository) transition(id string, from, to Status, conflict error, apply func(*Request)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	if req.Status != from {
		return conflict
	}
	req.Status = to
	now := time.Now().UTC()
	req.ProcessedAt = &now
	if apply != nil {
		apply(&req)
	}
	r.rows[id] = req
	return nil
}
