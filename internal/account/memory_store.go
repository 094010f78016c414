package account

import (
	"context"
	"errors"
	"sync"
)

type memoryStore struct {
	mu      sync.Mutex
	storage map[string]Account
}

// NewMemoryStore constructs an in-memory store for tests and dev mode.
// The map mutex is held across the balance check and the write, matching
// the conditional-update contract of the Postgres store.
func NewMemoryStore() Store {
	return &memoryStore{storage: make(map[string]Account)}
}

func (s *memoryStore) Create(_ context.Context, acct Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.storage[acct.ID]; exists {
		return errors.New("account exists")
	}
	if acct.Balance < 0 {
		return ErrInvalidAmount
	}
	s.storage[acct.ID] = acct
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.storage[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (s *memoryStore) Debit(_ context.Context, id string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.storage[id]
	if !ok {
		return 0, ErrNotFound
	}
	if acct.Balance < amount {
		return 0, ErrInsufficientBalance
	}
	acct.Balance -= amount
	s.storage[id] = acct
	return acct.Balance, nil
}

func (s *memoryStore) Credit(_ context.Context, id string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.storage[id]
	if !ok {
		return 0, ErrNotFound
	}
	acct.Balance += amount
	s.storage[id] = acct
	return acct.Balance, nil
}
