package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func seedAccount(t *testing.T, store Store, balance int64) Account {
	t.Helper()
	acct := Account{
		ID:          uuid.NewString(),
		DisplayName: "Test User",
		Balance:     balance,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Create(context.Background(), acct); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return acct
}

func TestDebitRejectsOverdraft(t *testing.T) {
	store := NewMemoryStore()
	acct := seedAccount(t, store, 1_000)
	ctx := context.Background()

	if _, err := store.Debit(ctx, acct.ID, 1_500); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	got, err := store.Get(ctx, acct.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Balance != 1_000 {
		t.Fatalf("balance mutated by rejected debit: %d", got.Balance)
	}
}

func TestDebitRejectsNonPositiveAmount(t *testing.T) {
	store := NewMemoryStore()
	acct := seedAccount(t, store, 1_000)
	ctx := context.Background()

	for _, amount := range []int64{0, -5} {
		if _, err := store.Debit(ctx, acct.ID, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %d: expected invalid amount, got %v", amount, err)
		}
	}
}

func TestDebitMissingAccount(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Debit(context.Background(), uuid.NewString(), 100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	store := NewMemoryStore()
	acct := seedAccount(t, store, 10_000)
	ctx := context.Background()

	var wg sync.WaitGroup
	var succeeded sync.Map
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Debit(ctx, acct.ID, 1_000); err == nil {
				succeeded.Store(i, true)
			}
		}(i)
	}
	wg.Wait()

	wins := 0
	succeeded.Range(func(_, _ any) bool {
		wins++
		return true
	})
	if wins != 10 {
		t.Fatalf("expected exactly 10 debits to win, got %d", wins)
	}

	got, err := store.Get(ctx, acct.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Balance != 0 {
		t.Fatalf("expected balance 0, got %d", got.Balance)
	}
}

func TestCreditThenDebitRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	acct := seedAccount(t, store, 0)
	ctx := context.Background()

	if bal, err := store.Credit(ctx, acct.ID, 2_500); err != nil || bal != 2_500 {
		t.Fatalf("credit: balance=%d err=%v", bal, err)
	}
	if bal, err := store.Debit(ctx, acct.ID, 2_500); err != nil || bal != 0 {
		t.Fatalf("debit: balance=%d err=%v", bal, err)
	}
}
