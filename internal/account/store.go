package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound occurs when no account exists for the requested identifier.
	ErrNotFound = errors.New("account not found")

	// ErrInsufficientBalance occurs when a debit would drive the balance
	// below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount occurs when a mutation amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Store is the single mutation path for Shekelz balances. Every writer
// (gift settlement, cash-out debit, cash-out compensation) goes through
// Debit/Credit so the non-negativity check and the write are one atomic
// step.
type Store interface {
	Create(ctx context.Context, acct Account) error
	Get(ctx context.Context, id string) (Account, error)
	Debit(ctx context.Context, id string, amount int64) (int64, error)
	Credit(ctx context.Context, id string, amount int64) (int64, error)
}

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds a store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts an account record.
func (s *PostgresStore) Create(ctx context.Context, acct Account) error {
	acctID, err := uuid.Parse(acct.ID)
	if err != nil {
		return err
	}
	if acct.Balance < 0 {
		return ErrInvalidAmount
	}
	_, err = s.db.Exec(ctx, `INSERT INTO accounts (id, display_name, balance, verified, payout_account_ref, created_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		acctID, acct.DisplayName, acct.Balance, acct.Verified, acct.PayoutAccountRef, acct.CreatedAt.UTC())
	return err
}

// Get fetches an account by identifier.
func (s *PostgresStore) Get(ctx context.Context, id string) (Account, error) {
	acctID, err := uuid.Parse(id)
	if err != nil {
		return Account{}, ErrNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT id, display_name, balance, verified, COALESCE(payout_account_ref, ''), created_at
        FROM accounts WHERE id = $1`, acctID)
	var a Account
	var idVal uuid.UUID
	var createdAt time.Time
	if err := row.Scan(&idVal, &a.DisplayName, &a.Balance, &a.Verified, &a.PayoutAccountRef, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.ID = idVal.String()
	a.CreatedAt = createdAt.UTC()
	return a, nil
}

// Debit subtracts amount from the balance. The balance guard and the write
// are a single conditional UPDATE, so concurrent debits against one account
// serialize in the database rather than racing a stale read.
func (s *PostgresStore) Debit(ctx context.Context, id string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	acctID, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrNotFound
	}
	var balance int64
	err = s.db.QueryRow(ctx, `UPDATE accounts SET balance = balance - $2
        WHERE id = $1 AND balance >= $2
        RETURNING balance`, acctID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	// No row matched: distinguish a missing account from an insufficient
	// balance.
	if _, getErr := s.Get(ctx, id); getErr != nil {
		return 0, getErr
	}
	return 0, ErrInsufficientBalance
}

// Credit adds amount to the balance.
func (s *PostgresStore) Credit(ctx context.Context, id string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	acctID, err := uuid.Parse(id)
	if err != nil {
		return 0, ErrNotFound
	}
	var balance int64
	err = s.db.QueryRow(ctx, `UPDATE accounts SET balance = balance + $2
        WHERE id = $1
        RETURNING balance`, acctID, amount).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("credit account %s: %w", id, err)
	}
	return balance, nil
}
