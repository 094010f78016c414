package cashout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound occurs when no request exists for the identifier.
	ErrNotFound = errors.New("cash out request not found")

	// ErrNotPending occurs when a conditional transition out of pending
	// finds the request already moved on. The caller that loses this race
	// must not compensate; someone else owns the request now.
	ErrNotPending = errors.New("cash out request is not pending")

	// ErrNotProcessing occurs when a completion callback targets a request
	// that is not in processing.
	ErrNotProcessing = errors.New("cash out request is not processing")
)

// Repository persists cash-out request rows.
type Repository interface {
	Create(ctx context.Context, req Request) error
	Get(ctx context.Context, id string) (Request, error)
	ListByAccount(ctx context.Context, accountID string) ([]Request, error)
	// Delete removes a request row; used only to roll back a creation whose
	// debit never applied.
	Delete(ctx context.Context, id string) error
	// MarkProcessing transitions pending -> processing, recording the
	// external transfer reference.
	MarkProcessing(ctx context.Context, id, transferRef string) error
	// MarkFailed transitions pending -> failed. The conditional transition
	// is the claim point for compensation: exactly one caller wins it.
	MarkFailed(ctx context.Context, id, errorMessage string) error
	// MarkCompleted transitions processing -> completed.
	MarkCompleted(ctx context.Context, id string) error
	// ListPendingBefore returns pending requests created before the cutoff,
	// candidates for the recovery sweep.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Request, error)
}

// PostgresRepository stores cash-out requests in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a request row.
func (r *PostgresRepository) Create(ctx context.Context, req Request) error {
	reqID, err := uuid.Parse(req.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO cash_out_requests (id, account_id, amount, cash_amount_cents, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		reqID, req.AccountID, req.Amount, req.CashAmountCents, string(req.Status), req.CreatedAt.UTC())
	return err
}

// Get fetches a request by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Request, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return Request{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, account_id, amount, cash_amount_cents, status, COALESCE(transfer_ref, ''), COALESCE(error_message, ''), created_at, processed_at
        FROM cash_out_requests WHERE id = $1`, reqID)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	return req, nil
}

// ListByAccount returns the account's requests, newest first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]Request, error) {
	rows, err := r.db.Query(ctx, `SELECT id, account_id, amount, cash_amount_cents, status, COALESCE(transfer_ref, ''), COALESCE(error_message, ''), created_at, processed_at
        FROM cash_out_requests WHERE account_id = $1
        ORDER BY created_at DESC, id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// Delete removes a request row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM cash_out_requests WHERE id = $1`, reqID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkProcessing records the transfer reference and moves the request to
// processing.
func (r *PostgresRepository) MarkProcessing(ctx context.Context, id, transferRef string) error {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE cash_out_requests
        SET status = $2, transfer_ref = $3, processed_at = $4
        WHERE id = $1 AND status = $5`,
		reqID, string(StatusProcessing), transferRef, time.Now().UTC(), string(StatusPending))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

// MarkFailed moves a pending request to failed with the error message.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id, errorMessage string) error {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE cash_out_requests
        SET status = $2, error_message = $3, processed_at = $4
        WHERE id = $1 AND status = $5`,
		reqID, string(StatusFailed), errorMessage, time.Now().UTC(), string(StatusPending))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

// MarkCompleted moves a processing request to completed.
func (r *PostgresRepository) MarkCompleted(ctx context.Context, id string) error {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE cash_out_requests
        SET status = $2, processed_at = $3
        WHERE id = $1 AND status = $4`,
		reqID, string(StatusCompleted), time.Now().UTC(), string(StatusProcessing))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotProcessing
	}
	return nil
}

// ListPendingBefore returns stale pending requests for the recovery sweep.
func (r *PostgresRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]Request, error) {
	rows, err := r.db.Query(ctx, `SELECT id, account_id, amount, cash_amount_cents, status, COALESCE(transfer_ref, ''), COALESCE(error_message, ''), created_at, processed_at
        FROM cash_out_requests WHERE status = $1 AND created_at < $2
        ORDER BY created_at`, string(StatusPending), cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	var requests []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var idVal uuid.UUID
	var status string
	var createdAt time.Time
	var processedAt *time.Time
	if err := row.Scan(&idVal, &req.AccountID, &req.Amount, &req.CashAmountCents, &status, &req.TransferRef, &req.ErrorMessage, &createdAt, &processedAt); err != nil {
		return Request{}, err
	}
	req.ID = idVal.String()
	req.Status = Status(status)
	req.CreatedAt = createdAt.UTC()
	if processedAt != nil {
		t := processedAt.UTC()
		req.ProcessedAt = &t
	}
	return req, nil
}
