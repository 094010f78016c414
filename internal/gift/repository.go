package gift

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound occurs when no gift exists for the requested identifier.
	ErrNotFound = errors.New("gift not found")

	// ErrAlreadyThanked occurs when a thank-you is dispatched for a gift
	// whose thanked_at timestamp is already set.
	ErrAlreadyThanked = errors.New("already thanked")

	// ErrStatusConflict occurs when a conditional status transition finds
	// the gift in a different state than expected.
	ErrStatusConflict = errors.New("gift status conflict")
)

// Repository persists gift ledger rows.
type Repository interface {
	Create(ctx context.Context, g Gift) error
	Get(ctx context.Context, id string) (Gift, error)
	// ListByAccount returns gifts where the account is sender or recipient,
	// newest first.
	ListByAccount(ctx context.Context, accountID string) ([]Gift, error)
	// UpdateStatus transitions status from -> to, failing with
	// ErrStatusConflict when the gift is not in the expected state.
	UpdateStatus(ctx context.Context, id string, from, to Status) error
	// MarkThanked sets thanked_at once; a second call fails with
	// ErrAlreadyThanked.
	MarkThanked(ctx context.Context, id string, at time.Time) error
}

// PostgresRepository stores gifts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a gift row.
func (r *PostgresRepository) Create(ctx context.Context, g Gift) error {
	giftID, err := uuid.Parse(g.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO gifts (id, sender_id, recipient_id, amount, gift_type, is_anonymous, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		giftID, g.SenderID, g.RecipientID, g.Amount, string(g.Type), g.Anonymous, string(g.Status), g.CreatedAt.UTC())
	return err
}

// Get fetches a gift by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Gift, error) {
	giftID, err := uuid.Parse(id)
	if err != nil {
		return Gift{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, sender_id, recipient_id, amount, gift_type, is_anonymous, status, created_at, thanked_at
        FROM gifts WHERE id = $1`, giftID)
	g, err := scanGift(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Gift{}, ErrNotFound
		}
		return Gift{}, err
	}
	return g, nil
}

// ListByAccount returns the account's sent and received gifts, newest first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]Gift, error) {
	rows, err := r.db.Query(ctx, `SELECT id, sender_id, recipient_id, amount, gift_type, is_anonymous, status, created_at, thanked_at
        FROM gifts WHERE sender_id = $1 OR recipient_id = $1
        ORDER BY created_at DESC, id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gifts []Gift
	for rows.Next() {
		g, err := scanGift(rows)
		if err != nil {
			return nil, err
		}
		gifts = append(gifts, g)
	}
	return gifts, rows.Err()
}

// UpdateStatus performs a conditional status transition.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	giftID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE gifts SET status = $3 WHERE id = $1 AND status = $2`,
		giftID, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusConflict
	}
	return nil
}

// MarkThanked sets thanked_at if and only if it is still null.
func (r *PostgresRepository) MarkThanked(ctx context.Context, id string, at time.Time) error {
	giftID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `UPDATE gifts SET thanked_at = $2 WHERE id = $1 AND thanked_at IS NULL`,
		giftID, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyThanked
	}
	return nil
}

func scanGift(row pgx.Row) (Gift, error) {
	var g Gift
	var idVal uuid.UUID
	var giftType, status string
	var createdAt time.Time
	var thankedAt *time.Time
	if err := row.Scan(&idVal, &g.SenderID, &g.RecipientID, &g.Amount, &giftType, &g.Anonymous, &status, &createdAt, &thankedAt); err != nil {
		return Gift{}, err
	}
	g.ID = idVal.String()
	g.Type = Type(giftType)
	g.Status = Status(status)
	g.CreatedAt = createdAt.UTC()
	if thankedAt != nil {
		t := thankedAt.UTC()
		g.ThankedAt = &t
	}
	return g, nil
}
