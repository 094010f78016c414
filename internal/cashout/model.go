package cashout

import "time"

// Status tracks a cash-out request through its lifecycle. A pending row is
// the durable record that a debit may be outstanding: the request is
// deleted if the debit never applied, and otherwise must reach processing
// or failed (with the balance restored).
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Request is one cash-out of Shekelz balance into a real-money transfer.
type Request struct {
	ID              string
	AccountID       string
	Amount          int64
	CashAmountCents int64
	Status          Status
	TransferRef     string
	ErrorMessage    string
	CreatedAt       time.Time
	ProcessedAt     *time.Time
}
