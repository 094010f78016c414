package cashout

import (
	"context"

	"github.com/google/uuid"
)

// Processor represents a connector to the external payment processor that
// moves real money to the account's linked payout destination.
type Processor interface {
	InitiateTransfer(ctx context.Context, cashAmountCents int64, requestID string) (TransferDecision, error)
}

// TransferDecision captures the processor's response to a transfer request.
type TransferDecision struct {
	Reference string
	Status    string
}

// StaticProcessor simulates a processor that accepts every transfer.
type StaticProcessor struct{}

// InitiateTransfer approves the transfer with a synthetic reference.
func (StaticProcessor) InitiateTransfer(_ context.Context, _ int64, _ string) (TransferDecision, error) {
	return TransferDecision{Reference: uuid.NewString(), Status: "accepted"}, nil
}
