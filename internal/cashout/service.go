package cashout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glorycast/shekelz/internal/account"
	"github.com/glorycast/shekelz/internal/notification"
)

const (
	// DefaultMinAmount is the smallest cash-out, in Shekelz.
	DefaultMinAmount int64 = 2000

	// CentsPerShekel is the payout conversion rate: 1 Shekel pays out
	// $0.01. The $0.10 figure used for on-platform spending display is a
	// presentation concern and never enters the ledger.
	CentsPerShekel int64 = 1
)

const (
	reasonNotVerified         = "User not verified"
	reasonNoPayoutAccount     = "No payout account linked"
	reasonInsufficientBalance = "Insufficient balance"
)

var (
	// ErrNotEligible occurs when the account fails the eligibility gate.
	ErrNotEligible = errors.New("not eligible for cash out")

	// ErrTransferFailed occurs when the external transfer was rejected and
	// the debit has been compensated.
	ErrTransferFailed = errors.New("cash out failed and your Shekelz balance was restored")
)

// Eligibility is the result of the read-only cash-out gate.
type Eligibility struct {
	Eligible  bool
	Balance   int64
	MinAmount int64
	Reason    string
}

// Service runs the cash-out workflow: eligibility gate, request creation,
// balance debit, external transfer, and compensation when the transfer
// fails.
type Service struct {
	accounts        account.Store
	repo            Repository
	processor       Processor
	notifier        notification.Notifier
	minAmount       int64
	transferTimeout time.Duration
}

// NewService constructs a cash-out service. A nil processor falls back to
// the static stub.
func NewService(accounts account.Store, repo Repository, processor Processor, notifier notification.Notifier, minAmount int64, transferTimeout time.Duration) *Service {
	if processor == nil {
		processor = StaticProcessor{}
	}
	if minAmount <= 0 {
		minAmount = DefaultMinAmount
	}
	if transferTimeout <= 0 {
		transferTimeout = 10 * time.Second
	}
	return &Service{
		accounts:        accounts,
		repo:            repo,
		processor:       processor,
		notifier:        notifier,
		minAmount:       minAmount,
		transferTimeout: transferTimeout,
	}
}

// CheckEligibility reports whether the account may request a cash-out. It
// is read-only and never propagates a fault: lookup failures come back as
// a not-eligible result. When several conditions fail, only the
// highest-priority reason is reported: verification, then payout account,
// then balance.
func (s *Service) CheckEligibility(ctx context.Context, accountID string) Eligibility {
	out := Eligibility{MinAmount: s.minAmount}

	acct, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		out.Reason = err.Error()
		return out
	}

	out.Balance = acct.Balance
	switch {
	case !acct.Verified:
		out.Reason = reasonNotVerified
	case !acct.HasPayoutAccount():
		out.Reason = reasonNoPayoutAccount
	case acct.Balance < s.minAmount:
		out.Reason = reasonInsufficientBalance
	default:
		out.Eligible = true
	}
	return out
}

// RequestCashOut converts amount Shekelz into an external money transfer.
//
// The request row is created pending, the balance is debited through the
// store's conditional path, and only then is the processor invoked. Every
// exit leaves exactly one of: no row and no debit, or a row whose status
// accounts for the debit (processing, or failed after compensation). Once
// the debit lands the workflow runs to processing or failed regardless of
// caller cancellation.
func (s *Service) RequestCashOut(ctx context.Context, accountID string, amount int64) (Request, error) {
	elig := s.CheckEligibility(ctx, accountID)
	if !elig.Eligible {
		return Request{}, fmt.Errorf("%w: %s", ErrNotEligible, elig.Reason)
	}
	if amount > elig.Balance {
		return Request{}, account.ErrInsufficientBalance
	}
	if amount < s.minAmount {
		return Request{}, fmt.Errorf("minimum cash out amount is %d Shekelz", s.minAmount)
	}

	req := Request{
		ID:              uuid.NewString(),
		AccountID:       accountID,
		Amount:          amount,
		CashAmountCents: amount * CentsPerShekel,
		Status:          StatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return Request{}, fmt.Errorf("create cash out request: %w", err)
	}

	if _, err := s.accounts.Debit(ctx, accountID, amount); err != nil {
		// The row must not outlive a debit that never applied. If the
		// delete fails too, fail the row instead so the recovery sweep
		// cannot mistake it for an owed compensation.
		if delErr := s.repo.Delete(ctx, req.ID); delErr != nil {
			if failErr := s.repo.MarkFailed(ctx, req.ID, fmt.Sprintf("balance debit failed: %v", err)); failErr != nil {
				return Request{}, fmt.Errorf("failed to update balance: %v (rollback: %w)", err, failErr)
			}
		}
		return Request{}, fmt.Errorf("failed to update balance: %w", err)
	}

	// From here on the debit is durable; detach the transfer from the
	// caller's context so cancellation cannot abandon it mid-flight.
	transferCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.transferTimeout)
	defer cancel()

	decision, err := s.processor.InitiateTransfer(transferCtx, req.CashAmountCents, req.ID)
	if err != nil {
		return Request{}, s.compensate(ctx, req, err)
	}

	if err := s.repo.MarkProcessing(ctx, req.ID, decision.Reference); err != nil {
		return Request{}, s.compensate(ctx, req, fmt.Errorf("record transfer acceptance: %w", err))
	}

	req.Status = StatusProcessing
	req.TransferRef = decision.Reference
	return req, nil
}

// compensate reverses the debit of a pending request after the transfer
// failed. Claiming the pending->failed transition first makes the credit
// at-most-once between this path and the recovery sweep; a crash between
// the claim and the credit is the residual window the sweep cannot see.
func (s *Service) compensate(ctx context.Context, req Request, cause error) error {
	if err := s.repo.MarkFailed(ctx, req.ID, cause.Error()); err != nil {
		if errors.Is(err, ErrNotPending) {
			// Lost the claim; whoever moved the request owns the credit.
			return fmt.Errorf("%w: %v", ErrTransferFailed, cause)
		}
		return fmt.Errorf("record transfer failure: %w", err)
	}
	if _, err := s.accounts.Credit(ctx, req.AccountID, req.Amount); err != nil {
		return fmt.Errorf("restore balance after failed transfer: %w", err)
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindCashOutFailed,
			Destination: req.AccountID,
			Body:        fmt.Sprintf("Your cash out of %d Shekelz failed and the balance was restored", req.Amount),
		})
	}

	return fmt.Errorf("%w: %v", ErrTransferFailed, cause)
}

// CompleteTransfer handles the processor's out-of-band callback that a
// transfer settled. Completion is idempotent: replaying a callback for an
// already-completed request is a no-op.
func (s *Service) CompleteTransfer(ctx context.Context, requestID, transferRef string) error {
	req, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.TransferRef != transferRef {
		return fmt.Errorf("transfer reference mismatch for request %s", requestID)
	}
	if req.Status == StatusCompleted {
		return nil
	}
	return s.repo.MarkCompleted(ctx, requestID)
}

// Get returns a single cash-out request.
func (s *Service) Get(ctx context.Context, requestID string) (Request, error) {
	return s.repo.Get(ctx, requestID)
}

// ListByAccount returns the account's cash-out history, newest first.
func (s *Service) ListByAccount(ctx context.Context, accountID string) ([]Request, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// RecoverStuck repairs requests abandoned between debit and resolution,
// for example by a crash mid-workflow. Any request still pending after
// olderThan is claimed via the same pending->failed transition the inline
// path uses and its debit credited back. Returns the number recovered.
func (s *Service) RecoverStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	stuck, err := s.repo.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stuck requests: %w", err)
	}

	recovered := 0
	for _, req := range stuck {
		if err := s.repo.MarkFailed(ctx, req.ID, "transfer outcome unknown, recovered by sweep"); err != nil {
			if errors.Is(err, ErrNotPending) {
				continue
			}
			return recovered, fmt.Errorf("claim stuck request %s: %w", req.ID, err)
		}
		if _, err := s.accounts.Credit(ctx, req.AccountID, req.Amount); err != nil {
			return recovered, fmt.Errorf("restore balance for request %s: %w", req.ID, err)
		}
		recovered++
	}
	return recovered, nil
}
