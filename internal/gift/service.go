package gift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glorycast/shekelz/internal/account"
	"github.com/glorycast/shekelz/internal/notification"
)

// AnonymousSender replaces the sender identity in recipient-facing views of
// anonymous gifts.
const AnonymousSender = "Anonymous"

var (
	// ErrAnonymousGift occurs when a thank-you targets an anonymous gift.
	ErrAnonymousGift = errors.New("cannot send thank you to anonymous donors")

	// ErrNoSenderContact occurs when the gift sender cannot be resolved to
	// a deliverable contact.
	ErrNoSenderContact = errors.New("no contact available for sender")

	// ErrNotRecipient occurs when someone other than the gift recipient
	// attempts to send a thank-you.
	ErrNotRecipient = errors.New("only the recipient can send a thank you")

	// ErrSelfGift occurs when sender and recipient are the same account.
	ErrSelfGift = errors.New("cannot gift yourself")
)

// Service settles gifts against the balance store and projects the ledger
// into recipient-facing views.
type Service struct {
	accounts account.Store
	repo     Repository
	notifier notification.Notifier
}

// NewService constructs a gift service.
func NewService(accounts account.Store, repo Repository, notifier notification.Notifier) *Service {
	return &Service{accounts: accounts, repo: repo, notifier: notifier}
}

// SendInput captures the data needed to settle a gift.
type SendInput struct {
	SenderID    string
	RecipientID string
	Amount      int64
	Type        Type
	Anonymous   bool
}

// Send settles a gift: the ledger row is staged pending, the sender is
// debited and the recipient credited through the balance store's atomic
// path, and only then does the row become completed. A credit failure
// refunds the sender and records the row as refunded so no Shekelz are
// lost or duplicated.
func (s *Service) Send(ctx context.Context, input SendInput) (Gift, error) {
	if input.Amount <= 0 {
		return Gift{}, account.ErrInvalidAmount
	}
	if !input.Type.Valid() {
		return Gift{}, fmt.Errorf("unknown gift type %q", input.Type)
	}
	if input.SenderID == input.RecipientID {
		return Gift{}, ErrSelfGift
	}
	if _, err := s.accounts.Get(ctx, input.RecipientID); err != nil {
		return Gift{}, fmt.Errorf("recipient: %w", err)
	}

	g := Gift{
		ID:          uuid.NewString(),
		SenderID:    input.SenderID,
		RecipientID: input.RecipientID,
		Amount:      input.Amount,
		Type:        input.Type,
		Anonymous:   input.Anonymous,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return Gift{}, fmt.Errorf("create gift: %w", err)
	}

	if _, err := s.accounts.Debit(ctx, input.SenderID, input.Amount); err != nil {
		if statusErr := s.repo.UpdateStatus(ctx, g.ID, StatusPending, StatusFailed); statusErr != nil {
			return Gift{}, fmt.Errorf("record failed gift: %w", statusErr)
		}
		return Gift{}, err
	}

	if _, err := s.accounts.Credit(ctx, input.RecipientID, input.Amount); err != nil {
		if _, refundErr := s.accounts.Credit(ctx, input.SenderID, input.Amount); refundErr != nil {
			return Gift{}, fmt.Errorf("refund sender after failed credit: %w", refundErr)
		}
		if statusErr := s.repo.UpdateStatus(ctx, g.ID, StatusPending, StatusRefunded); statusErr != nil {
			return Gift{}, fmt.Errorf("record refunded gift: %w", statusErr)
		}
		return Gift{}, fmt.Errorf("credit recipient: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, g.ID, StatusPending, StatusCompleted); err != nil {
		return Gift{}, fmt.Errorf("complete gift: %w", err)
	}
	g.Status = StatusCompleted

	if s.notifier != nil {
		from := AnonymousSender
		if !g.Anonymous {
			from = g.SenderID
		}
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindGiftReceived,
			Destination: g.RecipientID,
			Body:        fmt.Sprintf("You received %d Shekelz from %s", g.Amount, from),
		})
	}

	return g, nil
}

// Transaction is one entry in an account's transaction feed.
type Transaction struct {
	GiftID       string
	Direction    string
	Amount       int64
	Counterparty string
	Type         Type
	CreatedAt    time.Time
}

const (
	DirectionReceived = "received"
	DirectionSent     = "sent"
)

// Transactions projects the account's completed gifts into a feed: received
// gifts carry positive amounts with the sender redacted when anonymous,
// sent gifts carry negative amounts. Ordering follows the repository
// (newest first, stable ties) and the projection never writes.
func (s *Service) Transactions(ctx context.Context, accountID string) ([]Transaction, error) {
	gifts, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list gifts: %w", err)
	}

	names := map[string]string{}
	resolve := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		name := id
		if acct, err := s.accounts.Get(ctx, id); err == nil && acct.DisplayName != "" {
			name = acct.DisplayName
		}
		names[id] = name
		return name
	}

	feed := make([]Transaction, 0, len(gifts))
	for _, g := range gifts {
		if g.Status != StatusCompleted {
			continue
		}
		switch accountID {
		case g.RecipientID:
			counterparty := AnonymousSender
			if !g.Anonymous {
				counterparty = resolve(g.SenderID)
			}
			feed = append(feed, Transaction{
				GiftID:       g.ID,
				Direction:    DirectionReceived,
				Amount:       g.Amount,
				Counterparty: counterparty,
				Type:         g.Type,
				CreatedAt:    g.CreatedAt,
			})
		case g.SenderID:
			feed = append(feed, Transaction{
				GiftID:       g.ID,
				Direction:    DirectionSent,
				Amount:       -g.Amount,
				Counterparty: resolve(g.RecipientID),
				Type:         g.Type,
				CreatedAt:    g.CreatedAt,
			})
		}
	}
	return feed, nil
}

// SendThankYou dispatches a thank-you notification to a gift's sender.
// Exactly one outcome is reported: anonymous gift, unresolvable sender,
// already thanked, or dispatched. A successful dispatch sets thanked_at,
// making every retry a no-op.
func (s *Service) SendThankYou(ctx context.Context, giftID, fromAccountID string) error {
	g, err := s.repo.Get(ctx, giftID)
	if err != nil {
		return err
	}
	if g.RecipientID != fromAccountID {
		return ErrNotRecipient
	}
	if g.Anonymous {
		return ErrAnonymousGift
	}
	sender, err := s.accounts.Get(ctx, g.SenderID)
	if err != nil {
		return ErrNoSenderContact
	}
	if g.ThankedAt != nil {
		return ErrAlreadyThanked
	}

	if s.notifier != nil {
		if err := s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindThankYou,
			Destination: sender.ID,
			Body:        fmt.Sprintf("%s thanked you for your %s", fromAccountID, g.Type),
		}); err != nil {
			return fmt.Errorf("send thank you: %w", err)
		}
	}

	// The timestamp is only recorded after a successful dispatch; a
	// concurrent retry that raced the update surfaces as ErrAlreadyThanked.
	return s.repo.MarkThanked(ctx, giftID, time.Now().UTC())
}
