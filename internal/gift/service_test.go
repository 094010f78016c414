package gift

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/glorycast/shekelz/internal/account"
	"github.com/glorycast/shekelz/internal/notification"
)

type testNotifier struct {
	sent []notification.Message
	fail error
}

func (n *testNotifier) Send(_ context.Context, msg notification.Message) error {
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, msg)
	return nil
}

func newTestAccount(t *testing.T, store account.Store, name string, balance int64) account.Account {
	t.Helper()
	acct := account.Account{
		ID:          uuid.NewString(),
		DisplayName: name,
		Balance:     balance,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Create(context.Background(), acct); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return acct
}

func TestSendSettlesGift(t *testing.T) {
	ctx := context.Background()
	accounts := account.NewMemoryStore()
	repo := NewMemoryRepository()
	notifier := &testNotifier{}
	svc := NewService(accounts, repo, notifier)

	sender := newTestAccount(t, accounts, "Ruth", 5_000)
	recipient := newTestAccount(t, accounts, "Boaz", 0)

	g, err := svc.Send(ctx, SendInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Amount:      1_500,
		Type:        TypeTip,
	})
	if err != nil {
		t.Fatalf("send gift: %v", err)
	}
	if g.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", g.Status)
	}

	senderAcct, _ := accounts.Get(ctx, sender.ID)
	recipientAcct, _ := accounts.Get(ctx, recipient.ID)
	if senderAcct.Balance != 3_500 || recipientAcct.Balance != 1_500 {
		t.Fatalf("unexpected balances: sender=%d recipient=%d", senderAcct.Balance, recipientAcct.Balance)
	}

	if len(notifier.sent) != 1 || notifier.sent[0].Kind != notification.KindGiftReceived {
		t.Fatalf("expected one gift notification, got %+v", notifier.sent)
	}
}

func TestSendInsufficientBalanceRecordsFailedGift(t *testing.T) {
	ctx := context.Background()
	accounts := account.NewMemoryStore()
	repo := NewMemoryRepository()
	svc := NewService(accounts, repo, nil)

	sender := newTestAccount(t, accounts, "Ruth", 100)
	recipient := newTestAccount(t, accounts, "Boaz", 0)

	_, err := svc.Send(ctx, SendInput{
		SenderID:    sender.ID,
		RecipientID: recipient.ID,
		Amount:      500,
		Type:        TypeDonation,
	})
	if !errors.Is(err, account.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	gifts, err := repo.ListByAccount(ctx, sender.ID)
	if err != nil {
		t.Fatalf("list gifts: %v", err)
	}
	if len(gifts) != 1 || gifts[0].Status != StatusFailed {
		t.Fatalf("expected one failed gift, got %+v", gifts)
	}

	senderAcct, _ := accounts.Get(ctx, sender.ID)
	if senderAcct.Balance != 100 {
		t.Fatalf("sender balance mutated: %d", senderAcct.Balance)
	}
}

func TestSendRejectsSelfGift(t *testing.T) {
	accounts := account.NewMemoryStore()
	svc := NewService(accounts, NewMemoryRepository(), nil)
	acct := newTestAccount(t, accounts, "Ruth", 1_000)

	_, err := svc.Send(context.Background(), SendInput{
		SenderID:    acct.ID,
		RecipientID: acct.ID,
		Amount:      100,
		Type:        TypeGift,
	})
	if !errors.Is(err, ErrSelfGift) {
		t.Fatalf("expected self gift error, got %v", err)
	}
}

func TestTransactionsProjection(t *testing.T) {
	ctx := context.Background()
	accounts := account.NewMemoryStore()
	repo := NewMemoryRepository()
	svc := NewService(accounts, repo, nil)

	viewer := newTestAccount(t, accounts, "Miriam", 0)
	friend := newTestAccount(t, accounts, "Aaron", 0)
	secret := newTestAccount(t, accounts, "Hidden", 0)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []Gift{
		{ID: uuid.NewString(), SenderID: friend.ID, RecipientID: viewer.ID, Amount: 300, Type: TypeTip, Status: StatusCompleted, CreatedAt: base},
		{ID: uuid.NewString(), SenderID: secret.ID, RecipientID: viewer.ID, Amount: 700, Type: TypeDonation, Anonymous: true, Status: StatusCompleted, CreatedAt: base.Add(time.Hour)},
		{ID: uuid.NewString(), SenderID: viewer.ID, RecipientID: friend.ID, Amount: 200, Type: TypeGift, Status: StatusCompleted, CreatedAt: base.Add(2 * time.Hour)},
		{ID: uuid.NewString(), SenderID: friend.ID, RecipientID: viewer.ID, Amount: 50, Type: TypeTip, Status: StatusPending, CreatedAt: base.Add(3 * time.Hour)},
	}
	for _, g := range rows {
		if err := repo.Create(ctx, g); err != nil {
			t.Fatalf("seed gift: %v", err)
		}
	}

	feed, err := svc.Transactions(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(feed) != 3 {
		t.Fatalf("expected 3 entries (pending excluded), got %d", len(feed))
	}

	if feed[0].Direction != DirectionSent || feed[0].Amount != -200 || feed[0].Counterparty != "Aaron" {
		t.Fatalf("unexpected newest entry: %+v", feed[0])
	}
	if feed[1].Counterparty != AnonymousSender || feed[1].Amount != 700 {
		t.Fatalf("anonymous gift not redacted: %+v", feed[1])
	}
	if feed[2].Direction != DirectionReceived || feed[2].Amount != 300 || feed[2].Counterparty != "Aaron" {
		t.Fatalf("unexpected oldest entry: %+v", feed[2])
	}
}

func TestTransactionsStableTieOrder(t *testing.T) {
	ctx := context.Background()
	accounts := account.NewMemoryStore()
	repo := NewMemoryRepository()
	svc := NewService(accounts, repo, nil)

	viewer := newTestAccount(t, accounts, "Miriam", 0)
	friend := newTestAccount(t, accounts, "Aaron", 0)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := Gift{ID: uuid.NewString(), SenderID: friend.ID, RecipientID: viewer.ID, Amount: 1, Type: TypeTip, Status: StatusCompleted, CreatedAt: at}
	second := Gift{ID: uuid.NewString(), SenderID: friend.ID, RecipientID: viewer.ID, Amount: 2, Type: TypeTip, Status: StatusCompleted, CreatedAt: at}
	for _, g := range []Gift{first, second} {
		if err := repo.Create(ctx, g); err != nil {
			t.Fatalf("seed gift: %v", err)
		}
	}

	feed, err := svc.Transactions(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(feed) != 2 || feed[0].GiftID != first.ID || feed[1].GiftID != second.ID {
		t.Fatalf("tie order not stable: %+v", feed)
	}
}

func TestThankYouDispatchOnce(t *testing.T) {
	ctx := context.Background()
	accounts := account.NewMemoryStore()
	repo := NewMemoryRepository()
	notifier := &testNotifier{}
	svc := NewService(accounts, repo, notifier)

	sender := newTestAccount(t, accounts, "Aaron", 0)
	recipient := newTestAccount(t, accounts, "Miriam", 0)
	g := Gift{ID: uuid.NewString(), SenderID: sender.ID, RecipientID: recipient.ID, Amount: 100, Type: TypeGift, Status: StatusCompleted, CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, g); err != nil {
		t.Fatalf("seed gift: %v", err)
	}

	if err := svc.SendThankYou(ctx, g.ID, recipient.ID); err != nil {
		t.Fatalf("first thank you: %v", err)
	}
	if err := svc.SendThankYou(ctx, g.ID, recipient.ID); !errors.Is(err, ErrAlreadyThanked) {
		t.Fatalf("expected already thanked, got %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.sent))
	}
}

func TestThankYouRejectsAnonymous(t *testing.T) {
	ctx := context.Background()
	accounts := account.NewMemoryStore()
	repo := NewMemoryRepository()
	svc := NewService(accounts, repo, &testNotifier{})

	sender := newTestAccount(t, accounts, "Hidden", 0)
	recipient := newTestAccount(t, accounts, "Miriam", 0)
	g := Gift{ID: uuid.NewString(), SenderID: sender.ID, RecipientID: recipient.ID, Amount: 100, Type: TypeDonation, Anonymous: true, Status: StatusCompleted, CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, g); err != nil {
		t.Fatalf("seed gift: %v", err)
	}

	if err := svc.SendThankYou(ctx, g.ID, recipient.ID); !errors.Is(err, ErrAnonymousGift) {
		t.Fatalf("expected anonymous error, got %v", err)
	}
}

func TestThankYouUnresolvableSender(t *testing.T) {
	ctx := context.Background()
	accounts := account.NewMemoryStore()
	repo := NewMemoryRepository()
	svc := NewService(accounts, repo, &testNotifier{})

	recipient := newTestAccount(t, accounts, "Miriam", 0)
	g := Gift{ID: uuid.NewString(), SenderID: uuid.NewString(), RecipientID: recipient.ID, Amount: 100, Type: TypeGift, Status: StatusCompleted, CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, g); err != nil {
		t.Fatalf("seed gift: %v", err)
	}

	if err := svc.SendThankYou(ctx, g.ID, recipient.ID); !errors.Is(err, ErrNoSenderContact) {
		t.Fatalf("expected no contact error, got %v", err)
	}
}

func TestThankYouFailedDispatchLeavesUnthanked(t *testing.T) {
	ctx := context.Background()
	accounts := account.NewMemoryStore()
	repo := NewMemoryRepository()
	notifier := &testNotifier{fail: errors.New("smtp down")}
	svc := NewService(accounts, repo, notifier)

	sender := newTestAccount(t, accounts, "Aaron", 0)
	recipient := newTestAccount(t, accounts, "Miriam", 0)
	g := Gift{ID: uuid.NewString(), SenderID: sender.ID, RecipientID: recipient.ID, Amount: 100, Type: TypeGift, Status: StatusCompleted, CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, g); err != nil {
		t.Fatalf("seed gift: %v", err)
	}

	if err := svc.SendThankYou(ctx, g.ID, recipient.ID); err == nil {
		t.Fatal("expected dispatch failure")
	}

	// A failed dispatch must not burn the one-shot timestamp.
	notifier.fail = nil
	if err := svc.SendThankYou(ctx, g.ID, recipient.ID); err != nil {
		t.Fatalf("retry after failed dispatch: %v", err)
	}
}
