package gift

import "time"

// Type categorizes a peer-to-peer Shekelz transfer.
type Type string

const (
	TypeDonation Type = "donation"
	TypeTip      Type = "tip"
	TypeGift     Type = "gift"
)

// Valid reports whether the type is one of the known categories.
func (t Type) Valid() bool {
	switch t {
	case TypeDonation, TypeTip, TypeGift:
		return true
	}
	return false
}

// Status tracks a gift through settlement. Amount is immutable once the
// gift reaches StatusCompleted; only Status and ThankedAt may change after
// creation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Gift is one append-only record of a peer-to-peer Shekelz transfer.
type Gift struct {
	ID          string
	SenderID    string
	RecipientID string
	Amount      int64
	Type        Type
	Anonymous   bool
	Status      Status
	CreatedAt   time.Time
	ThankedAt   *time.Time
}
