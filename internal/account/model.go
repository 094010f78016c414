package account

import "time"

// Account is a platform profile holding a spendable Shekelz balance.
type Account struct {
	ID               string
	DisplayName      string
	Balance          int64
	Verified         bool
	PayoutAccountRef string
	CreatedAt        time.Time
}

// HasPayoutAccount reports whether an external payout destination is linked.
func (a Account) HasPayoutAccount() bool {
	return a.PayoutAccountRef != ""
}
