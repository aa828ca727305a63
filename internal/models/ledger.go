package models

import "time"

type TransactionType string

const (
	TransactionTypeDeposit         TransactionType = "DEPOSIT"
	TransactionTypeBetLock         TransactionType = "BET_LOCK"
	TransactionTypeBetRelease      TransactionType = "BET_RELEASE"
	TransactionTypeWinCredit       TransactionType = "WIN_CREDIT"
	TransactionTypeWithdrawRequest TransactionType = "WITHDRAW_REQUEST"
	TransactionTypeWithdrawSuccess TransactionType = "WITHDRAW_SUCCESS"
	TransactionTypePenalty         TransactionType = "PENALTY"
	TransactionTypeCommission      TransactionType = "COMMISSION"
)

// LedgerEntry is an immutable fact. Entries are only ever appended to a
// user's ledger; a reversal is a new entry of opposite effect, never an edit.
// All amounts are minor units (cents).
type LedgerEntry struct {
	ID     string          `json:"id" redis:"id"`
	UserID string          `json:"user_id" redis:"user_id"`
	Type   TransactionType `json:"type" redis:"type"`
	Amount int64           `json:"amount" redis:"amount"`

	// Snapshots computed at append time from the entire prior history,
	// under the per-user serialization point. BalanceAfter is the total
	// (available + locked).
	BalanceAfter   int64 `json:"balance_after" redis:"balance_after"`
	AvailableAfter int64 `json:"available_after" redis:"available_after"`
	LockedAfter    int64 `json:"locked_after" redis:"locked_after"`

	ReferenceID   string                 `json:"reference_id,omitempty" redis:"reference_id"`
	ReferenceType string                 `json:"reference_type,omitempty" redis:"reference_type"`
	Metadata      map[string]interface{} `json:"metadata,omitempty" redis:"metadata"`
	IsReversed    bool                   `json:"is_reversed" redis:"is_reversed"`
	CreatedAt     time.Time              `json:"created_at" redis:"created_at"`
}

// Balance is derived by folding a user's ledger; it is never stored.
type Balance struct {
	Available    int64 `json:"available"`
	Locked       int64 `json:"locked"`
	Total        int64 `json:"total"`
	Withdrawable int64 `json:"withdrawable"`
}

// Apply folds one entry into the running buckets. The effect per type is
// fixed; callers iterate entries in creation order.
func (b *Balance) Apply(e *LedgerEntry) {
	if e.IsReversed {
		return
	}

	switch e.Type {
	case TransactionTypeDeposit, TransactionTypeWinCredit:
		b.Available += e.Amount
	case TransactionTypeBetRelease:
		b.Available += e.Amount
		b.Locked -= e.Amount
	case TransactionTypeBetLock:
		b.Available -= e.Amount
		b.Locked += e.Amount
	case TransactionTypeWithdrawRequest, TransactionTypeWithdrawSuccess,
		TransactionTypePenalty, TransactionTypeCommission:
		b.Available -= e.Amount
	}
}

// Clamped returns the reportable view: buckets floored at zero. This is a
// defensive floor for out-of-order crediting, not a correction of the data.
func (b Balance) Clamped() Balance {
	out := Balance{
		Available:    max64(0, b.Available),
		Locked:       max64(0, b.Locked),
		Withdrawable: max64(0, b.Available),
	}
	out.Total = out.Available + out.Locked
	return out
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
