package models

import "time"

type MatchmakingStatus string

const (
	MatchmakingStatusSearching MatchmakingStatus = "SEARCHING"
	MatchmakingStatusMatched   MatchmakingStatus = "MATCHED"
)

// MatchmakingEntry is ephemeral queue state; it lives only in the queue
// store under a bounded TTL and is removed on match, cancel, or timeout.
type MatchmakingEntry struct {
	UserID      string            `json:"user_id"`
	StakeAmount int64             `json:"stake_amount"`
	EnqueuedAt  time.Time         `json:"enqueued_at"`
	Status      MatchmakingStatus `json:"status"`
	// LockEntryID is the BET_LOCK ledger entry backing this queue entry; it
	// is copied onto the game at match time so the lock stays traceable.
	LockEntryID string `json:"lock_entry_id,omitempty"`
}

type JoinResult struct {
	Status string `json:"status"` // "matched" or "searching"
	GameID string `json:"game_id,omitempty"`
}
