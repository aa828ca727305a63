package models

import "time"

type GameStatus string

const (
	GameStatusWaiting    GameStatus = "WAITING"
	GameStatusInProgress GameStatus = "IN_PROGRESS"
	GameStatusCompleted  GameStatus = "COMPLETED"
	GameStatusCancelled  GameStatus = "CANCELLED"
)

const (
	PiecesPerPlayer = 4
	// TrackEnd is the terminal track position; a piece at or past it is home.
	TrackEnd = 57
	DiceMax  = 6
)

// GameState is the turn-level state mutated only by the game engine while
// the game is IN_PROGRESS.
type GameState struct {
	Turn             string           `json:"turn"`
	Player1Positions []int            `json:"player1_positions"`
	Player2Positions []int            `json:"player2_positions"`
	PendingRoll      int              `json:"pending_roll"` // 0 = no roll pending
	RollNonce        int64            `json:"roll_nonce"`
	Disconnects      map[string]int64 `json:"disconnects,omitempty"` // userId -> unix ts
}

type FinalResult struct {
	Winner           string `json:"winner"`
	Player1Positions []int  `json:"player1_positions"`
	Player2Positions []int  `json:"player2_positions"`
}

type Game struct {
	ID               string       `json:"id" redis:"id"`
	Player1ID        string       `json:"player1_id" redis:"player1_id"`
	Player2ID        string       `json:"player2_id" redis:"player2_id"`
	StakeAmount      int64        `json:"stake_amount" redis:"stake_amount"`
	CommissionAmount int64        `json:"commission_amount" redis:"commission_amount"`
	Player1LockID    string       `json:"player1_lock_id,omitempty" redis:"player1_lock_id"`
	Player2LockID    string       `json:"player2_lock_id,omitempty" redis:"player2_lock_id"`
	Status           GameStatus   `json:"status" redis:"status"`
	WinnerID         string       `json:"winner_id,omitempty" redis:"winner_id"`
	GameState        *GameState   `json:"game_state,omitempty" redis:"game_state"`
	FinalResult      *FinalResult `json:"final_result,omitempty" redis:"final_result"`
	ServerSeedHash   string       `json:"server_seed_hash,omitempty" redis:"server_seed_hash"`
	StartedAt        *time.Time   `json:"started_at,omitempty" redis:"started_at"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty" redis:"completed_at"`
	CreatedAt        time.Time    `json:"created_at" redis:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" redis:"updated_at"`
}

// HasPlayer reports whether userID is one of the two participants.
func (g *Game) HasPlayer(userID string) bool {
	return g.Player1ID == userID || g.Player2ID == userID
}

// Opponent returns the other participant, or "" if userID is not a player.
func (g *Game) Opponent(userID string) string {
	switch userID {
	case g.Player1ID:
		return g.Player2ID
	case g.Player2ID:
		return g.Player1ID
	}
	return ""
}
