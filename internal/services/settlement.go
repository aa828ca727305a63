package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"ludo-stakes-backend/internal/models"
)

// SettlementEngine pays out completed games exactly once. The durable
// guard is the marker written alongside the winner's credit; the in-process
// set only short-circuits repeat calls within one process.
type SettlementEngine struct {
	store       *RedisService
	wallet      *WalletService
	broadcaster Broadcaster

	mu      sync.Mutex
	settled map[string]bool
}

func NewSettlementEngine(store *RedisService, wallet *WalletService) *SettlementEngine {
	return &SettlementEngine{
		store:   store,
		wallet:  wallet,
		settled: make(map[string]bool),
	}
}

func (se *SettlementEngine) SetBroadcaster(b Broadcaster) {
	se.broadcaster = b
}

// SettleGame credits the winner with both stakes minus commission. Calling
// it again for the same game is a no-op; callers get (false, nil).
func (se *SettlementEngine) SettleGame(gameID string) (bool, error) {
	se.mu.Lock()
	if se.settled[gameID] {
		se.mu.Unlock()
		return false, nil
	}
	se.mu.Unlock()

	game, err := se.store.GetGame(gameID)
	if err != nil {
		return false, err
	}

	if game.Status != models.GameStatusCompleted {
		return false, models.ErrGameNotActive
	}

	if game.WinnerID == "" || !game.HasPlayer(game.WinnerID) {
		return false, fmt.Errorf("settle game %s: %w: winner %q", gameID, models.ErrInvalidInput, game.WinnerID)
	}

	winnerAmount := 2*game.StakeAmount - game.CommissionAmount

	settled, err := se.wallet.SettleWinnings(game, game.WinnerID, winnerAmount)
	if err != nil {
		return false, err
	}

	se.mu.Lock()
	se.settled[gameID] = true
	se.mu.Unlock()

	if settled {
		log.Printf("Settled game %s: %s credited %s (commission %s)",
			gameID, game.WinnerID,
			models.FormatCurrency(winnerAmount), models.FormatCurrency(game.CommissionAmount))
	}

	return settled, nil
}

// ValidateAndSettleGame is the websocket-path entry point: the caller must
// be a participant, and the game must have just completed.
func (se *SettlementEngine) ValidateAndSettleGame(gameID, userID string) error {
	game, err := se.store.GetGame(gameID)
	if err != nil {
		return err
	}

	if !game.HasPlayer(userID) {
		return models.ErrNotParticipant
	}

	_, err = se.SettleGame(gameID)
	return err
}

// CancelGameAndRefund releases both players' locked stakes and marks the
// game CANCELLED. A completed game can no longer be cancelled; its money
// already belongs to the winner. Both refunds, the status write and the
// per-game marker land in one atomic store operation, so concurrent or
// retried cancels (a sweeper tick racing an admin, a crash-retry) refund
// exactly once.
func (se *SettlementEngine) CancelGameAndRefund(gameID, reason string) error {
	game, err := se.store.GetGame(gameID)
	if err != nil {
		return err
	}

	switch game.Status {
	case models.GameStatusCompleted:
		return models.ErrAlreadyCompleted
	case models.GameStatusCancelled:
		return nil
	}

	game.Status = models.GameStatusCancelled
	game.UpdatedAt = time.Now()

	refunded, err := se.wallet.RefundStakes(game)
	if err != nil {
		return fmt.Errorf("cancel game %s: %w", gameID, err)
	}
	if !refunded {
		// Another cancel, or a settlement, already claimed the marker.
		return nil
	}

	if se.broadcaster != nil {
		se.broadcaster.NotifyGameCancelled(gameID, game.Player1ID, game.Player2ID, reason)
	}

	log.Printf("Cancelled game %s (%s): refunded %s to both players",
		gameID, reason, models.FormatCurrency(game.StakeAmount))

	return nil
}
