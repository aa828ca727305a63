package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"ludo-stakes-backend/internal/config"
	"ludo-stakes-backend/internal/models"
)

// DefaultGameType is the only board game currently offered.
const DefaultGameType = "LUDO"

// pendingGameRef marks a BET_LOCK made before a game exists.
const pendingGameRef = "PENDING"

type MatchmakingService struct {
	store       *RedisService
	wallet      *WalletService
	cfg         *config.Config
	broadcaster Broadcaster
}

func NewMatchmakingService(store *RedisService, wallet *WalletService, cfg *config.Config) *MatchmakingService {
	return &MatchmakingService{
		store:  store,
		wallet: wallet,
		cfg:    cfg,
	}
}

// SetBroadcaster attaches the push channel for match-found events. Without
// one, matched users find out when they poll or reconnect.
func (m *MatchmakingService) SetBroadcaster(b Broadcaster) {
	m.broadcaster = b
}

// Join locks the stake, enqueues the user at the tail of the stake-level
// list and attempts an immediate match. The queue-slot claim is what rejects
// a second concurrent join for the same user.
func (m *MatchmakingService) Join(userID string, stakeAmount int64) (*models.JoinResult, error) {
	if stakeAmount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	if err := m.validateStakeLevel(stakeAmount); err != nil {
		return nil, err
	}

	entry := &models.MatchmakingEntry{
		UserID:      userID,
		StakeAmount: stakeAmount,
		EnqueuedAt:  time.Now(),
		Status:      models.MatchmakingStatusSearching,
	}

	claimed, err := m.store.ClaimQueueSlot(entry, m.matchmakingTimeout())
	if err != nil {
		return nil, fmt.Errorf("join matchmaking: %w", err)
	}
	if !claimed {
		return nil, models.ErrAlreadyQueued
	}

	lockEntry, err := m.wallet.LockFunds(userID, stakeAmount, pendingGameRef)
	if err != nil {
		m.store.ReleaseQueueSlot(userID)
		return nil, err
	}
	entry.LockEntryID = lockEntry.ID

	if err := m.store.PushQueueEntry(entry); err != nil {
		// The lock must not strand: undo it before surfacing the failure.
		if _, rerr := m.wallet.ReleaseFunds(userID, stakeAmount, "CANCELLED"); rerr != nil {
			log.Printf("Failed to release funds after enqueue failure for %s: %v", userID, rerr)
		}
		m.store.ReleaseQueueSlot(userID)
		return nil, fmt.Errorf("join matchmaking: %w", err)
	}

	game, err := m.tryMatch(stakeAmount)
	if err != nil {
		// The user is enqueued with funds locked; a failed pairing attempt
		// changes neither. The next join at this stake retries the match.
		log.Printf("Match attempt at stake %s failed: %v", models.FormatCurrency(stakeAmount), err)
		return &models.JoinResult{Status: "searching"}, nil
	}

	if game != nil && game.HasPlayer(userID) {
		return &models.JoinResult{Status: "matched", GameID: game.ID}, nil
	}

	return &models.JoinResult{Status: "searching"}, nil
}

// Cancel removes the caller's entry from its stake-level list and releases
// the locked stake. Fails with ErrNotQueued when no entry exists.
func (m *MatchmakingService) Cancel(userID string) error {
	slot, err := m.store.GetQueueSlot(userID)
	if err != nil {
		return err
	}

	if _, err := m.store.RemoveQueueEntry(slot.StakeAmount, userID); err != nil {
		if errors.Is(err, models.ErrNotQueued) {
			// Matched or swept between the slot read and now; the slot is
			// stale either way.
			m.store.ReleaseQueueSlot(userID)
		}
		return err
	}

	if _, err := m.wallet.ReleaseFunds(userID, slot.StakeAmount, "CANCELLED"); err != nil {
		return fmt.Errorf("cancel matchmaking: %w", err)
	}

	return m.store.ReleaseQueueSlot(userID)
}

// tryMatch pairs the two oldest entries for the stake, two-at-a-time from
// the head. The pop is a single atomic operation against the queue store.
func (m *MatchmakingService) tryMatch(stakeAmount int64) (*models.Game, error) {
	first, second, err := m.store.PopQueuePair(stakeAmount)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, nil
	}

	game := &models.Game{
		ID:               models.NewID(),
		Player1ID:        first.UserID,
		Player2ID:        second.UserID,
		StakeAmount:      stakeAmount,
		CommissionAmount: models.ComputeCommission(stakeAmount, m.commissionPercent()),
		Player1LockID:    first.LockEntryID,
		Player2LockID:    second.LockEntryID,
		Status:           models.GameStatusWaiting,
		CreatedAt:        time.Now(),
	}

	if err := m.store.SaveGame(game); err != nil {
		// Nothing durable was created; hand both stakes back.
		for _, p := range []string{first.UserID, second.UserID} {
			if _, rerr := m.wallet.ReleaseFunds(p, stakeAmount, "CANCELLED"); rerr != nil {
				log.Printf("Failed to refund %s after game create failure: %v", p, rerr)
			}
			m.store.ReleaseQueueSlot(p)
		}
		return nil, fmt.Errorf("create game: %w", err)
	}

	m.store.ReleaseQueueSlot(first.UserID)
	m.store.ReleaseQueueSlot(second.UserID)

	if m.broadcaster != nil {
		m.broadcaster.NotifyMatchFound(first.UserID, game.ID)
		m.broadcaster.NotifyMatchFound(second.UserID, game.ID)
	}

	log.Printf("Matched %s vs %s at stake %s (game %s)",
		first.UserID, second.UserID, models.FormatCurrency(stakeAmount), game.ID)

	return game, nil
}

// validateStakeLevel checks the stake against the active game config when
// one exists; without a config any positive stake is accepted.
func (m *MatchmakingService) validateStakeLevel(stakeAmount int64) error {
	cfg, err := m.store.GetGameConfig(DefaultGameType)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !cfg.IsActive || !cfg.HasStakeLevel(stakeAmount) {
		return models.ErrUnknownStake
	}

	return nil
}

// commissionPercent resolves the percent in effect right now. It is frozen
// onto the Game at creation so later config changes cannot skew settlement.
func (m *MatchmakingService) commissionPercent() float64 {
	cfg, err := m.store.GetGameConfig(DefaultGameType)
	if err == nil && cfg.IsActive {
		return cfg.CommissionPercent
	}
	return m.cfg.CommissionPercent
}

func (m *MatchmakingService) matchmakingTimeout() time.Duration {
	cfg, err := m.store.GetGameConfig(DefaultGameType)
	if err == nil && cfg.MatchmakingTimeoutSeconds > 0 {
		return time.Duration(cfg.MatchmakingTimeoutSeconds) * time.Second
	}
	return m.cfg.MatchmakingTimeout
}
