package services

import (
	"fmt"
	"log"
	"time"

	"ludo-stakes-backend/internal/models"
)

// AdminService covers the back-office surface: withdrawal review, account
// and wallet locks, penalties, game configs and live-match oversight. Every
// mutating call writes an audit log entry.
type AdminService struct {
	store  *RedisService
	wallet *WalletService
}

func NewAdminService(store *RedisService, wallet *WalletService) *AdminService {
	return &AdminService{
		store:  store,
		wallet: wallet,
	}
}

func (a *AdminService) audit(adminID, action, resourceType, resourceID, ip string, metadata map[string]interface{}) {
	entry := &models.AuditLog{
		ID:           models.NewID(),
		AdminID:      adminID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		IPAddress:    ip,
		CreatedAt:    time.Now(),
	}
	if err := a.store.SaveAuditLog(entry); err != nil {
		// Audit write failures must not roll back the admin action, but
		// they cannot pass silently either.
		log.Printf("Failed to write audit log for %s %s: %v", action, resourceID, err)
	}
}

func (a *AdminService) GetPendingWithdrawals() ([]*models.Withdrawal, error) {
	return a.store.GetWithdrawalsByStatus(models.WithdrawalStatusPending)
}

// ApproveWithdrawal marks a pending withdrawal approved. The money was
// already deducted when the request was made, so approval touches only the
// withdrawal record.
func (a *AdminService) ApproveWithdrawal(withdrawalID, adminID, ip string) (*models.Withdrawal, error) {
	w, err := a.store.GetWithdrawal(withdrawalID)
	if err != nil {
		return nil, err
	}

	if w.Status != models.WithdrawalStatusPending {
		return nil, models.ErrAlreadyProcessed
	}

	now := time.Now()
	w.Status = models.WithdrawalStatusApproved
	w.ApprovedBy = adminID
	w.ApprovedAt = &now

	if err := a.store.SaveWithdrawal(w); err != nil {
		return nil, fmt.Errorf("approve withdrawal: %w", err)
	}

	a.audit(adminID, "APPROVE_WITHDRAWAL", "WITHDRAWAL", withdrawalID, ip,
		map[string]interface{}{"user_id": w.UserID, "amount": w.Amount})

	return w, nil
}

// RejectWithdrawal returns the deducted amount to the user. Ledger entries
// are immutable, so the refund is a new deposit entry referencing the
// withdrawal rather than a reversal of the original.
func (a *AdminService) RejectWithdrawal(withdrawalID, adminID, reason, ip string) (*models.Withdrawal, error) {
	w, err := a.store.GetWithdrawal(withdrawalID)
	if err != nil {
		return nil, err
	}

	if w.Status != models.WithdrawalStatusPending {
		return nil, models.ErrAlreadyProcessed
	}

	if _, err := a.wallet.CreateTransaction(w.UserID, models.TransactionTypeDeposit, w.Amount,
		withdrawalID, "WITHDRAWAL", map[string]interface{}{"action": "withdrawal_rejected_refund"}); err != nil {
		return nil, fmt.Errorf("refund rejected withdrawal: %w", err)
	}

	now := time.Now()
	w.Status = models.WithdrawalStatusRejected
	w.RejectionReason = reason
	w.ApprovedBy = adminID
	w.ApprovedAt = &now

	if err := a.store.SaveWithdrawal(w); err != nil {
		return nil, fmt.Errorf("reject withdrawal: %w", err)
	}

	a.audit(adminID, "REJECT_WITHDRAWAL", "WITHDRAWAL", withdrawalID, ip,
		map[string]interface{}{"user_id": w.UserID, "amount": w.Amount, "reason": reason})

	return w, nil
}

// SetAccountActive activates or deactivates a user account. Deactivated
// users cannot log in.
func (a *AdminService) SetAccountActive(userID, adminID string, active bool, ip string) error {
	user, err := a.store.GetUser(userID)
	if err != nil {
		return err
	}

	user.IsActive = active
	user.UpdatedAt = time.Now()

	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("update account status: %w", err)
	}

	action := "DEACTIVATE_ACCOUNT"
	if active {
		action = "ACTIVATE_ACCOUNT"
	}
	a.audit(adminID, action, "USER", userID, ip, nil)

	return nil
}

// SetWalletLocked freezes or unfreezes the user's wallet. A locked wallet
// blocks new bet locks and withdrawal requests; existing entries stand.
func (a *AdminService) SetWalletLocked(userID, adminID string, locked bool, ip string) error {
	user, err := a.store.GetUser(userID)
	if err != nil {
		return err
	}

	user.IsWalletLocked = locked
	user.UpdatedAt = time.Now()

	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("update wallet lock: %w", err)
	}

	action := "UNLOCK_WALLET"
	if locked {
		action = "LOCK_WALLET"
	}
	a.audit(adminID, action, "USER", userID, ip, nil)

	return nil
}

// ApplyPenalty deducts amount from the user's available balance with a
// PENALTY ledger entry.
func (a *AdminService) ApplyPenalty(userID, adminID string, amount int64, reason, ip string) (*models.LedgerEntry, error) {
	entry, err := a.wallet.CreateTransaction(userID, models.TransactionTypePenalty, amount,
		models.NewID(), "PENALTY", map[string]interface{}{"reason": reason, "admin_id": adminID})
	if err != nil {
		return nil, err
	}

	a.audit(adminID, "APPLY_PENALTY", "USER", userID, ip,
		map[string]interface{}{"amount": amount, "reason": reason})

	return entry, nil
}

// ResetDeviceBinding clears the device id so the user can log in from a
// new phone.
func (a *AdminService) ResetDeviceBinding(userID, adminID, ip string) error {
	user, err := a.store.GetUser(userID)
	if err != nil {
		return err
	}

	user.DeviceID = ""
	user.UpdatedAt = time.Now()

	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("reset device binding: %w", err)
	}

	a.audit(adminID, "RESET_DEVICE", "USER", userID, ip, nil)

	return nil
}

func (a *AdminService) GetGameConfigs() ([]*models.GameConfig, error) {
	return a.store.GetGameConfigs()
}

// UpsertGameConfig creates or replaces the config for a game type. Games
// already created keep the commission frozen at their creation time.
func (a *AdminService) UpsertGameConfig(cfg *models.GameConfig, adminID, ip string) (*models.GameConfig, error) {
	if cfg.GameType == "" || cfg.CommissionPercent < 0 || cfg.CommissionPercent > 100 {
		return nil, models.ErrInvalidInput
	}
	for _, level := range cfg.StakeLevels {
		if level <= 0 {
			return nil, models.ErrInvalidAmount
		}
	}

	now := time.Now()
	existing, err := a.store.GetGameConfig(cfg.GameType)
	if err == nil {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	} else {
		cfg.ID = models.NewID()
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	if err := a.store.SaveGameConfig(cfg); err != nil {
		return nil, fmt.Errorf("save game config: %w", err)
	}

	a.audit(adminID, "UPSERT_GAME_CONFIG", "GAME_CONFIG", cfg.ID, ip,
		map[string]interface{}{"game_type": cfg.GameType, "commission_percent": cfg.CommissionPercent})

	return cfg, nil
}

// GetLiveMatches returns the games currently in the live set, skipping any
// that can no longer be loaded.
func (a *AdminService) GetLiveMatches() ([]*models.Game, error) {
	ids, err := a.store.GetLiveGames()
	if err != nil {
		return nil, err
	}

	games := make([]*models.Game, 0, len(ids))
	for _, id := range ids {
		game, err := a.store.GetGame(id)
		if err != nil {
			log.Printf("Live match %s unreadable: %v", id, err)
			continue
		}
		games = append(games, game)
	}

	return games, nil
}

// GetMatch returns a single game regardless of its status, with the ledger
// entries that reference it for payout review. The stake locks predate the
// game id (they reference the pending join), so they are matched by the
// lock entry ids recorded on the game.
func (a *AdminService) GetMatch(gameID string) (*models.Game, []*models.LedgerEntry, error) {
	game, err := a.store.GetGame(gameID)
	if err != nil {
		return nil, nil, err
	}

	var related []*models.LedgerEntry
	for _, userID := range []string{game.Player1ID, game.Player2ID} {
		entries, err := a.store.GetLedgerEntries(userID)
		if err != nil {
			log.Printf("Failed to load ledger for %s: %v", userID, err)
			continue
		}
		for _, e := range entries {
			if e.ReferenceID == gameID || e.ID == game.Player1LockID || e.ID == game.Player2LockID {
				related = append(related, e)
			}
		}
	}

	return game, related, nil
}

func (a *AdminService) GetAuditLogs(limit int64) ([]*models.AuditLog, error) {
	return a.store.GetAuditLogs(limit)
}
