package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"ludo-stakes-backend/internal/models"
)

// keyedLocks maps a key (user id, game id) to a mutex so operations
// serialize per key while different keys proceed in parallel. The map only
// grows; it is bounded by the number of keys seen by this process.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (ul *keyedLocks) get(userID string) *sync.Mutex {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	l, ok := ul.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		ul.locks[userID] = l
	}
	return l
}

// WalletService is the only writer of ledger entries. Balances are derived
// by folding the ledger, never stored; every append recomputes the snapshot
// from the full prior history inside the user's critical section.
type WalletService struct {
	store *RedisService
	locks *keyedLocks
}

func NewWalletService(store *RedisService) *WalletService {
	return &WalletService{
		store: store,
		locks: newKeyedLocks(),
	}
}

// GetBalance folds all non-reversed entries in creation order. Buckets are
// clamped at zero in the reported result.
func (w *WalletService) GetBalance(userID string) (*models.Balance, error) {
	entries, err := w.store.GetLedgerEntries(userID)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}

	var bal models.Balance
	for _, e := range entries {
		bal.Apply(e)
	}

	clamped := bal.Clamped()
	return &clamped, nil
}

// GetTransactions returns the user's ledger in append order.
func (w *WalletService) GetTransactions(userID string) ([]*models.LedgerEntry, error) {
	return w.store.GetLedgerEntries(userID)
}

// CreateTransaction validates and appends one ledger entry. The whole
// read-validate-append sequence runs under the user's lock so concurrent
// transactions cannot both act on the same prior balance.
func (w *WalletService) CreateTransaction(
	userID string,
	txType models.TransactionType,
	amount int64,
	referenceID, referenceType string,
	metadata map[string]interface{},
) (*models.LedgerEntry, error) {
	lock := w.locks.get(userID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := w.composeEntry(userID, txType, amount, referenceID, referenceType, metadata)
	if err != nil {
		return nil, err
	}

	if err := w.store.AppendLedgerEntry(entry); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	return entry, nil
}

// composeEntry builds a validated entry with its balance snapshot. Callers
// must hold the user's lock.
func (w *WalletService) composeEntry(
	userID string,
	txType models.TransactionType,
	amount int64,
	referenceID, referenceType string,
	metadata map[string]interface{},
) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	entries, err := w.store.GetLedgerEntries(userID)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var bal models.Balance
	for _, e := range entries {
		bal.Apply(e)
	}
	clamped := bal.Clamped()

	switch txType {
	case models.TransactionTypeBetLock:
		if locked, err := w.isWalletLocked(userID); err != nil {
			return nil, err
		} else if locked {
			return nil, models.ErrWalletLocked
		}
		if clamped.Available < amount {
			return nil, models.ErrInsufficientFunds
		}
	case models.TransactionTypeWithdrawRequest:
		if locked, err := w.isWalletLocked(userID); err != nil {
			return nil, err
		} else if locked {
			return nil, models.ErrWalletLocked
		}
		if clamped.Withdrawable < amount {
			return nil, models.ErrInsufficientFunds
		}
	}

	entry := &models.LedgerEntry{
		ID:            models.NewID(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		ReferenceID:   referenceID,
		ReferenceType: referenceType,
		Metadata:      metadata,
		CreatedAt:     time.Now(),
	}

	after := bal
	after.Apply(entry)
	entry.AvailableAfter = after.Available
	entry.LockedAfter = after.Locked
	entry.BalanceAfter = after.Available + after.Locked

	return entry, nil
}

func (w *WalletService) isWalletLocked(userID string) (bool, error) {
	user, err := w.store.GetUser(userID)
	if errors.Is(err, models.ErrNotFound) {
		// Identity is owned by auth; a ledger can exist before the user
		// record reaches this store.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check wallet lock: %w", err)
	}
	return user.IsWalletLocked, nil
}

func (w *WalletService) LockFunds(userID string, amount int64, gameID string) (*models.LedgerEntry, error) {
	return w.CreateTransaction(userID, models.TransactionTypeBetLock, amount, gameID, "GAME",
		map[string]interface{}{"action": "lock_for_game"})
}

func (w *WalletService) ReleaseFunds(userID string, amount int64, gameID string) (*models.LedgerEntry, error) {
	return w.CreateTransaction(userID, models.TransactionTypeBetRelease, amount, gameID, "GAME",
		map[string]interface{}{"action": "release_after_cancel"})
}

func (w *WalletService) CreditWinnings(userID string, amount int64, gameID string) (*models.LedgerEntry, error) {
	return w.CreateTransaction(userID, models.TransactionTypeWinCredit, amount, gameID, "GAME",
		map[string]interface{}{"action": "win_credit"})
}

func (w *WalletService) DeductCommission(userID string, amount int64, gameID string) (*models.LedgerEntry, error) {
	return w.CreateTransaction(userID, models.TransactionTypeCommission, amount, gameID, "GAME",
		map[string]interface{}{"action": "platform_commission"})
}

// RequestWithdrawal deducts the amount from the withdrawable balance and
// records a PENDING withdrawal for admin review.
func (w *WalletService) RequestWithdrawal(userID string, amount int64, bankAccount, ifscCode string) (*models.Withdrawal, error) {
	withdrawal := &models.Withdrawal{
		ID:          models.NewID(),
		UserID:      userID,
		Amount:      amount,
		Status:      models.WithdrawalStatusPending,
		BankAccount: bankAccount,
		IFSCCode:    ifscCode,
		CreatedAt:   time.Now(),
	}

	if _, err := w.CreateTransaction(userID, models.TransactionTypeWithdrawRequest, amount,
		withdrawal.ID, "WITHDRAWAL", map[string]interface{}{"action": "withdraw_request"}); err != nil {
		return nil, err
	}

	if err := w.store.SaveWithdrawal(withdrawal); err != nil {
		return nil, fmt.Errorf("save withdrawal: %w", err)
	}

	return withdrawal, nil
}

// RefundStakes appends both players' BET_RELEASE entries together with the
// per-game marker in one atomic store operation, so a retried or concurrent
// cancel can never refund twice. Returns false when the marker already
// exists; nothing is written in that case.
func (w *WalletService) RefundStakes(game *models.Game) (bool, error) {
	// Both ledgers lock in a fixed order so two cancels sharing a player
	// cannot deadlock.
	first, second := game.Player1ID, game.Player2ID
	if second < first {
		first, second = second, first
	}
	firstLock := w.locks.get(first)
	secondLock := w.locks.get(second)
	firstLock.Lock()
	defer firstLock.Unlock()
	secondLock.Lock()
	defer secondLock.Unlock()

	meta := map[string]interface{}{"action": "release_after_cancel"}

	release1, err := w.composeEntry(game.Player1ID, models.TransactionTypeBetRelease, game.StakeAmount, game.ID, "GAME", meta)
	if err != nil {
		return false, fmt.Errorf("refund player 1: %w", err)
	}
	release2, err := w.composeEntry(game.Player2ID, models.TransactionTypeBetRelease, game.StakeAmount, game.ID, "GAME", meta)
	if err != nil {
		return false, fmt.Errorf("refund player 2: %w", err)
	}

	refunded, err := w.store.CancelGameRefund(game, release1, release2)
	if err != nil {
		return false, fmt.Errorf("refund stakes: %w", err)
	}

	return refunded, nil
}

// SettleWinnings appends the winner's credit together with the durable
// settlement marker in one atomic store operation. Returns false when the
// game was already settled; in that case nothing is written.
func (w *WalletService) SettleWinnings(game *models.Game, winnerID string, amount int64) (bool, error) {
	lock := w.locks.get(winnerID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := w.composeEntry(winnerID, models.TransactionTypeWinCredit, amount, game.ID, "GAME",
		map[string]interface{}{"action": "win_credit"})
	if err != nil {
		return false, err
	}

	settled, err := w.store.SettleGamePayout(game, entry)
	if err != nil {
		return false, fmt.Errorf("settle winnings: %w", err)
	}

	return settled, nil
}
