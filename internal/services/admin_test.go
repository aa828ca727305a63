package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ludo-stakes-backend/internal/models"
	"ludo-stakes-backend/internal/services"
)

func TestAdminApproveWithdrawal(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	admin := services.NewAdminService(store, wallet)
	userID := newTestUser(t, store)
	adminID := newTestUser(t, store)

	fundUser(t, wallet, userID, 10000)
	w, err := wallet.RequestWithdrawal(userID, 4000, "000111222", "TEST0001")
	require.NoError(t, err)

	approved, err := admin.ApproveWithdrawal(w.ID, adminID, "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, models.WithdrawalStatusApproved, approved.Status)
	require.Equal(t, adminID, approved.ApprovedBy)

	// Approval does not touch the balance; the deduction happened at
	// request time.
	balance, err := wallet.GetBalance(userID)
	require.NoError(t, err)
	require.Equal(t, int64(6000), balance.Available)

	// A processed withdrawal cannot be approved or rejected again.
	_, err = admin.ApproveWithdrawal(w.ID, adminID, "127.0.0.1")
	require.ErrorIs(t, err, models.ErrAlreadyProcessed)
	_, err = admin.RejectWithdrawal(w.ID, adminID, "late", "127.0.0.1")
	require.ErrorIs(t, err, models.ErrAlreadyProcessed)
}

func TestAdminRejectWithdrawalRefunds(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	admin := services.NewAdminService(store, wallet)
	userID := newTestUser(t, store)
	adminID := newTestUser(t, store)

	fundUser(t, wallet, userID, 10000)
	w, err := wallet.RequestWithdrawal(userID, 4000, "000111222", "TEST0001")
	require.NoError(t, err)

	rejected, err := admin.RejectWithdrawal(w.ID, adminID, "bank mismatch", "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, models.WithdrawalStatusRejected, rejected.Status)
	require.Equal(t, "bank mismatch", rejected.RejectionReason)

	balance, err := wallet.GetBalance(userID)
	require.NoError(t, err)
	require.Equal(t, int64(10000), balance.Available)

	// The refund is an appended entry referencing the withdrawal, not an
	// edit of the original request.
	entries, err := wallet.GetTransactions(userID)
	require.NoError(t, err)
	last := entries[len(entries)-1]
	require.Equal(t, models.TransactionTypeDeposit, last.Type)
	require.Equal(t, w.ID, last.ReferenceID)
}

func TestAdminPenalty(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	admin := services.NewAdminService(store, wallet)
	userID := newTestUser(t, store)
	adminID := newTestUser(t, store)

	fundUser(t, wallet, userID, 10000)

	entry, err := admin.ApplyPenalty(userID, adminID, 2500, "chargeback", "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, models.TransactionTypePenalty, entry.Type)

	balance, err := wallet.GetBalance(userID)
	require.NoError(t, err)
	require.Equal(t, int64(7500), balance.Available)
}

func TestAdminWalletLockBlocksBets(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	admin := services.NewAdminService(store, wallet)
	userID := newTestUser(t, store)
	adminID := newTestUser(t, store)

	fundUser(t, wallet, userID, 10000)

	require.NoError(t, admin.SetWalletLocked(userID, adminID, true, "127.0.0.1"))

	_, err := wallet.LockFunds(userID, 1000, "game-1")
	require.ErrorIs(t, err, models.ErrWalletLocked)

	require.NoError(t, admin.SetWalletLocked(userID, adminID, false, "127.0.0.1"))

	_, err = wallet.LockFunds(userID, 1000, "game-1")
	require.NoError(t, err)
}

func TestAdminActionsAreAudited(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	admin := services.NewAdminService(store, wallet)
	userID := newTestUser(t, store)
	adminID := newTestUser(t, store)

	require.NoError(t, admin.SetAccountActive(userID, adminID, false, "127.0.0.1"))

	user, err := store.GetUser(userID)
	require.NoError(t, err)
	require.False(t, user.IsActive)

	logs, err := admin.GetAuditLogs(50)
	require.NoError(t, err)

	found := false
	for _, entry := range logs {
		if entry.ResourceID == userID && entry.Action == "DEACTIVATE_ACCOUNT" {
			found = true
			require.Equal(t, adminID, entry.AdminID)
		}
	}
	require.True(t, found, "expected an audit entry for the deactivation")
}

func TestAdminGameConfigValidation(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	admin := services.NewAdminService(store, wallet)
	adminID := newTestUser(t, store)

	_, err := admin.UpsertGameConfig(&models.GameConfig{
		GameType:          "TEST_GAME",
		StakeLevels:       []int64{1000, -5},
		CommissionPercent: 10,
	}, adminID, "127.0.0.1")
	require.ErrorIs(t, err, models.ErrInvalidAmount)

	_, err = admin.UpsertGameConfig(&models.GameConfig{
		GameType:          "TEST_GAME",
		StakeLevels:       []int64{1000},
		CommissionPercent: 150,
	}, adminID, "127.0.0.1")
	require.ErrorIs(t, err, models.ErrInvalidInput)

	saved, err := admin.UpsertGameConfig(&models.GameConfig{
		GameType:          "TEST_GAME",
		StakeLevels:       []int64{1000, 2500},
		CommissionPercent: 12.5,
		IsActive:          true,
	}, adminID, "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	// Upserting again keeps the identity but applies the new values.
	updated, err := admin.UpsertGameConfig(&models.GameConfig{
		GameType:          "TEST_GAME",
		StakeLevels:       []int64{1000},
		CommissionPercent: 8,
		IsActive:          true,
	}, adminID, "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, saved.ID, updated.ID)
	require.Equal(t, 8.0, updated.CommissionPercent)
}
