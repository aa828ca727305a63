package models_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ludo-stakes-backend/internal/models"
)

func foldEntries(entries []*models.LedgerEntry) models.Balance {
	var b models.Balance
	for _, e := range entries {
		b.Apply(e)
	}
	return b
}

func TestBalanceFold(t *testing.T) {
	entries := []*models.LedgerEntry{
		{Type: models.TransactionTypeDeposit, Amount: 10000},
		{Type: models.TransactionTypeBetLock, Amount: 5000},
		{Type: models.TransactionTypeWinCredit, Amount: 9000},
	}

	b := foldEntries(entries).Clamped()

	require.Equal(t, int64(14000), b.Available)
	require.Equal(t, int64(5000), b.Locked)
	require.Equal(t, int64(19000), b.Total)
	require.Equal(t, int64(14000), b.Withdrawable)
}

func TestBalanceFoldReleaseUndoesLock(t *testing.T) {
	entries := []*models.LedgerEntry{
		{Type: models.TransactionTypeDeposit, Amount: 10000},
		{Type: models.TransactionTypeBetLock, Amount: 5000},
		{Type: models.TransactionTypeBetRelease, Amount: 5000},
	}

	b := foldEntries(entries).Clamped()

	require.Equal(t, int64(10000), b.Available)
	require.Equal(t, int64(0), b.Locked)
}

func TestBalanceFoldSkipsReversed(t *testing.T) {
	entries := []*models.LedgerEntry{
		{Type: models.TransactionTypeDeposit, Amount: 10000},
		{Type: models.TransactionTypeDeposit, Amount: 99999, IsReversed: true},
	}

	b := foldEntries(entries)

	require.Equal(t, int64(10000), b.Available)
}

func TestBalanceClampedNeverNegative(t *testing.T) {
	entries := []*models.LedgerEntry{
		{Type: models.TransactionTypeDeposit, Amount: 1000},
		{Type: models.TransactionTypePenalty, Amount: 5000},
	}

	b := foldEntries(entries).Clamped()

	require.Equal(t, int64(0), b.Available)
	require.Equal(t, int64(0), b.Withdrawable)
	require.Equal(t, int64(0), b.Total)
}

func TestComputeCommission(t *testing.T) {
	// Two stakes of 50.00 at 10% leave 90.00 for the winner.
	require.Equal(t, int64(1000), models.ComputeCommission(5000, 10))
	require.Equal(t, int64(0), models.ComputeCommission(5000, 0))
	// Rounds to the nearest cent.
	require.Equal(t, int64(2), models.ComputeCommission(33, 2.5))
}

func TestGameOpponent(t *testing.T) {
	g := &models.Game{Player1ID: "a", Player2ID: "b"}

	require.Equal(t, "b", g.Opponent("a"))
	require.Equal(t, "a", g.Opponent("b"))
	require.Equal(t, "", g.Opponent("c"))
	require.True(t, g.HasPlayer("a"))
	require.False(t, g.HasPlayer("c"))
}
