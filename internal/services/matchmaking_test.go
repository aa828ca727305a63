package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"ludo-stakes-backend/internal/models"
	"ludo-stakes-backend/internal/services"
)

const testStake = int64(1000)

func newMatchmaking(t *testing.T, store *services.RedisService, wallet *services.WalletService) *services.MatchmakingService {
	t.Helper()

	t.Cleanup(func() { store.ClearQueue(testStake) })

	return services.NewMatchmakingService(store, wallet, testConfig())
}

func fundedUser(t *testing.T, store *services.RedisService, wallet *services.WalletService, amount int64) string {
	t.Helper()

	userID := newTestUser(t, store)
	fundUser(t, wallet, userID, amount)
	t.Cleanup(func() { store.ReleaseQueueSlot(userID) })

	return userID
}

func TestMatchmakingFirstJoinSearches(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	mm := newMatchmaking(t, store, wallet)

	userID := fundedUser(t, store, wallet, 5000)

	result, err := mm.Join(userID, testStake)
	require.NoError(t, err)
	require.Equal(t, "searching", result.Status)
	require.Empty(t, result.GameID)

	// The stake is locked while searching.
	balance, err := wallet.GetBalance(userID)
	require.NoError(t, err)
	require.Equal(t, testStake, balance.Locked)
}

func TestMatchmakingPairsOldestTwo(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	mm := newMatchmaking(t, store, wallet)

	a := fundedUser(t, store, wallet, 5000)
	b := fundedUser(t, store, wallet, 5000)
	c := fundedUser(t, store, wallet, 5000)
	d := fundedUser(t, store, wallet, 5000)

	_, err := mm.Join(a, testStake)
	require.NoError(t, err)

	resultB, err := mm.Join(b, testStake)
	require.NoError(t, err)
	require.Equal(t, "matched", resultB.Status)
	require.NotEmpty(t, resultB.GameID)
	t.Cleanup(func() { store.DeleteGame(resultB.GameID) })

	game, err := store.GetGame(resultB.GameID)
	require.NoError(t, err)
	require.Equal(t, a, game.Player1ID)
	require.Equal(t, b, game.Player2ID)
	require.Equal(t, testStake, game.StakeAmount)
	require.Equal(t, models.GameStatusWaiting, game.Status)

	// Third and fourth pair with each other, not with the first game.
	_, err = mm.Join(c, testStake)
	require.NoError(t, err)

	resultD, err := mm.Join(d, testStake)
	require.NoError(t, err)
	require.Equal(t, "matched", resultD.Status)
	require.NotEqual(t, resultB.GameID, resultD.GameID)
	t.Cleanup(func() { store.DeleteGame(resultD.GameID) })

	game2, err := store.GetGame(resultD.GameID)
	require.NoError(t, err)
	require.Equal(t, c, game2.Player1ID)
	require.Equal(t, d, game2.Player2ID)
}

func TestMatchmakingFreezesCommission(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	mm := newMatchmaking(t, store, wallet)

	a := fundedUser(t, store, wallet, 5000)
	b := fundedUser(t, store, wallet, 5000)

	_, err := mm.Join(a, testStake)
	require.NoError(t, err)
	result, err := mm.Join(b, testStake)
	require.NoError(t, err)
	t.Cleanup(func() { store.DeleteGame(result.GameID) })

	game, err := store.GetGame(result.GameID)
	require.NoError(t, err)
	require.Equal(t, models.ComputeCommission(testStake, testConfig().CommissionPercent), game.CommissionAmount)
}

func TestMatchmakingLocksTraceableFromGame(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	mm := newMatchmaking(t, store, wallet)

	a := fundedUser(t, store, wallet, 5000)
	b := fundedUser(t, store, wallet, 5000)

	_, err := mm.Join(a, testStake)
	require.NoError(t, err)
	result, err := mm.Join(b, testStake)
	require.NoError(t, err)
	t.Cleanup(func() { store.DeleteGame(result.GameID) })

	game, err := store.GetGame(result.GameID)
	require.NoError(t, err)
	require.NotEmpty(t, game.Player1LockID)
	require.NotEmpty(t, game.Player2LockID)

	// Match detail picks up the stake locks even though they were written
	// before the game id existed.
	admin := services.NewAdminService(store, wallet)
	_, entries, err := admin.GetMatch(game.ID)
	require.NoError(t, err)

	locked := make(map[string]bool)
	for _, e := range entries {
		if e.Type == models.TransactionTypeBetLock {
			locked[e.UserID] = true
		}
	}
	require.True(t, locked[a])
	require.True(t, locked[b])
}

func TestMatchmakingJoinReportsSearchingWhenMatchFails(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	mm := newMatchmaking(t, store, wallet)

	userID := fundedUser(t, store, wallet, 5000)

	// A corrupt queue entry makes the pairing attempt fail after the user
	// is already enqueued with funds locked.
	rdb := redis.NewClient(&redis.Options{Addr: testConfig().RedisURL})
	defer rdb.Close()
	require.NoError(t, rdb.RPush(context.Background(),
		fmt.Sprintf(services.KeyQueue, testStake), "not-json").Err())

	result, err := mm.Join(userID, testStake)
	require.NoError(t, err)
	require.Equal(t, "searching", result.Status)

	// The join kept its true state: slot claimed, stake locked.
	_, err = store.GetQueueSlot(userID)
	require.NoError(t, err)

	balance, err := wallet.GetBalance(userID)
	require.NoError(t, err)
	require.Equal(t, testStake, balance.Locked)
}

func TestMatchmakingDuplicateJoinRejected(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	mm := newMatchmaking(t, store, wallet)

	userID := fundedUser(t, store, wallet, 5000)

	_, err := mm.Join(userID, testStake)
	require.NoError(t, err)

	_, err = mm.Join(userID, testStake)
	require.ErrorIs(t, err, models.ErrAlreadyQueued)

	// Only one stake is locked.
	balance, err := wallet.GetBalance(userID)
	require.NoError(t, err)
	require.Equal(t, testStake, balance.Locked)
}

func TestMatchmakingConcurrentJoinsSingleAccept(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	mm := newMatchmaking(t, store, wallet)

	userID := fundedUser(t, store, wallet, 100*testStake)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = mm.Join(userID, testStake)
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			require.ErrorIs(t, err, models.ErrAlreadyQueued)
		}
	}
	require.Equal(t, 1, accepted)

	balance, err := wallet.GetBalance(userID)
	require.NoError(t, err)
	require.Equal(t, testStake, balance.Locked)
}

func TestMatchmakingCancelReleasesStake(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	mm := newMatchmaking(t, store, wallet)

	userID := fundedUser(t, store, wallet, 5000)

	_, err := mm.Join(userID, testStake)
	require.NoError(t, err)

	require.NoError(t, mm.Cancel(userID))

	balance, err := wallet.GetBalance(userID)
	require.NoError(t, err)
	require.Equal(t, int64(5000), balance.Available)
	require.Equal(t, int64(0), balance.Locked)

	// Cancelling again fails; there is nothing left to cancel.
	require.ErrorIs(t, mm.Cancel(userID), models.ErrNotQueued)

	// The user can rejoin after cancelling.
	result, err := mm.Join(userID, testStake)
	require.NoError(t, err)
	require.Equal(t, "searching", result.Status)
}

func TestMatchmakingInsufficientFundsLeavesNoTrace(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	mm := newMatchmaking(t, store, wallet)

	userID := fundedUser(t, store, wallet, 100)

	_, err := mm.Join(userID, testStake)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)

	// No queue slot survives the failed join.
	_, err = store.GetQueueSlot(userID)
	require.ErrorIs(t, err, models.ErrNotQueued)
}

func TestMatchmakingRejectsBadStakes(t *testing.T) {
	store := newTestStore(t)
	wallet := services.NewWalletService(store)
	mm := newMatchmaking(t, store, wallet)

	userID := fundedUser(t, store, wallet, 5000)

	_, err := mm.Join(userID, 0)
	require.ErrorIs(t, err, models.ErrInvalidAmount)

	_, err = mm.Join(userID, -500)
	require.ErrorIs(t, err, models.ErrInvalidAmount)
}
