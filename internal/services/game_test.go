package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ludo-stakes-backend/internal/models"
	"ludo-stakes-backend/internal/services"
)

func createTestGame(t *testing.T, store *services.RedisService, p1, p2 string) *models.Game {
	t.Helper()

	game := &models.Game{
		ID:               "test-game-" + models.NewID(),
		Player1ID:        p1,
		Player2ID:        p2,
		StakeAmount:      5000,
		CommissionAmount: 1000,
		Status:           models.GameStatusWaiting,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, store.SaveGame(game))
	t.Cleanup(func() {
		store.DeleteGame(game.ID)
		store.DeleteSettlementMarker(game.ID)
	})

	return game
}

func TestGameStartInitializesState(t *testing.T) {
	store := newTestStore(t)
	engine := services.NewGameEngine(store)

	p1 := newTestUser(t, store)
	p2 := newTestUser(t, store)
	game := createTestGame(t, store, p1, p2)

	started, err := engine.Start(game.ID)
	require.NoError(t, err)
	require.Equal(t, models.GameStatusInProgress, started.Status)
	require.NotNil(t, started.StartedAt)
	require.Equal(t, engine.GetServerHash(), started.ServerSeedHash)

	state := started.GameState
	require.NotNil(t, state)
	require.Equal(t, p1, state.Turn)
	require.Equal(t, []int{0, 0, 0, 0}, state.Player1Positions)
	require.Equal(t, []int{0, 0, 0, 0}, state.Player2Positions)
	require.Equal(t, 0, state.PendingRoll)

	live, err := store.GetLiveGames()
	require.NoError(t, err)
	require.Contains(t, live, game.ID)

	_, err = engine.Start(game.ID)
	require.ErrorIs(t, err, models.ErrAlreadyStarted)
}

func TestGameTurnEnforcement(t *testing.T) {
	store := newTestStore(t)
	engine := services.NewGameEngine(store)

	p1 := newTestUser(t, store)
	p2 := newTestUser(t, store)
	game := createTestGame(t, store, p1, p2)

	_, err := engine.Start(game.ID)
	require.NoError(t, err)

	// Player 2 cannot act on player 1's turn.
	_, _, err = engine.RollDice(game.ID, p2)
	require.ErrorIs(t, err, models.ErrNotYourTurn)

	// Moving before rolling is rejected.
	_, err = engine.MakeMove(game.ID, p1, 0)
	require.ErrorIs(t, err, models.ErrRollRequired)

	value, updated, err := engine.RollDice(game.ID, p1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, value, 1)
	require.LessOrEqual(t, value, 6)
	require.Equal(t, value, updated.GameState.PendingRoll)

	// A second roll before moving is rejected.
	_, _, err = engine.RollDice(game.ID, p1)
	require.ErrorIs(t, err, models.ErrMoveRequired)
}

func TestGameMoveAdvancesAndPassesTurn(t *testing.T) {
	store := newTestStore(t)
	engine := services.NewGameEngine(store)

	p1 := newTestUser(t, store)
	p2 := newTestUser(t, store)
	game := createTestGame(t, store, p1, p2)

	_, err := engine.Start(game.ID)
	require.NoError(t, err)

	value, _, err := engine.RollDice(game.ID, p1)
	require.NoError(t, err)

	_, err = engine.MakeMove(game.ID, p1, 99)
	require.ErrorIs(t, err, models.ErrInvalidPiece)

	updated, err := engine.MakeMove(game.ID, p1, 2)
	require.NoError(t, err)
	require.Equal(t, value, updated.GameState.Player1Positions[2])
	require.Equal(t, 0, updated.GameState.PendingRoll)

	// A six keeps the turn; anything else passes it.
	if value == models.DiceMax {
		require.Equal(t, p1, updated.GameState.Turn)
	} else {
		require.Equal(t, p2, updated.GameState.Turn)
	}
}

func TestGameWinDetection(t *testing.T) {
	store := newTestStore(t)
	engine := services.NewGameEngine(store)

	p1 := newTestUser(t, store)
	p2 := newTestUser(t, store)
	game := createTestGame(t, store, p1, p2)

	_, err := engine.Start(game.ID)
	require.NoError(t, err)

	// Put player 1 one step from finishing; any roll completes the game.
	current, err := engine.GetGame(game.ID)
	require.NoError(t, err)
	current.GameState.Player1Positions = []int{
		models.TrackEnd, models.TrackEnd, models.TrackEnd, models.TrackEnd - 1,
	}
	require.NoError(t, store.UpdateGame(current))

	_, _, err = engine.RollDice(game.ID, p1)
	require.NoError(t, err)

	finished, err := engine.MakeMove(game.ID, p1, 3)
	require.NoError(t, err)
	require.Equal(t, models.GameStatusCompleted, finished.Status)
	require.Equal(t, p1, finished.WinnerID)
	require.NotNil(t, finished.CompletedAt)
	require.NotNil(t, finished.FinalResult)
	require.Equal(t, p1, finished.FinalResult.Winner)

	// A finished game accepts no more actions.
	_, _, err = engine.RollDice(game.ID, p1)
	require.ErrorIs(t, err, models.ErrGameNotActive)

	live, err := store.GetLiveGames()
	require.NoError(t, err)
	require.NotContains(t, live, game.ID)
}

func TestGameDisconnectReconnect(t *testing.T) {
	store := newTestStore(t)
	engine := services.NewGameEngine(store)

	p1 := newTestUser(t, store)
	p2 := newTestUser(t, store)
	game := createTestGame(t, store, p1, p2)

	_, err := engine.Start(game.ID)
	require.NoError(t, err)

	require.NoError(t, engine.HandleDisconnect(game.ID, p2))

	current, err := engine.GetGame(game.ID)
	require.NoError(t, err)
	require.Contains(t, current.GameState.Disconnects, p2)

	reconnected, err := engine.HandleReconnect(game.ID, p2)
	require.NoError(t, err)
	require.NotContains(t, reconnected.GameState.Disconnects, p2)
	// The game kept running throughout.
	require.Equal(t, models.GameStatusInProgress, reconnected.Status)
}

func TestVerifyDiceMatchesRolls(t *testing.T) {
	seed := "0123456789abcdef0123456789abcdef"

	first := services.VerifyDice(seed, "game-1", 1)
	require.GreaterOrEqual(t, first, 1)
	require.LessOrEqual(t, first, 6)

	// Same seed and nonce always reproduce the same value.
	require.Equal(t, first, services.VerifyDice(seed, "game-1", 1))

	// Different nonces are independent draws; over a run of nonces every
	// face should appear.
	seen := make(map[int]bool)
	for nonce := int64(1); nonce <= 200; nonce++ {
		seen[services.VerifyDice(seed, "game-1", nonce)] = true
	}
	require.Len(t, seen, 6)
}
