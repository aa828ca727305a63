package services

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"ludo-stakes-backend/internal/models"
)

// GameEngine owns per-game turn state: dice, move validation, win
// detection. It never touches money; settlement is the caller's job once a
// game reaches COMPLETED.
type GameEngine struct {
	store      *RedisService
	serverSeed string
	locks      *keyedLocks
}

func NewGameEngine(store *RedisService) *GameEngine {
	return &GameEngine{
		store:      store,
		serverSeed: generateServerSeed(),
		locks:      newKeyedLocks(),
	}
}

func generateServerSeed() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing means the host is broken; refuse to run games
		// on a guessable seed.
		log.Fatalf("Failed to generate server seed: %v", err)
	}
	return hex.EncodeToString(bytes)
}

// GetServerHash returns the published commitment to the server seed.
func (ge *GameEngine) GetServerHash() string {
	hash := sha256.Sum256([]byte(ge.serverSeed))
	return hex.EncodeToString(hash[:])
}

func (ge *GameEngine) GetGame(gameID string) (*models.Game, error) {
	return ge.store.GetGame(gameID)
}

// Start transitions WAITING -> IN_PROGRESS, placing all pieces at the
// origin and giving player 1 the first turn.
func (ge *GameEngine) Start(gameID string) (*models.Game, error) {
	lock := ge.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := ge.store.GetGame(gameID)
	if err != nil {
		return nil, err
	}

	if game.Status != models.GameStatusWaiting {
		return nil, models.ErrAlreadyStarted
	}

	now := time.Now()
	game.Status = models.GameStatusInProgress
	game.StartedAt = &now
	game.ServerSeedHash = ge.GetServerHash()
	game.GameState = &models.GameState{
		Turn:             game.Player1ID,
		Player1Positions: make([]int, models.PiecesPerPlayer),
		Player2Positions: make([]int, models.PiecesPerPlayer),
	}

	if err := ge.store.UpdateGame(game); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}

	ge.store.AddLiveGame(gameID)

	return game, nil
}

// RollDice produces the pending roll for the turn owner. The value comes
// from the server's seed alone; clients never supply or influence it.
func (ge *GameEngine) RollDice(gameID, userID string) (int, *models.Game, error) {
	lock := ge.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := ge.store.GetGame(gameID)
	if err != nil {
		return 0, nil, err
	}

	if game.Status != models.GameStatusInProgress {
		return 0, nil, models.ErrGameNotActive
	}

	state := game.GameState
	if state.Turn != userID {
		return 0, nil, models.ErrNotYourTurn
	}

	if state.PendingRoll != 0 {
		// A roll must be consumed by a move before the next one; otherwise
		// a player could reroll until a 6 appears.
		return 0, nil, models.ErrMoveRequired
	}

	state.RollNonce++
	value := ge.diceValue(gameID, state.RollNonce)
	state.PendingRoll = value

	if err := ge.store.UpdateGame(game); err != nil {
		return 0, nil, fmt.Errorf("roll dice: %w", err)
	}

	return value, game, nil
}

// diceValue maps HMAC-SHA256(serverSeed, gameId:nonce) uniformly onto
// [1,6] by rejection sampling over the digest bytes.
func (ge *GameEngine) diceValue(gameID string, nonce int64) int {
	h := hmac.New(sha256.New, []byte(ge.serverSeed))
	fmt.Fprintf(h, "%s:%d", gameID, nonce)
	digest := h.Sum(nil)

	// 252 is the largest multiple of 6 below 256; bytes past it would bias
	// the low faces.
	for _, b := range digest {
		if b < 252 {
			return int(b%models.DiceMax) + 1
		}
	}
	return int(digest[len(digest)-1]%models.DiceMax) + 1
}

// VerifyDice recomputes a roll from a revealed server seed so players can
// audit past games.
func VerifyDice(serverSeed, gameID string, nonce int64) int {
	h := hmac.New(sha256.New, []byte(serverSeed))
	fmt.Fprintf(h, "%s:%d", gameID, nonce)
	digest := h.Sum(nil)

	for _, b := range digest {
		if b < 252 {
			return int(b%models.DiceMax) + 1
		}
	}
	return int(digest[len(digest)-1]%models.DiceMax) + 1
}

// MakeMove advances one of the mover's pieces by the pending roll and
// applies win detection and the turn rule (a 6 retains the turn).
func (ge *GameEngine) MakeMove(gameID, userID string, pieceIndex int) (*models.Game, error) {
	lock := ge.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := ge.store.GetGame(gameID)
	if err != nil {
		return nil, err
	}

	if game.Status != models.GameStatusInProgress {
		return nil, models.ErrGameNotActive
	}

	state := game.GameState
	if state.Turn != userID {
		return nil, models.ErrNotYourTurn
	}

	if state.PendingRoll == 0 {
		return nil, models.ErrRollRequired
	}

	positions := state.Player1Positions
	if userID == game.Player2ID {
		positions = state.Player2Positions
	}

	if pieceIndex < 0 || pieceIndex >= len(positions) {
		return nil, models.ErrInvalidPiece
	}

	positions[pieceIndex] += state.PendingRoll

	if allPiecesHome(positions) {
		now := time.Now()
		game.Status = models.GameStatusCompleted
		game.WinnerID = userID
		game.CompletedAt = &now
		game.FinalResult = &models.FinalResult{
			Winner:           userID,
			Player1Positions: state.Player1Positions,
			Player2Positions: state.Player2Positions,
		}
		ge.store.RemoveLiveGame(gameID)
	} else if state.PendingRoll != models.DiceMax {
		state.Turn = game.Opponent(userID)
	}

	state.PendingRoll = 0

	if err := ge.store.UpdateGame(game); err != nil {
		return nil, fmt.Errorf("make move: %w", err)
	}

	return game, nil
}

func allPiecesHome(positions []int) bool {
	for _, pos := range positions {
		if pos < models.TrackEnd {
			return false
		}
	}
	return true
}

// HandleDisconnect records a disconnect timestamp inside the game state.
// Status is not changed; forfeiture is a higher-level timeout policy.
func (ge *GameEngine) HandleDisconnect(gameID, userID string) error {
	lock := ge.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := ge.store.GetGame(gameID)
	if err != nil {
		return err
	}

	if game.Status != models.GameStatusInProgress || game.GameState == nil {
		return nil
	}

	if game.GameState.Disconnects == nil {
		game.GameState.Disconnects = make(map[string]int64)
	}
	game.GameState.Disconnects[userID] = time.Now().Unix()

	return ge.store.UpdateGame(game)
}

// HandleReconnect clears the disconnect timestamp and returns the game for
// the rejoining client.
func (ge *GameEngine) HandleReconnect(gameID, userID string) (*models.Game, error) {
	lock := ge.locks.get(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := ge.store.GetGame(gameID)
	if err != nil {
		return nil, err
	}

	if game.GameState != nil && game.GameState.Disconnects != nil {
		if _, ok := game.GameState.Disconnects[userID]; ok {
			delete(game.GameState.Disconnects, userID)
			if err := ge.store.UpdateGame(game); err != nil {
				return nil, err
			}
		}
	}

	return game, nil
}
