package services

import (
	"encoding/json"
	"fmt"

	"ludo-stakes-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// AppendLedgerEntry pushes an immutable entry onto the tail of the user's
// ledger. Callers must already hold the per-user serialization point (see
// WalletService); the list itself is append-only.
func (s *RedisService) AppendLedgerEntry(entry *models.LedgerEntry) error {
	key := fmt.Sprintf(KeyUserLedger, entry.UserID)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry: %v", err)
	}

	if err := s.client.RPush(s.ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to append ledger entry: %v", err)
	}

	return nil
}

// GetLedgerEntries returns the user's full ledger in append order.
func (s *RedisService) GetLedgerEntries(userID string) ([]*models.LedgerEntry, error) {
	key := fmt.Sprintf(KeyUserLedger, userID)

	raw, err := s.client.LRange(s.ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %v", err)
	}

	entries := make([]*models.LedgerEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.LedgerEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("corrupt ledger entry for user %s: %v", userID, err)
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}

// settlePayoutScript is the durable settlement unit: it claims the per-game
// settlement marker and appends the winner's credit in one atomic step, so a
// retried settlement (same process or after a restart) can never pay twice.
var settlePayoutScript = redis.NewScript(`
	if redis.call("EXISTS", KEYS[1]) == 1 then
		return 0
	end

	redis.call("SET", KEYS[1], ARGV[1])
	redis.call("RPUSH", KEYS[2], ARGV[2])
	redis.call("SET", KEYS[3], ARGV[3])

	return 1
`)

// SettleGamePayout atomically records the settlement marker, the WIN_CREDIT
// ledger entry, and the updated game record. It returns false when the game
// was already settled, without touching anything.
func (s *RedisService) SettleGamePayout(game *models.Game, credit *models.LedgerEntry) (bool, error) {
	settlementKey := fmt.Sprintf(KeySettlement, game.ID)
	ledgerKey := fmt.Sprintf(KeyUserLedger, credit.UserID)
	gameKey := fmt.Sprintf(KeyGame, game.ID)

	marker, err := json.Marshal(map[string]interface{}{
		"game_id":    game.ID,
		"winner_id":  credit.UserID,
		"amount":     credit.Amount,
		"ledger_id":  credit.ID,
		"settled_at": credit.CreatedAt,
	})
	if err != nil {
		return false, err
	}

	entryData, err := json.Marshal(credit)
	if err != nil {
		return false, fmt.Errorf("failed to marshal credit entry: %v", err)
	}

	gameData, err := json.Marshal(game)
	if err != nil {
		return false, fmt.Errorf("failed to marshal game: %v", err)
	}

	res, err := settlePayoutScript.Run(s.ctx, s.client,
		[]string{settlementKey, ledgerKey, gameKey},
		marker, entryData, gameData,
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to run settlement script: %v", err)
	}

	return res == 1, nil
}

// cancelRefundScript is the cancel-path twin of settlePayoutScript: it
// claims the same per-game marker and appends both refunds together with the
// CANCELLED game record in one atomic step. A cancel retried after a crash,
// or racing another cancel or a settlement, finds the marker and no-ops.
var cancelRefundScript = redis.NewScript(`
	if redis.call("EXISTS", KEYS[1]) == 1 then
		return 0
	end

	redis.call("SET", KEYS[1], ARGV[1])
	redis.call("RPUSH", KEYS[2], ARGV[2])
	redis.call("RPUSH", KEYS[3], ARGV[3])
	redis.call("SET", KEYS[4], ARGV[4])
	redis.call("SREM", KEYS[5], ARGV[5])

	return 1
`)

// CancelGameRefund atomically records the cancel marker, both BET_RELEASE
// entries, and the cancelled game record, and drops the game from the live
// set. Returns false when the game's marker already exists; nothing is
// written in that case.
func (s *RedisService) CancelGameRefund(game *models.Game, release1, release2 *models.LedgerEntry) (bool, error) {
	settlementKey := fmt.Sprintf(KeySettlement, game.ID)
	ledger1Key := fmt.Sprintf(KeyUserLedger, release1.UserID)
	ledger2Key := fmt.Sprintf(KeyUserLedger, release2.UserID)
	gameKey := fmt.Sprintf(KeyGame, game.ID)

	marker, err := json.Marshal(map[string]interface{}{
		"game_id":      game.ID,
		"cancelled":    true,
		"refund_ids":   []string{release1.ID, release2.ID},
		"amount":       game.StakeAmount,
		"cancelled_at": release1.CreatedAt,
	})
	if err != nil {
		return false, err
	}

	entry1Data, err := json.Marshal(release1)
	if err != nil {
		return false, fmt.Errorf("failed to marshal refund entry: %v", err)
	}

	entry2Data, err := json.Marshal(release2)
	if err != nil {
		return false, fmt.Errorf("failed to marshal refund entry: %v", err)
	}

	gameData, err := json.Marshal(game)
	if err != nil {
		return false, fmt.Errorf("failed to marshal game: %v", err)
	}

	res, err := cancelRefundScript.Run(s.ctx, s.client,
		[]string{settlementKey, ledger1Key, ledger2Key, gameKey, KeyLiveGames},
		marker, entry1Data, entry2Data, gameData, game.ID,
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to run cancel script: %v", err)
	}

	return res == 1, nil
}

// IsGameSettled reports whether the durable settlement marker exists.
func (s *RedisService) IsGameSettled(gameID string) (bool, error) {
	key := fmt.Sprintf(KeySettlement, gameID)

	n, err := s.client.Exists(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check settlement marker: %v", err)
	}

	return n == 1, nil
}

func (s *RedisService) DeleteLedger(userID string) error {
	return s.client.Del(s.ctx, fmt.Sprintf(KeyUserLedger, userID)).Err()
}

func (s *RedisService) DeleteSettlementMarker(gameID string) error {
	return s.client.Del(s.ctx, fmt.Sprintf(KeySettlement, gameID)).Err()
}
