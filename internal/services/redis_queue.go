package services

import (
	"encoding/json"
	"fmt"
	"time"

	"ludo-stakes-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// ClaimQueueSlot reserves the caller's single matchmaking slot. The NX set
// is what makes concurrent joins for the same user resolve to exactly one
// winner. Returns false when the user already holds a slot.
func (s *RedisService) ClaimQueueSlot(entry *models.MatchmakingEntry, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyQueueUser, entry.UserID)

	data, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}

	ok, err := s.client.SetNX(s.ctx, key, data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim queue slot: %v", err)
	}

	return ok, nil
}

func (s *RedisService) GetQueueSlot(userID string) (*models.MatchmakingEntry, error) {
	key := fmt.Sprintf(KeyQueueUser, userID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrNotQueued
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue slot: %v", err)
	}

	var entry models.MatchmakingEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue entry: %v", err)
	}

	return &entry, nil
}

func (s *RedisService) ReleaseQueueSlot(userID string) error {
	key := fmt.Sprintf(KeyQueueUser, userID)
	return s.client.Del(s.ctx, key).Err()
}

// PushQueueEntry appends the entry to the tail of its stake-level list and
// records the stake level for the sweeper.
func (s *RedisService) PushQueueEntry(entry *models.MatchmakingEntry) error {
	key := fmt.Sprintf(KeyQueue, entry.StakeAmount)

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := s.client.RPush(s.ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to push queue entry: %v", err)
	}

	s.client.SAdd(s.ctx, KeyQueueStakes, entry.StakeAmount)

	return nil
}

// popPairScript removes the two oldest entries of a stake level in one
// indivisible step. Two concurrent matchers can never claim the same entry.
var popPairScript = redis.NewScript(`
	if redis.call("LLEN", KEYS[1]) < 2 then
		return {}
	end

	local first = redis.call("LPOP", KEYS[1])
	local second = redis.call("LPOP", KEYS[1])

	return {first, second}
`)

// PopQueuePair atomically dequeues the two oldest entries for the stake, or
// returns (nil, nil, nil) when fewer than two are waiting.
func (s *RedisService) PopQueuePair(stakeAmount int64) (*models.MatchmakingEntry, *models.MatchmakingEntry, error) {
	key := fmt.Sprintf(KeyQueue, stakeAmount)

	raw, err := popPairScript.Run(s.ctx, s.client, []string{key}).Slice()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to pop queue pair: %v", err)
	}

	if len(raw) < 2 {
		return nil, nil, nil
	}

	var first, second models.MatchmakingEntry
	if err := json.Unmarshal([]byte(raw[0].(string)), &first); err != nil {
		return nil, nil, fmt.Errorf("corrupt queue entry: %v", err)
	}
	if err := json.Unmarshal([]byte(raw[1].(string)), &second); err != nil {
		return nil, nil, fmt.Errorf("corrupt queue entry: %v", err)
	}

	return &first, &second, nil
}

// removeUserEntryScript locates the caller's entry in the stake list and
// removes it, all in one step, so cancel cannot race a concurrent match.
var removeUserEntryScript = redis.NewScript(`
	local entries = redis.call("LRANGE", KEYS[1], 0, -1)

	for i, v in ipairs(entries) do
		local ok, decoded = pcall(cjson.decode, v)
		if ok and decoded["user_id"] == ARGV[1] then
			redis.call("LREM", KEYS[1], 1, v)
			return v
		end
	end

	return false
`)

// RemoveQueueEntry removes the user's entry from the stake-level list.
// Returns ErrNotQueued when no entry is present (e.g. already matched).
func (s *RedisService) RemoveQueueEntry(stakeAmount int64, userID string) (*models.MatchmakingEntry, error) {
	key := fmt.Sprintf(KeyQueue, stakeAmount)

	res, err := removeUserEntryScript.Run(s.ctx, s.client, []string{key}, userID).Result()
	if err == redis.Nil {
		return nil, models.ErrNotQueued
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove queue entry: %v", err)
	}

	data, ok := res.(string)
	if !ok {
		return nil, models.ErrNotQueued
	}

	var entry models.MatchmakingEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("corrupt queue entry: %v", err)
	}

	return &entry, nil
}

// RemoveQueueValue removes one occurrence of the exact serialized entry.
// The sweeper uses this so it only reaps the entry it inspected; a re-queued
// newer entry (different enqueued_at) is a different value and survives.
func (s *RedisService) RemoveQueueValue(stakeAmount int64, raw string) (bool, error) {
	key := fmt.Sprintf(KeyQueue, stakeAmount)

	n, err := s.client.LRem(s.ctx, key, 1, raw).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remove queue value: %v", err)
	}

	return n == 1, nil
}

// ListQueueRaw returns the serialized entries for a stake level, head first.
func (s *RedisService) ListQueueRaw(stakeAmount int64) ([]string, error) {
	key := fmt.Sprintf(KeyQueue, stakeAmount)

	raw, err := s.client.LRange(s.ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %v", err)
	}

	return raw, nil
}

// KnownStakeLevels returns every stake level that has ever had an entry.
func (s *RedisService) KnownStakeLevels() ([]int64, error) {
	members, err := s.client.SMembers(s.ctx, KeyQueueStakes).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list stake levels: %v", err)
	}

	stakes := make([]int64, 0, len(members))
	for _, m := range members {
		var stake int64
		if _, err := fmt.Sscanf(m, "%d", &stake); err != nil {
			continue
		}
		stakes = append(stakes, stake)
	}

	return stakes, nil
}

func (s *RedisService) ClearQueue(stakeAmount int64) error {
	return s.client.Del(s.ctx, fmt.Sprintf(KeyQueue, stakeAmount)).Err()
}
