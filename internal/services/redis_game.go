package services

import (
	"encoding/json"
	"fmt"
	"time"

	"ludo-stakes-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

func (s *RedisService) SaveGame(game *models.Game) error {
	key := fmt.Sprintf(KeyGame, game.ID)

	game.UpdatedAt = time.Now()

	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %v", err)
	}

	if err := s.client.Set(s.ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save game: %v", err)
	}

	for _, playerID := range []string{game.Player1ID, game.Player2ID} {
		userGamesKey := fmt.Sprintf(KeyUserGames, playerID)
		s.client.ZAdd(s.ctx, userGamesKey, redis.Z{
			Score:  float64(game.CreatedAt.Unix()),
			Member: game.ID,
		})
	}

	return nil
}

func (s *RedisService) GetGame(gameID string) (*models.Game, error) {
	key := fmt.Sprintf(KeyGame, gameID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("game %s: %w", gameID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %v", err)
	}

	var game models.Game
	if err := json.Unmarshal([]byte(data), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %v", err)
	}

	return &game, nil
}

func (s *RedisService) UpdateGame(game *models.Game) error {
	key := fmt.Sprintf(KeyGame, game.ID)

	game.UpdatedAt = time.Now()

	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %v", err)
	}

	return s.client.Set(s.ctx, key, data, 0).Err()
}

func (s *RedisService) AddLiveGame(gameID string) error {
	return s.client.SAdd(s.ctx, KeyLiveGames, gameID).Err()
}

func (s *RedisService) RemoveLiveGame(gameID string) error {
	return s.client.SRem(s.ctx, KeyLiveGames, gameID).Err()
}

// GetLiveGames returns the ids in the live set; callers load the records
// they actually need.
func (s *RedisService) GetLiveGames() ([]string, error) {
	ids, err := s.client.SMembers(s.ctx, KeyLiveGames).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list live games: %v", err)
	}

	return ids, nil
}

// GetUserGamesSince returns the user's games created after the cutoff,
// newest first. Fraud scoring reads completed games through this.
func (s *RedisService) GetUserGamesSince(userID string, since time.Time) ([]*models.Game, error) {
	key := fmt.Sprintf(KeyUserGames, userID)

	ids, err := s.client.ZRevRangeByScore(s.ctx, key, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", since.Unix()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user games: %v", err)
	}

	var games []*models.Game
	for _, id := range ids {
		game, err := s.GetGame(id)
		if err != nil {
			continue
		}
		games = append(games, game)
	}

	return games, nil
}

func (s *RedisService) DeleteGame(gameID string) error {
	s.client.SRem(s.ctx, KeyLiveGames, gameID)
	return s.client.Del(s.ctx, fmt.Sprintf(KeyGame, gameID)).Err()
}
