package services

import (
	"encoding/json"
	"fmt"
	"time"

	"ludo-stakes-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

func (s *RedisService) SaveWithdrawal(w *models.Withdrawal) error {
	key := fmt.Sprintf(KeyWithdrawal, w.ID)

	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal withdrawal: %v", err)
	}

	if err := s.client.Set(s.ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save withdrawal: %v", err)
	}

	s.client.ZAdd(s.ctx, KeyWithdrawals, redis.Z{
		Score:  float64(w.CreatedAt.Unix()),
		Member: w.ID,
	})

	return nil
}

func (s *RedisService) GetWithdrawal(id string) (*models.Withdrawal, error) {
	key := fmt.Sprintf(KeyWithdrawal, id)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("withdrawal %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %v", err)
	}

	var w models.Withdrawal
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal withdrawal: %v", err)
	}

	return &w, nil
}

// GetWithdrawalsByStatus returns withdrawals oldest first, filtered by
// status ("" means all).
func (s *RedisService) GetWithdrawalsByStatus(status models.WithdrawalStatus) ([]*models.Withdrawal, error) {
	ids, err := s.client.ZRange(s.ctx, KeyWithdrawals, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %v", err)
	}

	var out []*models.Withdrawal
	for _, id := range ids {
		w, err := s.GetWithdrawal(id)
		if err != nil {
			continue
		}
		if status == "" || w.Status == status {
			out = append(out, w)
		}
	}

	return out, nil
}

func (s *RedisService) SaveGameConfig(cfg *models.GameConfig) error {
	key := fmt.Sprintf(KeyGameConfig, cfg.GameType)

	cfg.UpdatedAt = time.Now()

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal game config: %v", err)
	}

	if err := s.client.Set(s.ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save game config: %v", err)
	}

	return s.client.SAdd(s.ctx, KeyGameConfigSet, cfg.GameType).Err()
}

func (s *RedisService) GetGameConfig(gameType string) (*models.GameConfig, error) {
	key := fmt.Sprintf(KeyGameConfig, gameType)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("game config %s: %w", gameType, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game config: %v", err)
	}

	var cfg models.GameConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game config: %v", err)
	}

	return &cfg, nil
}

func (s *RedisService) GetGameConfigs() ([]*models.GameConfig, error) {
	types, err := s.client.SMembers(s.ctx, KeyGameConfigSet).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list game configs: %v", err)
	}

	var out []*models.GameConfig
	for _, t := range types {
		cfg, err := s.GetGameConfig(t)
		if err != nil {
			continue
		}
		out = append(out, cfg)
	}

	return out, nil
}

func (s *RedisService) SaveFraudAlert(alert *models.FraudAlert) error {
	key := fmt.Sprintf(KeyFraudAlert, alert.ID)

	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal fraud alert: %v", err)
	}

	if err := s.client.Set(s.ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save fraud alert: %v", err)
	}

	s.client.ZAdd(s.ctx, KeyFraudAlerts, redis.Z{
		Score:  float64(alert.CreatedAt.Unix()),
		Member: alert.ID,
	})

	return nil
}

func (s *RedisService) GetFraudAlert(id string) (*models.FraudAlert, error) {
	key := fmt.Sprintf(KeyFraudAlert, id)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("fraud alert %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fraud alert: %v", err)
	}

	var alert models.FraudAlert
	if err := json.Unmarshal([]byte(data), &alert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fraud alert: %v", err)
	}

	return &alert, nil
}

func (s *RedisService) GetFraudAlerts(status models.FraudAlertStatus, limit int64) ([]*models.FraudAlert, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	ids, err := s.client.ZRevRange(s.ctx, KeyFraudAlerts, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list fraud alerts: %v", err)
	}

	var out []*models.FraudAlert
	for _, id := range ids {
		alert, err := s.GetFraudAlert(id)
		if err != nil {
			continue
		}
		if status == "" || alert.Status == status {
			out = append(out, alert)
		}
	}

	return out, nil
}
