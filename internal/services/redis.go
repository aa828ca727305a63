package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ludo-stakes-backend/internal/config"
	"ludo-stakes-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	service := &RedisService{
		client: client,
		ctx:    ctx,
	}

	return service, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) SaveUser(user *models.User) error {
	key := fmt.Sprintf(KeyUserInfo, user.ID)

	user.UpdatedAt = time.Now()

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %v", err)
	}

	if err := s.client.Set(s.ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save user: %v", err)
	}

	phoneKey := fmt.Sprintf(KeyUserByPhone, user.PhoneNumber)
	return s.client.Set(s.ctx, phoneKey, user.ID, 0).Err()
}

func (s *RedisService) GetUser(userID string) (*models.User, error) {
	key := fmt.Sprintf(KeyUserInfo, userID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %v", err)
	}

	return &user, nil
}

func (s *RedisService) GetUserByPhone(phoneNumber string) (*models.User, error) {
	phoneKey := fmt.Sprintf(KeyUserByPhone, phoneNumber)

	userID, err := s.client.Get(s.ctx, phoneKey).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("phone %s: %w", phoneNumber, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up phone: %v", err)
	}

	return s.GetUser(userID)
}

// IndexDeviceUser records that the account is bound to the device. The set
// backs the multiple-accounts fraud heuristic.
func (s *RedisService) IndexDeviceUser(deviceID, userID string) error {
	key := fmt.Sprintf(KeyDeviceUsers, deviceID)
	return s.client.SAdd(s.ctx, key, userID).Err()
}

// GetDeviceUsers returns every account ever bound to the device.
func (s *RedisService) GetDeviceUsers(deviceID string) ([]string, error) {
	key := fmt.Sprintf(KeyDeviceUsers, deviceID)

	users, err := s.client.SMembers(s.ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list device users: %v", err)
	}

	return users, nil
}

func (s *RedisService) ClearDeviceUsers(deviceID string) error {
	return s.client.Del(s.ctx, fmt.Sprintf(KeyDeviceUsers, deviceID)).Err()
}

func (s *RedisService) StoreOTP(otp *models.OTPVerification, expiry time.Duration) error {
	key := fmt.Sprintf(KeyOTP, otp.PhoneNumber)

	data, err := json.Marshal(otp)
	if err != nil {
		return err
	}

	return s.client.Set(s.ctx, key, data, expiry).Err()
}

func (s *RedisService) GetOTP(phoneNumber string) (*models.OTPVerification, error) {
	key := fmt.Sprintf(KeyOTP, phoneNumber)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrInvalidOTP
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get otp: %v", err)
	}

	var otp models.OTPVerification
	if err := json.Unmarshal([]byte(data), &otp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal otp: %v", err)
	}

	return &otp, nil
}

func (s *RedisService) DeleteOTP(phoneNumber string) error {
	key := fmt.Sprintf(KeyOTP, phoneNumber)
	return s.client.Del(s.ctx, key).Err()
}

func (s *RedisService) CheckRateLimit(userID string, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) SaveAuditLog(entry *models.AuditLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit log: %v", err)
	}

	if err := s.client.LPush(s.ctx, KeyAuditLogs, data).Err(); err != nil {
		return fmt.Errorf("failed to save audit log: %v", err)
	}

	s.client.LTrim(s.ctx, KeyAuditLogs, 0, MaxAuditLogEntries-1)

	return nil
}

func (s *RedisService) GetAuditLogs(limit int64) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > MaxAuditLogEntries {
		limit = 100
	}

	raw, err := s.client.LRange(s.ctx, KeyAuditLogs, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit logs: %v", err)
	}

	var logs []*models.AuditLog
	for _, item := range raw {
		var entry models.AuditLog
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		logs = append(logs, &entry)
	}

	return logs, nil
}

func (s *RedisService) DeleteUser(userID string) error {
	user, err := s.GetUser(userID)
	if err == nil {
		s.client.Del(s.ctx, fmt.Sprintf(KeyUserByPhone, user.PhoneNumber))
	}
	return s.client.Del(s.ctx, fmt.Sprintf(KeyUserInfo, userID)).Err()
}

func (s *RedisService) ClearRateLimit(userID string, action string) error {
	key := fmt.Sprintf(KeyRateLimit, userID, action)
	return s.client.Del(s.ctx, key).Err()
}
