package services_test

import (
	"testing"
	"time"

	"ludo-stakes-backend/internal/config"
	"ludo-stakes-backend/internal/models"
	"ludo-stakes-backend/internal/services"
)

func testConfig() *config.Config {
	return &config.Config{
		RedisURL:           "localhost:6379",
		RedisPass:          "",
		RedisDB:            0,
		JWTSecret:          "test-secret",
		TokenExpiry:        time.Hour,
		OTPExpiry:          5 * time.Minute,
		CommissionPercent:  10,
		MatchmakingTimeout: 120 * time.Second,
		SweepInterval:      10 * time.Second,
		StaleGameCutoff:    30 * time.Minute,
	}
}

func newTestStore(t *testing.T) *services.RedisService {
	t.Helper()

	store, err := services.NewRedisService(testConfig())
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func newTestUser(t *testing.T, store *services.RedisService) string {
	t.Helper()

	userID := "test-" + models.NewID()
	now := time.Now()
	user := &models.User{
		ID:          userID,
		PhoneNumber: "phone-" + userID,
		Role:        models.RoleUser,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.SaveUser(user); err != nil {
		t.Fatalf("Failed to save test user: %v", err)
	}

	t.Cleanup(func() {
		store.DeleteLedger(userID)
		store.DeleteUser(userID)
	})

	return userID
}

func fundUser(t *testing.T, wallet *services.WalletService, userID string, amount int64) {
	t.Helper()

	if _, err := wallet.CreateTransaction(userID, models.TransactionTypeDeposit, amount,
		models.NewID(), "PAYMENT", nil); err != nil {
		t.Fatalf("Failed to fund user: %v", err)
	}
}
