package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

type User struct {
	ID          string   `json:"id" redis:"id"`
	PhoneNumber string   `json:"phone_number" redis:"phone_number"`
	DeviceID    string   `json:"device_id,omitempty" redis:"device_id"`
	Role        UserRole `json:"role" redis:"role"`

	IsActive       bool `json:"is_active" redis:"is_active"`
	IsWalletLocked bool `json:"is_wallet_locked" redis:"is_wallet_locked"`

	DailyLossLimit  int64 `json:"daily_loss_limit" redis:"daily_loss_limit"`
	DailyEntryLimit int   `json:"daily_entry_limit" redis:"daily_entry_limit"`

	CreatedAt time.Time `json:"created_at" redis:"created_at"`
	UpdatedAt time.Time `json:"updated_at" redis:"updated_at"`
}

type OTPVerification struct {
	PhoneNumber string    `json:"phone_number"`
	OTP         string    `json:"otp"`
	ExpiresAt   time.Time `json:"expires_at"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
}
