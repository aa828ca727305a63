package models

import "time"

type FraudAlertType string

const (
	FraudAlertAbnormalWinRatio FraudAlertType = "ABNORMAL_WIN_RATIO"
	FraudAlertCollusion        FraudAlertType = "COLLUSION"
	FraudAlertMultipleAccounts FraudAlertType = "MULTIPLE_ACCOUNTS"
)

type FraudAlertStatus string

const (
	FraudAlertFlagged   FraudAlertStatus = "FLAGGED"
	FraudAlertCleared   FraudAlertStatus = "CLEARED"
	FraudAlertConfirmed FraudAlertStatus = "CONFIRMED"
)

type FraudAlert struct {
	ID          string                 `json:"id" redis:"id"`
	UserID      string                 `json:"user_id" redis:"user_id"`
	AlertType   FraudAlertType         `json:"alert_type" redis:"alert_type"`
	Status      FraudAlertStatus       `json:"status" redis:"status"`
	Description string                 `json:"description" redis:"description"`
	Evidence    map[string]interface{} `json:"evidence,omitempty" redis:"evidence"`
	ReviewedBy  string                 `json:"reviewed_by,omitempty" redis:"reviewed_by"`
	ReviewedAt  *time.Time             `json:"reviewed_at,omitempty" redis:"reviewed_at"`
	ReviewNotes string                 `json:"review_notes,omitempty" redis:"review_notes"`
	CreatedAt   time.Time              `json:"created_at" redis:"created_at"`
}
