package models

import "time"

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "PENDING"
	WithdrawalStatusApproved WithdrawalStatus = "APPROVED"
	WithdrawalStatusRejected WithdrawalStatus = "REJECTED"
)

type Withdrawal struct {
	ID              string           `json:"id" redis:"id"`
	UserID          string           `json:"user_id" redis:"user_id"`
	Amount          int64            `json:"amount" redis:"amount"`
	Status          WithdrawalStatus `json:"status" redis:"status"`
	BankAccount     string           `json:"bank_account,omitempty" redis:"bank_account"`
	IFSCCode        string           `json:"ifsc_code,omitempty" redis:"ifsc_code"`
	RejectionReason string           `json:"rejection_reason,omitempty" redis:"rejection_reason"`
	ApprovedBy      string           `json:"approved_by,omitempty" redis:"approved_by"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty" redis:"approved_at"`
	CreatedAt       time.Time        `json:"created_at" redis:"created_at"`
}
