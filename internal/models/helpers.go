package models

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

func NewID() string {
	return uuid.New().String()
}

// ComputeCommission returns the platform cut of the pooled stake, rounded
// to the nearest minor unit.
func ComputeCommission(stakeAmount int64, commissionPercent float64) int64 {
	total := 2 * stakeAmount
	return int64(math.Round(float64(total) * commissionPercent / 100))
}

func FormatCurrency(minor int64) string {
	return fmt.Sprintf("%.2f", float64(minor)/100)
}
