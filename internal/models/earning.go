package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EarningStatus string

const (
	EarningPending   EarningStatus = "pending"
	EarningAvailable EarningStatus = "available"
)

// EarningRecord is a payout line owned by the backend; read-only here.
type EarningRecord struct {
	ID           string          `json:"id" db:"id"`
	UserID       string          `json:"userId" db:"user_id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Status       EarningStatus   `json:"status" db:"status"`
	SubmissionID *string         `json:"submissionId,omitempty" db:"submission_id"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}
