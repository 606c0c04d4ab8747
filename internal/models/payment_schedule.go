package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepaymentReminder describes an approved loan whose borrower should be reminded to repay
type RepaymentReminder struct {
	LoanID     uuid.UUID
	Username   string
	Email      string
	Amount     decimal.Decimal
	ApprovedAt time.Time
}
