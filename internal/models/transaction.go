package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionDeposit is the only savings transaction type today
const TransactionDeposit = "deposit"

// SavingsTransaction is one entry in a savings goal's history
type SavingsTransaction struct {
	ID              uuid.UUID       `json:"id"`
	SavingsID       uuid.UUID       `json:"savings_id"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transaction_type"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Platform ledger activity kinds
const (
	ActivityLoanRequest = "LOAN_REQUEST"
	ActivityLoanFunding = "LOAN_FUNDING"
	ActivityRepayment   = "REPAYMENT"
	ActivityDeposit     = "DEPOSIT"
)

// PlatformTransaction is an append-only audit entry
type PlatformTransaction struct {
	ID           uuid.UUID       `json:"id"`
	ActivityType string          `json:"activity_type"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Signature    string          `json:"signature"`
	CreatedAt    time.Time       `json:"created_at"`
}
