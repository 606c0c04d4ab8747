package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is a state of the loan lifecycle. Loans only move forward:
// pending -> approved -> repaid.
type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanRepaid   LoanStatus = "repaid"
)

// Loan represents a peer-to-peer loan request
type Loan struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	LenderID    uuid.NullUUID   `json:"lender_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      LoanStatus      `json:"status"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	FundedAt    *time.Time      `json:"funded_at,omitempty"`
	RepaidAt    *time.Time      `json:"repaid_at,omitempty"`
}

// MarketplaceLoan is a pending loan listed for other users to fund
type MarketplaceLoan struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	BorrowerUsername string          `json:"borrower_username"`
	Amount           decimal.Decimal `json:"amount"`
	Description      *string         `json:"description,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
