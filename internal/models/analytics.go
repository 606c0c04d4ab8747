package models

import "github.com/shopspring/decimal"

// PlatformStats aggregates counters across users, loans and savings
type PlatformStats struct {
	TotalUsers  int64           `json:"total_users"`
	TotalLoaned decimal.Decimal `json:"total_loaned"`
	TotalSaved  decimal.Decimal `json:"total_saved"`
	ActiveLoans int64           `json:"active_loans"`
}
