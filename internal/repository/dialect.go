package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures what differs between the supported SQL backends: the
// database/sql driver name, the schema DDL, the storage scale of money columns
// and unique-violation detection. Queries themselves use $N placeholders,
// which both backends accept.
type Dialect struct {
	Name            string
	driver          string
	migrations      []string
	moneyShift      int32
	uniqueViolation func(error) bool
}

// Postgres is the production dialect (lib/pq).
var Postgres = Dialect{
	Name:   "postgres",
	driver: "postgres",
	migrations: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			reputation_score INTEGER NOT NULL DEFAULT 100,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS loans (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			lender_id UUID REFERENCES users(id),
			amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'repaid')),
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			funded_at TIMESTAMPTZ,
			repaid_at TIMESTAMPTZ,
			CHECK (lender_id IS NULL OR lender_id <> user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS loans_status_idx ON loans (status)`,
		`CREATE TABLE IF NOT EXISTS savings (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			amount NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (amount >= 0),
			goal_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS savings_transactions (
			id UUID PRIMARY KEY,
			savings_id UUID NOT NULL REFERENCES savings(id),
			amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
			transaction_type TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS platform_transactions (
			id UUID PRIMARY KEY,
			activity_type TEXT NOT NULL,
			description TEXT NOT NULL,
			amount NUMERIC(14,2) NOT NULL DEFAULT 0,
			signature TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS platform_transactions_created_idx ON platform_transactions (created_at DESC)`,
	},
	uniqueViolation: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "23505"
	},
}

// SQLite is used for local development and tests (modernc.org/sqlite). It has
// no exact decimal type, so money columns hold INTEGER cents.
var SQLite = Dialect{
	Name:       "sqlite",
	driver:     "sqlite",
	moneyShift: 2,
	migrations: []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			reputation_score INTEGER NOT NULL DEFAULT 100,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS loans (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			lender_id TEXT REFERENCES users(id),
			amount INTEGER NOT NULL CHECK (amount > 0),
			status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'repaid')),
			description TEXT,
			created_at TIMESTAMP NOT NULL,
			funded_at TIMESTAMP,
			repaid_at TIMESTAMP,
			CHECK (lender_id IS NULL OR lender_id <> user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS loans_status_idx ON loans (status)`,
		`CREATE TABLE IF NOT EXISTS savings (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			amount INTEGER NOT NULL DEFAULT 0 CHECK (amount >= 0),
			goal_name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS savings_transactions (
			id TEXT PRIMARY KEY,
			savings_id TEXT NOT NULL REFERENCES savings(id),
			amount INTEGER NOT NULL CHECK (amount > 0),
			transaction_type TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS platform_transactions (
			id TEXT PRIMARY KEY,
			activity_type TEXT NOT NULL,
			description TEXT NOT NULL,
			amount INTEGER NOT NULL DEFAULT 0,
			signature TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS platform_transactions_created_idx ON platform_transactions (created_at DESC)`,
	},
	uniqueViolation: func(err error) bool {
		var sqliteErr *sqlite.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	},
}

// DialectFor returns the dialect registered under the given driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case Postgres.Name:
		return Postgres, nil
	case SQLite.Name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// money converts an amount to its column representation
func (d Dialect) money(amount decimal.Decimal) any {
	if d.moneyShift == 0 {
		return amount
	}
	return amount.Shift(d.moneyShift).IntPart()
}

// scanMoney returns a scan destination that reads a money column into dst
func (d Dialect) scanMoney(dst *decimal.Decimal) sql.Scanner {
	return moneyColumn{dst: dst, shift: d.moneyShift}
}

type moneyColumn struct {
	dst   *decimal.Decimal
	shift int32
}

func (m moneyColumn) Scan(src any) error {
	if err := m.dst.Scan(src); err != nil {
		return err
	}
	*m.dst = m.dst.Shift(-m.shift)
	return nil
}
