package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates a record does not exist or did not match the update condition.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides database operations
type Repository struct {
	db      *sql.DB
	q       DBTX
	dialect Dialect
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{db: db, q: db, dialect: dialect}
}

// Open connects to the database for the given driver and verifies the connection
func Open(ctx context.Context, driver, conn string) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, Dialect{}, err
	}
	db, err := sql.Open(dialect.driver, conn)
	if err != nil {
		return nil, Dialect{}, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect.Name == SQLite.Name {
		// An in-memory SQLite database exists per connection; writes are serialized anyway.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, Dialect{}, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, dialect, nil
}

// Migrate creates the schema if it does not exist yet
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.migrations {
		if _, err := r.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}
	return nil
}

// InTx runs fn inside a database transaction. fn receives a repository bound to
// the transaction; any error returned by fn rolls the transaction back.
func (r *Repository) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		// Already inside a transaction.
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&Repository{q: tx, dialect: r.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// expectOneRow turns a conditional update that matched nothing into ErrNotFound
func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func now() time.Time {
	return time.Now().UTC()
}
