package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/microfund/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const savingsColumns = `id, user_id, amount, goal_name, created_at, updated_at`

// CreateSavings creates a new savings goal with a zero balance
func (r *Repository) CreateSavings(ctx context.Context, savings *models.Savings) error {
	savings.ID = uuid.New()
	savings.Amount = decimal.Zero
	savings.CreatedAt = now()
	savings.UpdatedAt = savings.CreatedAt

	query := `
		INSERT INTO savings (id, user_id, amount, goal_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, savings.ID, savings.UserID, r.dialect.money(savings.Amount), savings.GoalName, savings.CreatedAt, savings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create savings: %w", err)
	}
	return nil
}

// FindSavings retrieves a savings goal owned by ownerID
func (r *Repository) FindSavings(ctx context.Context, id, ownerID uuid.UUID) (*models.Savings, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+savingsColumns+` FROM savings WHERE id = $1 AND user_id = $2`, id, ownerID)
	savings, err := r.scanSavings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find savings: %w", err)
	}
	return savings, nil
}

// ListSavings returns all savings goals owned by the user
func (r *Repository) ListSavings(ctx context.Context, ownerID uuid.UUID) ([]models.Savings, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+savingsColumns+` FROM savings WHERE user_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings: %w", err)
	}
	defer rows.Close()

	result := []models.Savings{}
	for rows.Next() {
		savings, err := r.scanSavings(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list savings: %w", err)
		}
		result = append(result, *savings)
	}
	return result, rows.Err()
}

// CreditSavings increments the balance of a savings goal owned by ownerID.
// Returns ErrNotFound when no such goal exists.
func (r *Repository) CreditSavings(ctx context.Context, savingsID, ownerID uuid.UUID, amount decimal.Decimal, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE savings SET amount = amount + $1, updated_at = $2
		WHERE id = $3 AND user_id = $4`, r.dialect.money(amount), at, savingsID, ownerID)
	if err := expectOneRow(res, err); err != nil {
		return fmt.Errorf("failed to update savings balance: %w", err)
	}
	return nil
}

// InsertSavingsTransaction appends an entry to a savings goal's history
func (r *Repository) InsertSavingsTransaction(ctx context.Context, tx *models.SavingsTransaction) error {
	tx.ID = uuid.New()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now()
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO savings_transactions (id, savings_id, amount, transaction_type, created_at)
		VALUES ($1, $2, $3, $4, $5)`, tx.ID, tx.SavingsID, r.dialect.money(tx.Amount), tx.TransactionType, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record savings transaction: %w", err)
	}
	return nil
}

// ListSavingsTransactions returns the history of a savings goal, newest first
func (r *Repository) ListSavingsTransactions(ctx context.Context, savingsID uuid.UUID) ([]models.SavingsTransaction, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, savings_id, amount, transaction_type, created_at
		FROM savings_transactions
		WHERE savings_id = $1
		ORDER BY created_at DESC`, savingsID)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings transactions: %w", err)
	}
	defer rows.Close()

	result := []models.SavingsTransaction{}
	for rows.Next() {
		var tx models.SavingsTransaction
		if err := rows.Scan(&tx.ID, &tx.SavingsID, r.dialect.scanMoney(&tx.Amount), &tx.TransactionType, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to list savings transactions: %w", err)
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

func (r *Repository) scanSavings(row scanner) (*models.Savings, error) {
	s := &models.Savings{}
	if err := row.Scan(&s.ID, &s.UserID, r.dialect.scanMoney(&s.Amount), &s.GoalName, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}
