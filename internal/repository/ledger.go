package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/microfund/internal/models"
	"github.com/google/uuid"
)

// InsertPlatformTransaction appends an entry to the platform audit log
func (r *Repository) InsertPlatformTransaction(ctx context.Context, entry *models.PlatformTransaction) error {
	entry.ID = uuid.New()
	entry.CreatedAt = now()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO platform_transactions (id, activity_type, description, amount, signature, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.ActivityType, entry.Description, r.dialect.money(entry.Amount), entry.Signature, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record platform transaction: %w", err)
	}
	return nil
}

// RecentPlatformTransactions returns the newest audit entries
func (r *Repository) RecentPlatformTransactions(ctx context.Context, limit int) ([]models.PlatformTransaction, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, activity_type, description, amount, signature, created_at
		FROM platform_transactions
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list platform transactions: %w", err)
	}
	defer rows.Close()

	entries := []models.PlatformTransaction{}
	for rows.Next() {
		var e models.PlatformTransaction
		if err := rows.Scan(&e.ID, &e.ActivityType, &e.Description, r.dialect.scanMoney(&e.Amount), &e.Signature, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to list platform transactions: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats aggregates platform-wide counters. Sums are read as exact decimals.
func (r *Repository) Stats(ctx context.Context) (*models.PlatformStats, error) {
	stats := &models.PlatformStats{}
	err := r.q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COALESCE(SUM(amount), 0) FROM loans),
			(SELECT COALESCE(SUM(amount), 0) FROM savings),
			(SELECT COUNT(*) FROM loans WHERE status = 'pending')`).
		Scan(&stats.TotalUsers, r.dialect.scanMoney(&stats.TotalLoaned), r.dialect.scanMoney(&stats.TotalSaved), &stats.ActiveLoans)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return stats, nil
}
