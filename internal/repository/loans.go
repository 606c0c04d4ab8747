package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/microfund/internal/models"
	"github.com/google/uuid"
)

const loanColumns = `id, user_id, lender_id, amount, status, description, created_at, funded_at, repaid_at`

// CreateLoan inserts a new loan in pending state
func (r *Repository) CreateLoan(ctx context.Context, loan *models.Loan) error {
	loan.ID = uuid.New()
	loan.Status = models.LoanPending
	loan.CreatedAt = now()

	query := `
		INSERT INTO loans (id, user_id, amount, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, loan.ID, loan.UserID, r.dialect.money(loan.Amount), string(loan.Status), nullableString(loan.Description), loan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// FundLoan assigns a lender and approves the loan in one conditional update.
// It only matches a pending loan that the lender does not own; otherwise it
// returns ErrNotFound and nothing is written.
func (r *Repository) FundLoan(ctx context.Context, loanID, lenderID uuid.UUID, at time.Time) (*models.Loan, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE loans SET lender_id = $1, status = 'approved', funded_at = $2
		WHERE id = $3 AND status = 'pending' AND user_id <> $1`, lenderID, at, loanID)
	if err := expectOneRow(res, err); err != nil {
		return nil, fmt.Errorf("failed to fund loan: %w", err)
	}
	return r.FindLoanByID(ctx, loanID)
}

// MarkLoanRepaid moves an approved loan owned by borrowerID to repaid. Any
// other state or owner returns ErrNotFound.
func (r *Repository) MarkLoanRepaid(ctx context.Context, loanID, borrowerID uuid.UUID, at time.Time) (*models.Loan, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE loans SET status = 'repaid', repaid_at = $1
		WHERE id = $2 AND user_id = $3 AND status = 'approved'`, at, loanID, borrowerID)
	if err := expectOneRow(res, err); err != nil {
		return nil, fmt.Errorf("failed to repay loan: %w", err)
	}
	return r.FindLoanByID(ctx, loanID)
}

// FindLoanByID retrieves a loan by id
func (r *Repository) FindLoanByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	loan, err := r.scanLoan(r.q.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	return loan, nil
}

// ListUserLoans returns loans where the user is borrower or lender, newest first
func (r *Repository) ListUserLoans(ctx context.Context, userID uuid.UUID) ([]models.Loan, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE user_id = $1 OR lender_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	loans := []models.Loan{}
	for rows.Next() {
		loan, err := r.scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list loans: %w", err)
		}
		loans = append(loans, *loan)
	}
	return loans, rows.Err()
}

// ListMarketplaceLoans returns pending loans of other borrowers, newest first
func (r *Repository) ListMarketplaceLoans(ctx context.Context, viewerID uuid.UUID) ([]models.MarketplaceLoan, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT l.id, l.user_id, u.username, l.amount, l.description, l.created_at
		FROM loans l
		JOIN users u ON l.user_id = u.id
		WHERE l.status = 'pending' AND l.user_id <> $1
		ORDER BY l.created_at DESC`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list marketplace: %w", err)
	}
	defer rows.Close()

	loans := []models.MarketplaceLoan{}
	for rows.Next() {
		var (
			loan        models.MarketplaceLoan
			description sql.NullString
		)
		if err := rows.Scan(&loan.ID, &loan.UserID, &loan.BorrowerUsername, r.dialect.scanMoney(&loan.Amount), &description, &loan.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to list marketplace: %w", err)
		}
		loan.Description = stringPtr(description)
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// ListRepaymentReminders returns approved loans funded before the cutoff along
// with the borrower's contact details
func (r *Repository) ListRepaymentReminders(ctx context.Context, fundedBefore time.Time) ([]models.RepaymentReminder, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT l.id, u.username, u.email, l.amount, l.funded_at
		FROM loans l
		JOIN users u ON l.user_id = u.id
		WHERE l.status = 'approved' AND l.funded_at < $1
		ORDER BY l.funded_at`, fundedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list repayment reminders: %w", err)
	}
	defer rows.Close()

	var reminders []models.RepaymentReminder
	for rows.Next() {
		var rem models.RepaymentReminder
		if err := rows.Scan(&rem.LoanID, &rem.Username, &rem.Email, r.dialect.scanMoney(&rem.Amount), &rem.ApprovedAt); err != nil {
			return nil, fmt.Errorf("failed to list repayment reminders: %w", err)
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

func (r *Repository) scanLoan(row scanner) (*models.Loan, error) {
	var (
		loan        models.Loan
		status      string
		description sql.NullString
		fundedAt    sql.NullTime
		repaidAt    sql.NullTime
	)
	err := row.Scan(&loan.ID, &loan.UserID, &loan.LenderID, r.dialect.scanMoney(&loan.Amount), &status, &description, &loan.CreatedAt, &fundedAt, &repaidAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	loan.Status = models.LoanStatus(status)
	loan.Description = stringPtr(description)
	loan.FundedAt = timePtr(fundedAt)
	loan.RepaidAt = timePtr(repaidAt)
	return &loan, nil
}
