package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/microfund/internal/models"
	"github.com/google/uuid"
)

const userColumns = `id, username, email, password_hash, reputation_score, created_at`

// CreateUser creates a new user in the database. Duplicate usernames or emails
// return ErrAlreadyExists.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	user.CreatedAt = now()
	if user.ReputationScore == 0 {
		user.ReputationScore = models.DefaultReputation
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, reputation_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.ReputationScore, user.CreatedAt)
	if err != nil {
		if r.dialect.uniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByUsername retrieves a user by username
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetReputation returns the current reputation score of a user
func (r *Repository) GetReputation(ctx context.Context, userID uuid.UUID) (int, error) {
	var score int
	err := r.q.QueryRowContext(ctx, `SELECT reputation_score FROM users WHERE id = $1`, userID).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read reputation: %w", err)
	}
	return score, nil
}

// IncrementReputation adds delta to the user's reputation in a single statement
func (r *Repository) IncrementReputation(ctx context.Context, userID uuid.UUID, delta int) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET reputation_score = reputation_score + $1 WHERE id = $2`, delta, userID)
	if err := expectOneRow(res, err); err != nil {
		return fmt.Errorf("failed to update reputation: %w", err)
	}
	return nil
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.ReputationScore, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
