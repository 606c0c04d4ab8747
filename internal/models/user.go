package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultReputation is the score every new user starts with
const DefaultReputation = 100

// User represents a user in the system
type User struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"` // Not serialized
	ReputationScore int       `json:"reputation_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// Profile is the public view of the authenticated user
type Profile struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	ReputationScore int    `json:"reputation_score"`
}
