package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/Dan9191/microfund/internal/apperror"
	"github.com/Dan9191/microfund/internal/auth"
	"github.com/Dan9191/microfund/internal/models"
	"github.com/Dan9191/microfund/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxPasswordBytes = 72

// AuthResult is returned by registration and login
type AuthResult struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"user_id"`
}

// AuthService registers users, verifies credentials and resolves bearer tokens
type AuthService struct {
	repo   *repository.Repository
	tokens *auth.TokenManager
	hasher *auth.PasswordHasher
	log    *logrus.Logger
}

// NewAuthService initializes a new auth service
func NewAuthService(repo *repository.Repository, tokens *auth.TokenManager, hasher *auth.PasswordHasher, log *logrus.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, hasher: hasher, log: log}
}

// Register creates a new user with a hashed password and returns a session token
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateRegistration(username, email, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	user := &models.User{
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		ReputationScore: models.DefaultReputation,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, apperror.Conflict("username or email already exists")
		}
		s.log.WithError(err).Error("Failed to register user")
		return nil, apperror.Internal(err)
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User registered: %s", user.Username)
	return &AuthResult{Token: token, UserID: user.ID}, nil
}

// Login verifies credentials and issues a fresh token
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.BadRequest("username and password are required")
	}

	user, err := s.repo.FindUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Unauthorized()
	}
	if err != nil {
		s.log.WithError(err).Error("Failed to look up user")
		return nil, apperror.Internal(err)
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, apperror.Unauthorized()
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User logged in: %s", user.Username)
	return &AuthResult{Token: token, UserID: user.ID}, nil
}

// IssueToken signs a session token for the user
func (s *AuthService) IssueToken(userID uuid.UUID) (string, error) {
	token, err := s.tokens.Generate(userID)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return token, nil
}

// ResolveIdentity returns the user id carried by the request's bearer token.
// It only verifies the signature and expiry; the store is not consulted.
func (s *AuthService) ResolveIdentity(r *http.Request) (uuid.UUID, error) {
	token, err := auth.BearerToken(r)
	if err != nil {
		return uuid.Nil, apperror.Unauthorized()
	}
	userID, err := s.tokens.Parse(token)
	if err != nil {
		s.log.WithError(err).Debug("Token validation failed")
		return uuid.Nil, apperror.Unauthorized()
	}
	return userID, nil
}

// Profile returns the public profile of a user
func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	return &models.Profile{
		Username:        user.Username,
		Email:           user.Email,
		ReputationScore: user.ReputationScore,
	}, nil
}

func validateRegistration(username, email, password string) error {
	if n := utf8.RuneCountInString(username); n < 3 || n > 32 {
		return apperror.BadRequest("username must be between 3 and 32 characters")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return apperror.BadRequest("a valid email address is required")
	}
	if utf8.RuneCountInString(password) < 8 {
		return apperror.BadRequest("password must be at least 8 characters")
	}
	// bcrypt only hashes the first 72 bytes and refuses longer input.
	if len(password) > maxPasswordBytes {
		return apperror.BadRequest(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}
