package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/microfund/internal/apperror"
	"github.com/Dan9191/microfund/internal/metrics"
	"github.com/Dan9191/microfund/internal/models"
	"github.com/Dan9191/microfund/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	maxGoalNameLength   = 100
	notificationTimeout = 30 * time.Second
)

// SavingsService manages savings goals and deposits
type SavingsService struct {
	repo     *repository.Repository
	ledger   *LedgerService
	payments PaymentInitiator
	notifier Notifier
	log      *logrus.Logger
	now      func() time.Time

	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

// NewSavingsService initializes a new savings service. notifier may be nil.
func NewSavingsService(repo *repository.Repository, ledger *LedgerService, payments PaymentInitiator, notifier Notifier, log *logrus.Logger) *SavingsService {
	return &SavingsService{
		repo:     repo,
		ledger:   ledger,
		payments: payments,
		notifier: notifier,
		log:      log,
		now:      utcNow,

		notifyTimeout: notificationTimeout,
	}
}

// CreateGoal opens a savings goal with a zero balance
func (s *SavingsService) CreateGoal(ctx context.Context, ownerID uuid.UUID, goalName string) (*models.Savings, error) {
	goalName = strings.TrimSpace(goalName)
	if goalName == "" {
		return nil, apperror.BadRequest("goal_name is required")
	}
	if len(goalName) > maxGoalNameLength {
		return nil, apperror.BadRequest(fmt.Sprintf("goal_name must be at most %d characters", maxGoalNameLength))
	}

	savings := &models.Savings{UserID: ownerID, GoalName: goalName}
	if err := s.repo.CreateSavings(ctx, savings); err != nil {
		s.log.WithError(err).Error("Failed to create savings goal")
		return nil, storeError(err)
	}

	s.log.WithFields(logrus.Fields{"savings_id": savings.ID, "user_id": ownerID}).Info("Savings goal created")
	return savings, nil
}

// Deposit credits a savings goal. The balance update and the history entry
// commit together; the payment prompt, ledger entry and notification are
// side effects that never fail the deposit. The notification is sent in the
// background after the deposit returns.
func (s *SavingsService) Deposit(ctx context.Context, ownerID, savingsID uuid.UUID, amount decimal.Decimal, phone *string) (*models.SavingsTransaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	fields := logrus.Fields{"savings_id": savingsID, "user_id": ownerID, "amount": amount.StringFixed(2)}

	if s.payments != nil && phone != nil && strings.TrimSpace(*phone) != "" {
		bestEffort(s.log, "Mobile money prompt", fields, func() error {
			_, err := s.payments.InitiateSTKPush(ctx, strings.TrimSpace(*phone), amount)
			return err
		})
	}

	entry := &models.SavingsTransaction{
		SavingsID:       savingsID,
		Amount:          amount,
		TransactionType: models.TransactionDeposit,
		CreatedAt:       s.now(),
	}
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.CreditSavings(ctx, savingsID, ownerID, amount, entry.CreatedAt); err != nil {
			return err
		}
		return tx.InsertSavingsTransaction(ctx, entry)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound()
	}
	if err != nil {
		s.log.WithFields(fields).WithError(err).Error("Deposit failed")
		return nil, apperror.Internal(err)
	}

	s.ledger.Record(ctx, models.ActivityDeposit, fmt.Sprintf("Deposit to savings %s", savingsID), amount)
	metrics.RecordDeposit(amount)
	if s.notifier != nil {
		s.notifyInBackground(ownerID, savingsID, amount, fields)
	}

	s.log.WithFields(fields).Info("Deposit successful")
	return entry, nil
}

// Wait blocks until background deposit notifications have finished
func (s *SavingsService) Wait() {
	s.pending.Wait()
}

func (s *SavingsService) notifyInBackground(ownerID, savingsID uuid.UUID, amount decimal.Decimal, fields logrus.Fields) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		bestEffort(s.log, "Deposit notification", fields, func() error {
			return s.notifyDeposit(ctx, ownerID, savingsID, amount)
		})
	}()
}

func (s *SavingsService) notifyDeposit(ctx context.Context, ownerID, savingsID uuid.UUID, amount decimal.Decimal) error {
	user, err := s.repo.FindUserByID(ctx, ownerID)
	if err != nil {
		return err
	}
	savings, err := s.repo.FindSavings(ctx, savingsID, ownerID)
	if err != nil {
		return err
	}

	// SMTP delivery takes no context; stop waiting for it at the deadline.
	done := make(chan error, 1)
	go func() {
		done <- s.notifier.SendDepositNotification(user.Email, user.Username, savings.GoalName, amount)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("deposit notification not delivered: %w", ctx.Err())
	}
}

// List returns the owner's savings goals
func (s *SavingsService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Savings, error) {
	goals, err := s.repo.ListSavings(ctx, ownerID)
	if err != nil {
		s.log.WithError(err).Error("Failed to list savings")
		return nil, apperror.Internal(err)
	}
	return goals, nil
}

// Transactions returns the deposit history of a goal owned by ownerID
func (s *SavingsService) Transactions(ctx context.Context, ownerID, savingsID uuid.UUID) ([]models.SavingsTransaction, error) {
	if _, err := s.repo.FindSavings(ctx, savingsID, ownerID); err != nil {
		return nil, storeError(err)
	}
	entries, err := s.repo.ListSavingsTransactions(ctx, savingsID)
	if err != nil {
		s.log.WithError(err).Error("Failed to list savings transactions")
		return nil, apperror.Internal(err)
	}
	return entries, nil
}
