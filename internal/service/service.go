package service

import (
	"context"
	"errors"
	"time"

	"github.com/Dan9191/microfund/internal/apperror"
	"github.com/Dan9191/microfund/internal/integrations/mpesa"
	"github.com/Dan9191/microfund/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PaymentInitiator starts a mobile-money payment for a deposit
type PaymentInitiator interface {
	InitiateSTKPush(ctx context.Context, phone string, amount decimal.Decimal) (*mpesa.STKPushResponse, error)
}

// Notary produces audit signatures and notarizes loan events
type Notary interface {
	Signature() (string, error)
	RecordLoanEvent(ctx context.Context, event string, loanID uuid.UUID) (string, error)
}

// Notifier delivers user-facing notifications
type Notifier interface {
	SendDepositNotification(to, username, goalName string, amount decimal.Decimal) error
}

// bestEffort runs a side effect whose failure must never fail the primary
// operation. Errors are logged and discarded.
func bestEffort(log *logrus.Logger, action string, fields logrus.Fields, fn func() error) {
	if err := fn(); err != nil {
		log.WithFields(fields).WithError(err).Warnf("%s failed", action)
	}
}

// maxAmount is the exclusive upper bound of a NUMERIC(14,2) column
var maxAmount = decimal.New(1, 12)

// validateAmount checks the invariant shared by every monetary operation.
// Amounts are stored with two decimal places.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.BadRequest("amount must be greater than zero")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return apperror.BadRequest("amount must be less than " + maxAmount.String())
	}
	if !amount.Equal(amount.Round(2)) {
		return apperror.BadRequest("amount supports at most two decimal places")
	}
	return nil
}

// storeError maps a repository error to the API taxonomy
func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound()
	case errors.Is(err, repository.ErrAlreadyExists):
		return apperror.Conflict("record already exists")
	default:
		return apperror.Internal(err)
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
