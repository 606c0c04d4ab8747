package service

import (
	"context"

	"github.com/Dan9191/microfund/internal/apperror"
	"github.com/Dan9191/microfund/internal/metrics"
	"github.com/Dan9191/microfund/internal/models"
	"github.com/Dan9191/microfund/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultLedgerLimit = 20
	maxLedgerLimit     = 100
)

// LedgerService keeps the platform audit log and its aggregate statistics
type LedgerService struct {
	repo   *repository.Repository
	notary Notary
	log    *logrus.Logger
}

// NewLedgerService initializes a new ledger service
func NewLedgerService(repo *repository.Repository, notary Notary, log *logrus.Logger) *LedgerService {
	return &LedgerService{repo: repo, notary: notary, log: log}
}

// Record appends an audit entry and returns its signature. Recording is best
// effort: failures are logged and never reach the caller.
func (s *LedgerService) Record(ctx context.Context, activity, description string, amount decimal.Decimal) string {
	fields := logrus.Fields{"activity": activity, "amount": amount.StringFixed(2)}

	signature, err := s.notary.Signature()
	if err != nil {
		s.log.WithFields(fields).WithError(err).Warn("Failed to sign ledger entry")
		return ""
	}
	fields["signature"] = signature

	bestEffort(s.log, "Ledger append", fields, func() error {
		return s.repo.InsertPlatformTransaction(ctx, &models.PlatformTransaction{
			ActivityType: activity,
			Description:  description,
			Amount:       amount,
			Signature:    signature,
		})
	})
	metrics.RecordLedgerEntry(activity)
	return signature
}

// Recent returns the newest audit entries. limit is clamped to [1, 100] and
// defaults to 20 when not positive.
func (s *LedgerService) Recent(ctx context.Context, limit int) ([]models.PlatformTransaction, error) {
	if limit <= 0 {
		limit = defaultLedgerLimit
	}
	if limit > maxLedgerLimit {
		limit = maxLedgerLimit
	}
	entries, err := s.repo.RecentPlatformTransactions(ctx, limit)
	if err != nil {
		s.log.WithError(err).Error("Failed to fetch ledger")
		return nil, apperror.Internal(err)
	}
	return entries, nil
}

// Stats aggregates user, loan and savings totals
func (s *LedgerService) Stats(ctx context.Context) (*models.PlatformStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to aggregate stats")
		return nil, apperror.Internal(err)
	}
	return stats, nil
}
