package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ReputationPerRepayment is added to a borrower's score for every repaid loan
const ReputationPerRepayment = 10

var limitMultiplier = decimal.NewFromInt(2)

// ReputationStore reads and updates reputation scores
type ReputationStore interface {
	GetReputation(ctx context.Context, userID uuid.UUID) (int, error)
	IncrementReputation(ctx context.Context, userID uuid.UUID, delta int) error
}

// TrustEngine derives borrowing limits from reputation
type TrustEngine struct {
	store ReputationStore
	log   *logrus.Logger
}

// NewTrustEngine initializes a trust engine
func NewTrustEngine(store ReputationStore, log *logrus.Logger) *TrustEngine {
	return &TrustEngine{store: store, log: log}
}

// WithStore returns an engine bound to another store, e.g. a transaction
func (t *TrustEngine) WithStore(store ReputationStore) *TrustEngine {
	return &TrustEngine{store: store, log: t.log}
}

// MaxLoan is the largest amount a borrower with the given reputation may request
func MaxLoan(reputation int) decimal.Decimal {
	return decimal.NewFromInt(int64(reputation)).Mul(limitMultiplier)
}

// Limit returns the user's current loan ceiling and the reputation it was derived from
func (t *TrustEngine) Limit(ctx context.Context, userID uuid.UUID) (decimal.Decimal, int, error) {
	reputation, err := t.store.GetReputation(ctx, userID)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return MaxLoan(reputation), reputation, nil
}

// OnRepayment rewards a borrower for repaying. The increment is a single
// atomic statement, so concurrent repayments cannot lose updates.
func (t *TrustEngine) OnRepayment(ctx context.Context, userID uuid.UUID) error {
	if err := t.store.IncrementReputation(ctx, userID, ReputationPerRepayment); err != nil {
		return err
	}
	t.log.WithField("user_id", userID).Debugf("Reputation increased by %d", ReputationPerRepayment)
	return nil
}
