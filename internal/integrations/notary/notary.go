package notary

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Notary simulates notarizing platform activity on a public chain. The
// signatures it returns are display-only correlation ids.
type Notary struct {
	log *logrus.Logger
}

// NewNotary initializes a simulated notary
func NewNotary(log *logrus.Logger) *Notary {
	return &Notary{log: log}
}

// Signature returns a new opaque transaction signature
func (n *Notary) Signature() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate signature: %w", err)
	}
	return "5tZ..." + hex.EncodeToString(b), nil
}

// RecordLoanEvent notarizes a loan funding or repayment and returns its signature
func (n *Notary) RecordLoanEvent(ctx context.Context, event string, loanID uuid.UUID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	sig, err := n.Signature()
	if err != nil {
		return "", err
	}
	n.log.WithFields(logrus.Fields{
		"event":     event,
		"loan_id":   loanID,
		"signature": sig,
	}).Info("[BLOCKCHAIN] Loan event notarized")
	return sig, nil
}
