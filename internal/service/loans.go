package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Dan9191/microfund/internal/apperror"
	"github.com/Dan9191/microfund/internal/metrics"
	"github.com/Dan9191/microfund/internal/models"
	"github.com/Dan9191/microfund/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const minDescriptionLength = 3

// LoanService drives the loan lifecycle: request, funding and repayment
type LoanService struct {
	repo   *repository.Repository
	trust  *TrustEngine
	ledger *LedgerService
	notary Notary
	log    *logrus.Logger
	now    func() time.Time
}

// NewLoanService initializes a new loan service
func NewLoanService(repo *repository.Repository, trust *TrustEngine, ledger *LedgerService, notary Notary, log *logrus.Logger) *LoanService {
	return &LoanService{
		repo:   repo,
		trust:  trust,
		ledger: ledger,
		notary: notary,
		log:    log,
		now:    utcNow,
	}
}

// Create submits a loan request within the borrower's trust limit
func (s *LoanService) Create(ctx context.Context, borrowerID uuid.UUID, amount decimal.Decimal, description *string) (*models.Loan, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	description, err := normalizeDescription(description)
	if err != nil {
		return nil, err
	}

	limit, reputation, err := s.trust.Limit(ctx, borrowerID)
	if err != nil {
		return nil, storeError(err)
	}
	if amount.GreaterThan(limit) {
		s.log.WithFields(logrus.Fields{
			"user_id":    borrowerID,
			"amount":     amount.StringFixed(2),
			"reputation": reputation,
		}).Info("Loan request above trust limit")
		return nil, apperror.BadRequest(fmt.Sprintf(
			"Your Trust Score restricts loans to $%s. Repay more loans to increase your limit!", limit.StringFixed(2)))
	}

	loan := &models.Loan{UserID: borrowerID, Amount: amount, Description: description}
	if err := s.repo.CreateLoan(ctx, loan); err != nil {
		s.log.WithError(err).Error("Failed to create loan")
		return nil, apperror.Internal(err)
	}

	label := "unspecified"
	if description != nil {
		label = *description
	}
	s.ledger.Record(ctx, models.ActivityLoanRequest, "Loan requested for: "+label, amount)
	metrics.RecordLoanEvent(string(models.LoanPending))

	s.log.WithFields(logrus.Fields{"loan_id": loan.ID, "user_id": borrowerID}).Info("Loan requested")
	return loan, nil
}

// Fund assigns the lender to a pending loan. Only one of several concurrent
// funders can succeed.
func (s *LoanService) Fund(ctx context.Context, lenderID, loanID uuid.UUID) (*models.Loan, error) {
	loan, err := s.repo.FundLoan(ctx, loanID, lenderID, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.BadRequest("Loan not available for funding")
	}
	if err != nil {
		s.log.WithError(err).Error("Failed to fund loan")
		return nil, apperror.Internal(err)
	}

	fields := logrus.Fields{"loan_id": loan.ID, "lender_id": lenderID}
	bestEffort(s.log, "Loan notarization", fields, func() error {
		_, err := s.notary.RecordLoanEvent(ctx, "funded", loan.ID)
		return err
	})
	s.ledger.Record(ctx, models.ActivityLoanFunding, fmt.Sprintf("Loan %s funded", loan.ID), loan.Amount)
	metrics.RecordLoanEvent(string(models.LoanApproved))

	s.log.WithFields(fields).Info("Loan funded")
	return loan, nil
}

// Repay marks an approved loan as repaid and rewards the borrower. The state
// change and the reputation increase commit together or not at all.
func (s *LoanService) Repay(ctx context.Context, borrowerID, loanID uuid.UUID) (*models.Loan, error) {
	var repaid *models.Loan
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		loan, err := tx.MarkLoanRepaid(ctx, loanID, borrowerID, s.now())
		if err != nil {
			return err
		}
		if err := s.trust.WithStore(tx).OnRepayment(ctx, borrowerID); err != nil {
			return err
		}
		repaid = loan
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, s.repayRejection(ctx, borrowerID, loanID)
	}
	if err != nil {
		s.log.WithError(err).Error("Failed to repay loan")
		return nil, apperror.Internal(err)
	}

	fields := logrus.Fields{"loan_id": repaid.ID, "user_id": borrowerID}
	bestEffort(s.log, "Loan notarization", fields, func() error {
		_, err := s.notary.RecordLoanEvent(ctx, "repaid", repaid.ID)
		return err
	})
	s.ledger.Record(ctx, models.ActivityRepayment, fmt.Sprintf("Loan %s repaid", repaid.ID), repaid.Amount)
	metrics.RecordLoanEvent(string(models.LoanRepaid))

	s.log.WithFields(fields).Info("Loan repaid")
	return repaid, nil
}

// repayRejection explains why a repayment matched no row. Loans the caller
// does not own, and loans already repaid, are reported as missing.
func (s *LoanService) repayRejection(ctx context.Context, borrowerID, loanID uuid.UUID) error {
	loan, err := s.repo.FindLoanByID(ctx, loanID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound()
	}
	if err != nil {
		return apperror.Internal(err)
	}
	if loan.UserID != borrowerID {
		return apperror.NotFound()
	}
	switch loan.Status {
	case models.LoanPending:
		return apperror.BadRequest("Loan has not been funded yet")
	case models.LoanRepaid:
		return apperror.NotFound()
	default:
		return apperror.Internal(fmt.Errorf("loan %s in unexpected state %q", loan.ID, loan.Status))
	}
}

// ListMarketplace returns pending loans from other borrowers, newest first
func (s *LoanService) ListMarketplace(ctx context.Context, viewerID uuid.UUID) ([]models.MarketplaceLoan, error) {
	loans, err := s.repo.ListMarketplaceLoans(ctx, viewerID)
	if err != nil {
		s.log.WithError(err).Error("Failed to list marketplace")
		return nil, apperror.Internal(err)
	}
	return loans, nil
}

// ListMine returns loans where the viewer is borrower or lender, newest first
func (s *LoanService) ListMine(ctx context.Context, viewerID uuid.UUID) ([]models.Loan, error) {
	loans, err := s.repo.ListUserLoans(ctx, viewerID)
	if err != nil {
		s.log.WithError(err).Error("Failed to list loans")
		return nil, apperror.Internal(err)
	}
	return loans, nil
}

// Get returns a loan visible to the viewer: their own requests, loans they
// funded, and pending loans on the marketplace.
func (s *LoanService) Get(ctx context.Context, viewerID, loanID uuid.UUID) (*models.Loan, error) {
	loan, err := s.repo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, storeError(err)
	}
	lender := loan.LenderID.Valid && loan.LenderID.UUID == viewerID
	if loan.UserID != viewerID && !lender && loan.Status != models.LoanPending {
		return nil, apperror.NotFound()
	}
	return loan, nil
}

func normalizeDescription(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) < minDescriptionLength {
		return nil, apperror.BadRequest("Please provide a valid reason for the loan")
	}
	return &trimmed, nil
}
