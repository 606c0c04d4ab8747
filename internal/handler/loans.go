package handler

import (
	"net/http"

	"github.com/Dan9191/microfund/internal/respond"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createLoanRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description"`
}

type repayRequest struct {
	LoanID uuid.UUID `json:"loan_id"`
}

// CreateLoan submits a loan request and returns its id
func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req createLoanRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	loan, err := h.loans.Create(r.Context(), userID, req.Amount, req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, loan.ID)
}

// MyLoans lists loans the caller borrowed or funded
func (h *Handler) MyLoans(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	loans, err := h.loans.ListMine(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, loans)
}

// Marketplace lists pending loans of other users
func (h *Handler) Marketplace(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	loans, err := h.loans.ListMarketplace(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, loans)
}

// GetLoan returns a single loan
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	loanID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	loan, err := h.loans.Get(r.Context(), userID, loanID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, loan)
}

// FundLoan funds a pending loan as the caller
func (h *Handler) FundLoan(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	loanID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.loans.Fund(r.Context(), userID, loanID); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.Text(w, http.StatusOK, "Loan funded successfully")
}

// RepayLoan repays one of the caller's approved loans
func (h *Handler) RepayLoan(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req repayRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.loans.Repay(r.Context(), userID, req.LoanID); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.Text(w, http.StatusOK, "Loan repaid successfully")
}
