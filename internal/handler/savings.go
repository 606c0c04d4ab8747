package handler

import (
	"net/http"

	"github.com/Dan9191/microfund/internal/respond"
	"github.com/shopspring/decimal"
)

type createSavingsRequest struct {
	GoalName string `json:"goal_name"`
}

type depositRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PhoneNumber *string         `json:"phone_number"`
}

// ListSavings returns the caller's savings goals
func (h *Handler) ListSavings(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	goals, err := h.savings.List(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, goals)
}

// CreateSavings opens a savings goal and returns its id
func (h *Handler) CreateSavings(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req createSavingsRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	goal, err := h.savings.CreateGoal(r.Context(), userID, req.GoalName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, goal.ID)
}

// Deposit credits one of the caller's savings goals
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	savingsID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req depositRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.savings.Deposit(r.Context(), userID, savingsID, req.Amount, req.PhoneNumber); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.Text(w, http.StatusOK, "Deposit successful")
}

// SavingsTransactions returns the deposit history of one goal
func (h *Handler) SavingsTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := caller(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	savingsID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	history, err := h.savings.Transactions(r.Context(), userID, savingsID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, history)
}
