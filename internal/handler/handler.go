package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Dan9191/microfund/internal/apperror"
	"github.com/Dan9191/microfund/internal/middleware"
	"github.com/Dan9191/microfund/internal/respond"
	"github.com/Dan9191/microfund/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	auth    *service.AuthService
	loans   *service.LoanService
	savings *service.SavingsService
	ledger  *service.LedgerService
	log     *logrus.Logger
}

func NewHandler(auth *service.AuthService, loans *service.LoanService, savings *service.SavingsService, ledger *service.LedgerService, log *logrus.Logger) *Handler {
	return &Handler{auth: auth, loans: loans, savings: savings, ledger: ledger, log: log}
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respond.Text(w, http.StatusOK, "OK")
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		h.log.WithError(err).Debug("Invalid request body")
		return apperror.BadRequest("invalid JSON payload")
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(h.log, w, r, err)
}

func (h *Handler) ok(w http.ResponseWriter, payload any) {
	respond.JSON(h.log, w, http.StatusOK, payload)
}

// caller returns the identity stored by the auth middleware
func caller(r *http.Request) (uuid.UUID, error) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		return uuid.Nil, apperror.Unauthorized()
	}
	return userID, nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, apperror.BadRequest("invalid " + name)
	}
	return id, nil
}
