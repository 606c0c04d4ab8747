package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/microfund/internal/auth"
	"github.com/Dan9191/microfund/internal/config"
	"github.com/Dan9191/microfund/internal/handler"
	"github.com/Dan9191/microfund/internal/integrations/mpesa"
	"github.com/Dan9191/microfund/internal/integrations/notary"
	"github.com/Dan9191/microfund/internal/middleware"
	"github.com/Dan9191/microfund/internal/models"
	"github.com/Dan9191/microfund/internal/repository"
	"github.com/Dan9191/microfund/internal/service"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T, burst int) *testServer {
	t.Helper()
	ctx := context.Background()
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, dialect, err := repository.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.NewRepository(db, dialect)
	require.NoError(t, repo.Migrate(ctx))

	cfg := &config.Config{RequestTimeout: 5 * time.Second, CORSOrigins: []string{"*"}}
	n := notary.NewNotary(log)
	authSvc := service.NewAuthService(repo, auth.NewTokenManager("test-secret"), auth.NewPasswordHasher(bcrypt.MinCost), log)
	ledger := service.NewLedgerService(repo, n, log)
	loans := service.NewLoanService(repo, service.NewTrustEngine(repo, log), ledger, n, log)
	savings := service.NewSavingsService(repo, ledger, mpesa.NewClient(log), nil, log)
	h := handler.NewHandler(authSvc, loans, savings, ledger, log)

	router := NewRouter(cfg, h, authSvc, middleware.NewRateLimiter(1, burst, log), log)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

func (ts *testServer) do(method, path, token string, body any) (int, []byte) {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.srv.Client().Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return resp.StatusCode, data
}

func (ts *testServer) register(username string) service.AuthResult {
	ts.t.Helper()
	code, body := ts.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(ts.t, http.StatusOK, code, string(body))
	var res service.AuthResult
	require.NoError(ts.t, json.Unmarshal(body, &res))
	return res
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload["error"]
}

func TestLoanLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t, 100)
	alice := ts.register("alice")
	bob := ts.register("bob")

	code, body := ts.do(http.MethodPost, "/api/loans", alice.Token, map[string]any{"amount": 150, "description": "School fees"})
	require.Equal(t, http.StatusOK, code, string(body))
	var loanID string
	require.NoError(t, json.Unmarshal(body, &loanID))

	code, body = ts.do(http.MethodGet, "/api/loans/marketplace", bob.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var market []models.MarketplaceLoan
	require.NoError(t, json.Unmarshal(body, &market))
	require.Len(t, market, 1)
	assert.Equal(t, "alice", market[0].BorrowerUsername)

	code, body = ts.do(http.MethodPost, "/api/loans/"+loanID+"/fund", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, errorMessage(t, body))

	code, body = ts.do(http.MethodPost, "/api/loans/"+loanID+"/fund", bob.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Loan funded successfully", string(body))

	code, _ = ts.do(http.MethodPost, "/api/loans/repay", bob.Token, map[string]string{"loan_id": loanID})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = ts.do(http.MethodPost, "/api/loans/repay", alice.Token, map[string]string{"loan_id": loanID})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Loan repaid successfully", string(body))

	code, body = ts.do(http.MethodGet, "/api/auth/profile", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var profile models.Profile
	require.NoError(t, json.Unmarshal(body, &profile))
	assert.Equal(t, 110, profile.ReputationScore)

	code, body = ts.do(http.MethodGet, "/api/loans/"+loanID, bob.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var loan models.Loan
	require.NoError(t, json.Unmarshal(body, &loan))
	assert.Equal(t, models.LoanRepaid, loan.Status)
	assert.Equal(t, bob.UserID, loan.LenderID.UUID)

	code, body = ts.do(http.MethodGet, "/api/loans", bob.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var mine []models.Loan
	require.NoError(t, json.Unmarshal(body, &mine))
	assert.Len(t, mine, 1)
}

func TestLoanAboveTrustLimit(t *testing.T) {
	ts := newTestServer(t, 100)
	alice := ts.register("alice")

	code, body := ts.do(http.MethodPost, "/api/loans", alice.Token, map[string]any{"amount": "200.01"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, errorMessage(t, body), "$200.00")

	code, _ = ts.do(http.MethodPost, "/api/loans", alice.Token, map[string]any{"amount": "200"})
	assert.Equal(t, http.StatusOK, code)
}

func TestSavingsOverHTTP(t *testing.T) {
	ts := newTestServer(t, 100)
	alice := ts.register("alice")
	bob := ts.register("bob")

	code, body := ts.do(http.MethodPost, "/api/savings", alice.Token, map[string]string{"goal_name": "School fees"})
	require.Equal(t, http.StatusOK, code, string(body))
	var goalID string
	require.NoError(t, json.Unmarshal(body, &goalID))

	code, body = ts.do(http.MethodPost, "/api/savings/"+goalID+"/deposit", alice.Token, map[string]any{"amount": 10.0, "phone_number": "0712345678"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Deposit successful", string(body))

	code, _ = ts.do(http.MethodPost, "/api/savings/"+goalID+"/deposit", bob.Token, map[string]any{"amount": 5})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = ts.do(http.MethodGet, "/api/savings", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var goals []models.Savings
	require.NoError(t, json.Unmarshal(body, &goals))
	require.Len(t, goals, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(goals[0].Amount))

	code, body = ts.do(http.MethodGet, "/api/savings/"+goalID+"/transactions", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var history []models.SavingsTransaction
	require.NoError(t, json.Unmarshal(body, &history))
	assert.Len(t, history, 1)

	code, body = ts.do(http.MethodGet, "/api/ledger?limit=5", "", nil)
	require.Equal(t, http.StatusOK, code)
	var entries []models.PlatformTransaction
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActivityDeposit, entries[0].ActivityType)
	assert.True(t, strings.HasPrefix(entries[0].Signature, "5tZ"))
}

func TestPublicEndpoints(t *testing.T) {
	ts := newTestServer(t, 100)
	ts.register("alice")

	code, body := ts.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", string(body))

	code, body = ts.do(http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, code)
	var stats models.PlatformStats
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, int64(1), stats.TotalUsers)

	code, _ = ts.do(http.MethodGet, "/api/ledger?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = ts.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAuthFailures(t *testing.T) {
	ts := newTestServer(t, 100)
	ts.register("alice")

	code, body := ts.do(http.MethodGet, "/api/loans", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", errorMessage(t, body))

	code, _ = ts.do(http.MethodGet, "/api/loans", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = ts.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotContains(t, string(body), "token")

	code, _ = ts.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "alice2@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, code)
}

func TestAuthEndpointsAreRateLimited(t *testing.T) {
	ts := newTestServer(t, 2)
	creds := map[string]string{"username": "ghost", "password": "password123"}

	var codes []int
	for i := 0; i < 3; i++ {
		code, _ := ts.do(http.MethodPost, "/api/auth/login", "", creds)
		codes = append(codes, code)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}
