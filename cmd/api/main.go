package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dan9191/microfund/internal/auth"
	"github.com/Dan9191/microfund/internal/config"
	"github.com/Dan9191/microfund/internal/handler"
	"github.com/Dan9191/microfund/internal/integrations/mpesa"
	"github.com/Dan9191/microfund/internal/integrations/notary"
	"github.com/Dan9191/microfund/internal/middleware"
	"github.com/Dan9191/microfund/internal/repository"
	"github.com/Dan9191/microfund/internal/scheduler"
	"github.com/Dan9191/microfund/internal/server"
	"github.com/Dan9191/microfund/internal/service"
	"github.com/Dan9191/microfund/internal/utils/email"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Failed to load .env: %v", err)
	}

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, dialect, err := repository.Open(ctx, cfg.DBDriver, cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := repository.NewRepository(db, dialect)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	logger.WithField("driver", dialect.Name).Info("Database ready")

	// Initialize layers
	mailer := email.NewSender(cfg, logger)
	if !mailer.Enabled() {
		logger.Info("SMTP_HOST not set, email notifications disabled")
	}
	notarySvc := notary.NewNotary(logger)

	authSvc := service.NewAuthService(repo, auth.NewTokenManager(cfg.JWTSecret), auth.NewPasswordHasher(cfg.BcryptCost), logger)
	trust := service.NewTrustEngine(repo, logger)
	ledger := service.NewLedgerService(repo, notarySvc, logger)
	loans := service.NewLoanService(repo, trust, ledger, notarySvc, logger)
	savings := service.NewSavingsService(repo, ledger, mpesa.NewClient(logger), mailer, logger)
	h := handler.NewHandler(authSvc, loans, savings, ledger, logger)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	// Background jobs
	jobs := scheduler.New(scheduler.Options{
		ReminderSchedule: cfg.ReminderSchedule,
		ReminderAfter:    cfg.ReminderAfter,
	}, repo, mailer, limiter, logger)
	if err := jobs.Register(); err != nil {
		logger.Fatalf("Failed to schedule jobs: %v", err)
	}
	jobs.Start()

	// Start server
	srv := server.New(cfg, server.NewRouter(cfg, h, authSvc, limiter, logger))
	go func() {
		logger.Infof("Starting server on %s", cfg.Addr())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	jobs.Stop(shutdownCtx)
	savings.Wait()
}
