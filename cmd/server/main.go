package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minniexp/expense-backend/internal/config"
	"github.com/minniexp/expense-backend/internal/database"
	"github.com/minniexp/expense-backend/internal/handler"
	"github.com/minniexp/expense-backend/internal/ingest"
	"github.com/minniexp/expense-backend/internal/ledger"
	"github.com/minniexp/expense-backend/internal/logger"
	"github.com/minniexp/expense-backend/internal/repository"
	"github.com/minniexp/expense-backend/internal/router"
	"github.com/minniexp/expense-backend/internal/teller"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate required config
	if cfg.DatabaseURI == "" {
		log.Fatal("DATABASE_URI is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Run migrations
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("database migrations completed")

	// Repositories
	txRepo := repository.NewTransactionRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	userRepo := repository.NewUserRepository(db)
	checkpointRepo := repository.NewCheckpointRepository(db)

	// Return ledger
	led := ledger.New(returnRepo, txRepo)

	// Feed client (optional: without certificates the sync endpoints fail
	// per request instead of blocking startup)
	var feed ingest.Feed
	if cfg.Teller.CertFile != "" && cfg.Teller.KeyFile != "" {
		client, err := teller.New(cfg.Teller)
		if err != nil {
			log.Fatalf("Failed to create feed client: %v", err)
		}
		feed = client
	} else {
		slog.Warn("feed certificates not configured, ingestion disabled")
		feed = unavailableFeed{}
	}

	pipeline := ingest.New(feed, txRepo, checkpointRepo, led, ingest.Options{
		Instruments:   cfg.Instruments,
		MonthReturns:  cfg.MonthReturns,
		SupportedYear: cfg.SupportedYear,
		DefaultUserID: cfg.DefaultUserID,
	}, slog.Default())

	handlers := router.Handlers{
		Transactions: handler.NewTransactionHandler(txRepo, led, cfg.MonthReturns, cfg.DefaultUserID),
		Returns:      handler.NewReturnHandler(returnRepo, led),
		Users:        handler.NewUserHandler(userRepo, cfg.JWTSecret),
		Checkpoints:  handler.NewCheckpointHandler(checkpointRepo),
		Teller:       handler.NewTellerHandler(pipeline, cfg.Teller),
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.Setup(cfg, userRepo, handlers),
	}

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		cancel()
	}()

	slog.Info("server listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
}

type unavailableFeed struct{}

func (unavailableFeed) ListTransactions(context.Context, teller.Credentials, string) ([]teller.Transaction, error) {
	return nil, errors.New("feed client not configured")
}
