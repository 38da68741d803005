package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/taskgig-backoffice/internal/ai"
	"github.com/01moynul/taskgig-backoffice/internal/auth"
	"github.com/01moynul/taskgig-backoffice/internal/config"
	"github.com/01moynul/taskgig-backoffice/internal/database"
	"github.com/01moynul/taskgig-backoffice/internal/format"
	"github.com/01moynul/taskgig-backoffice/internal/handlers"
	"github.com/01moynul/taskgig-backoffice/internal/logging"
	"github.com/01moynul/taskgig-backoffice/internal/middleware"
	"github.com/01moynul/taskgig-backoffice/internal/routes"
	"github.com/01moynul/taskgig-backoffice/internal/store"
	"github.com/01moynul/taskgig-backoffice/internal/validations"
	"github.com/01moynul/taskgig-backoffice/internal/withdrawals"
)

func main() {
	migrate := flag.Bool("migrate", false, "create missing tables before serving")
	flag.Parse()

	if err := run(*migrate); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(migrate bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 0. --- Configuration & Logging ---
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// 1. --- Main Database Connection (Read/Write) ---
	db, err := database.OpenDB(ctx, cfg.DSNPrimary, loc, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("schema migrated")
	}

	// 2. --- Services ---
	formatter := format.New(cfg.Currency)
	withdrawalService := withdrawals.NewService(store.NewWithdrawals(db), logger, withdrawals.Options{
		AllowOverdraft:  cfg.AllowOverdraft,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
		Location:        loc,
		Formatter:       formatter,
	})
	validationService := validations.NewService(store.NewExecutions(db), logger, validations.Options{
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
		Location:        loc,
		Formatter:       formatter,
	})
	users := store.NewUsers(db)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	app := &handlers.Handlers{
		Withdrawals: withdrawalService,
		Validations: validationService,
		Wallets:     store.NewWallets(db),
		Users:       users,
		Tokens:      tokens,
		Logger:      logger,
		Formatter:   formatter,
	}

	// 3. --- AI Assistant (optional, Read-Only connection) ---
	if cfg.AssistantEnabled() {
		dbReadOnly, err := database.OpenReadOnlyDB(ctx, cfg.DSNReadOnly, loc, logger)
		if err != nil {
			return err
		}
		defer dbReadOnly.Close()

		assistant, err := ai.NewAssistant(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, ai.NewQueryRunner(dbReadOnly), logger)
		if err != nil {
			return err
		}
		defer assistant.Close()
		app.Assistant = assistant
	} else {
		logger.Warn("assistant disabled: GEMINI_API_KEY or DB_DSN_READONLY is not set")
	}

	// --- Router Setup ---
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.Start()
	defer limiter.Stop()

	router := routes.SetupRouter(app, routes.Options{
		CORSOrigin: cfg.CORSOrigin,
		Tokens:     tokens,
		Users:      users,
		Limiter:    limiter,
		Logger:     logger,
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting TaskGig back-office API", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
