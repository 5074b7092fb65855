package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	gerritadapter "github.com/ericfisherdev/gerritwatch/internal/adapter/driven/gerrit"
	sqliteadapter "github.com/ericfisherdev/gerritwatch/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/gerritwatch/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/gerritwatch/internal/adapter/driving/web"
	"github.com/ericfisherdev/gerritwatch/internal/application"
	"github.com/ericfisherdev/gerritwatch/internal/config"
	"github.com/ericfisherdev/gerritwatch/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"poll_concurrency", cfg.PollConcurrency,
		"secret_key_set", cfg.SecretKey != nil,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", db.Path())

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	optionsStore := sqliteadapter.NewOptionsRepo(db, cfg.SecretKey)
	changeStore := sqliteadapter.NewChangeRepo(db)
	gerritClient := gerritadapter.NewClient()

	// 6. Seed options from the environment on first start only. Options saved
	// through the GUI or API always win.
	if err := seedOptions(ctx, cfg, optionsStore); err != nil {
		return err
	}

	// 7. Create and start poll service.
	endpoint := application.NewEndpointProvider()
	pollSvc := application.NewPollService(gerritClient, optionsStore, changeStore, endpoint, cfg.PollConcurrency)
	go pollSvc.Start(ctx)

	optionsSvc := application.NewOptionsService(optionsStore, gerritClient, pollSvc)

	// 8. Register API and GUI routes on one mux.
	mux := http.NewServeMux()
	apiHandler := httphandler.NewHandler(changeStore, optionsSvc, pollSvc, endpoint, slog.Default())
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	webHandler := webhandler.NewHandler(changeStore, optionsSvc, pollSvc, endpoint, slog.Default())
	webhandler.RegisterRoutes(mux, webHandler)

	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("gerritwatch started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// seedOptions stores the environment-provided options when none are saved yet.
func seedOptions(ctx context.Context, cfg *config.Config, store driven.OptionsStore) error {
	if !cfg.HasSeedOptions() {
		return nil
	}

	existing, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}
	if existing != nil {
		slog.Debug("saved options present, ignoring seed options")
		return nil
	}

	seed := cfg.SeedOptions()
	if err := application.Validate(seed); err != nil {
		return fmt.Errorf("seed options: %w", err)
	}

	if err := store.Save(ctx, seed); err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			slog.Warn("seed options not stored: a password needs GERRITWATCH_SECRET_KEY")
			return nil
		}
		return fmt.Errorf("seed options: %w", err)
	}

	slog.Info("seed options stored", "endpoint", seed.Endpoint)
	return nil
}
