package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/odyssey-erp/odyssey-todo/cmd/todo/cli"
	"github.com/odyssey-erp/odyssey-todo/internal/app"
	"github.com/odyssey-erp/odyssey-todo/internal/auth"
	"github.com/odyssey-erp/odyssey-todo/internal/observability"
	"github.com/odyssey-erp/odyssey-todo/internal/platform/db"
	"github.com/odyssey-erp/odyssey-todo/internal/todos"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		os.Exit(runMigrate(ctx, cfg, os.Args[2:]))
	}

	if err := serve(ctx, stop, cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func runMigrate(ctx context.Context, cfg *app.Config, args []string) int {
	migrateCLI, err := cli.NewMigrateCLI(db.NewMigrator(cfg.PGDSN))
	if err != nil {
		slog.Default().Error("migrate cli", slog.Any("error", err))
		return cli.ExitFailure
	}
	return migrateCLI.MigrateCommand(ctx, cli.MigrateOptions{Args: args, Stdout: os.Stdout, Stderr: os.Stderr})
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	if cfg.MigrateOnStart {
		if err := db.NewMigrator(cfg.PGDSN).Up(ctx); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer dbpool.Close()

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()

	authService := auth.NewService(
		auth.NewRepository(dbpool),
		auth.NewBcryptHasher(cfg.BcryptCost, cfg.HashConcurrency),
		tokens,
		auth.ServiceConfig{TokenTTL: cfg.AccessTokenTTL},
		logger,
	)
	authHandler := auth.NewHandler(logger, authService, metrics)
	guard := auth.NewGuard(tokens, logger)

	todoService := todos.NewService(todos.NewRepository(dbpool))
	todoHandler := todos.NewHandler(logger, todoService)

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		AuthHandler: authHandler,
		TodoHandler: todoHandler,
		Guard:       guard,
		Metrics:     metrics,
		DB:          dbpool,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
