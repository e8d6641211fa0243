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

	"github.com/spf13/cobra"

	"github.com/instaclone-server/internal/auth"
	"github.com/instaclone-server/internal/config"
	"github.com/instaclone-server/internal/db"
	apphttp "github.com/instaclone-server/internal/http"
	"github.com/instaclone-server/internal/http/middleware"
	"github.com/instaclone-server/internal/media"
	"github.com/instaclone-server/internal/realtime"
	"github.com/instaclone-server/internal/store"
	ws "github.com/instaclone-server/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "instaclone",
		Short:         "Instaclone API and realtime server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), config.Load())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), config.Load())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(cmd.Context(), config.Load())
		},
	})
	return cmd
}

func migrate(ctx context.Context, cfg config.Config) error {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error("db connect", "error", err)
		return err
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, db.Migrations, "migrations"); err != nil {
		logger.Error("apply migrations", "error", err)
		return err
	}
	logger.Info("migrations applied")
	return nil
}

func serve(parent context.Context, cfg config.Config) error {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()
	if err := db.ApplyMigrations(ctx, pool, db.Migrations, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	hub := realtime.NewHub(logger)
	st := store.New(pool)
	authSvc := auth.NewService(cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)

	handler := apphttp.NewHandler(apphttp.Deps{
		Users:    st,
		Posts:    st,
		Messages: st,
		Images:   media.NewDiskStore(cfg.UploadDir, "/uploads"),
		Notifier: hub,
		Auth:     authSvc,
		Config:   cfg,
		Logger:   logger,
	})
	router := apphttp.NewRouter(apphttp.RouterDeps{
		Handler:  handler,
		AuthMW:   middleware.NewAuth(authSvc),
		Socket:   ws.NewServer(hub, authSvc, cfg.ClientOrigins(), logger),
		Presence: hub,
		Config:   cfg,
		Logger:   logger,
	})

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}

func newLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
