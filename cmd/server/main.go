package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/config"
	"finance-tracker/internal/handlers"
	"finance-tracker/internal/logger"
	"finance-tracker/internal/storage"
	"finance-tracker/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logger.Log.Fatal().Err(err).Msg("server stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.SetLevel(cfg.LogLevel)
	if cfg.LogJSON {
		logger.SetJSON()
	}
	if cfg.InsecureSecret() {
		logger.Log.Warn().Msg("SECRET_KEY not set, using the insecure default key")
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	authService := auth.NewService(db, cfg.SecretKey)
	if cfg.AdminUser != "" && cfg.AdminPassword != "" {
		created, err := authService.EnsureUser(ctx, cfg.AdminUser, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap user: %w", err)
		}
		if created {
			logger.Log.Info().Str("username", cfg.AdminUser).Msg("created initial user")
		}
	}

	h := handlers.NewHandlers(db, authService, web.Templates(), cfg.SecureCookie)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(h, web.Static()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler, err := startSessionCleanup(ctx, authService)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// startSessionCleanup purges expired sessions once at startup and then hourly.
func startSessionCleanup(ctx context.Context, svc *auth.Service) (*cron.Cron, error) {
	clean := func() {
		n, err := svc.CleanExpiredSessions(ctx)
		if err != nil {
			logger.Log.Error().Err(err).Msg("session cleanup failed")
			return
		}
		if n > 0 {
			logger.Log.Info().Int64("removed", n).Msg("expired sessions removed")
		}
	}

	c := cron.New()
	if _, err := c.AddFunc("@hourly", clean); err != nil {
		return nil, fmt.Errorf("schedule session cleanup: %w", err)
	}
	clean()
	c.Start()
	return c, nil
}

func setupRouter(h *handlers.Handlers, static fs.FS) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Mount("/", h.Routes())

	return r
}
