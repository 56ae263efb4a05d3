package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/lojasmm/wabot/internal/bot"
	"github.com/lojasmm/wabot/internal/command"
	"github.com/lojasmm/wabot/internal/media"
	"github.com/lojasmm/wabot/internal/outbound"
	"github.com/lojasmm/wabot/internal/session"
	"github.com/lojasmm/wabot/internal/sweeper"
	"github.com/lojasmm/wabot/internal/whatsapp"
)

const (
	lockCleanupEvery = 30 * time.Minute
	lockMaxIdle      = time.Hour
	shutdownTimeout  = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long:  "Serves the WhatsApp webhook, dispatches commands and sweeps orphaned media on a schedule.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	a, err := newApp("cmd.serve")
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, log := a.cfg, a.log

	registry, err := buildRegistry(cfg)
	if err != nil {
		return fmt.Errorf("commands: %w", err)
	}

	sw, err := sweeper.New(a.db, a.client, sweeper.Config{
		Cron:      cfg.MediaSweepCron,
		OrphanAge: cfg.MediaOrphanAge,
	}, log)
	if err != nil {
		return fmt.Errorf("sweeper: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender := outbound.NewSender(a.client, media.NewResolver(cfg.HTTPTimeout), a.db, log)
	locks := session.NewManager()
	dispatcher := command.NewDispatcher(registry, sender, locks, cfg.OwnerNumbers, log)
	botHandler := bot.NewHandler(dispatcher, a.db, nil, log)
	webhook := whatsapp.NewWebhookHandler(cfg.WAVerifyToken, cfg.WAAppSecret, botHandler.HandlePayload, log)

	// Periodic cleanup of stale per-user locks to prevent memory leaks
	go func() {
		ticker := time.NewTicker(lockCleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := locks.Cleanup(lockMaxIdle); n > 0 {
					log.Debug("dropped idle user locks", "count", n)
				}
			}
		}
	}()
	go sw.Run(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(webhook),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "commands", len(registry.Commands()), "prefix", registry.Prefix())
		log.Info("webhook verify token", "token", cfg.WAVerifyToken)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	dispatcher.Wait()
	log.Info("stopped")
	return nil
}

func newRouter(webhook *whatsapp.WebhookHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/webhook", webhook.HandleVerify)
	r.Post("/webhook", webhook.HandleIncoming)
	return r
}
