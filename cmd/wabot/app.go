package main

import (
	"fmt"
	"log/slog"

	"github.com/lojasmm/wabot/internal/command"
	"github.com/lojasmm/wabot/internal/config"
	"github.com/lojasmm/wabot/internal/logger"
	"github.com/lojasmm/wabot/internal/plugins"
	"github.com/lojasmm/wabot/internal/store"
	"github.com/lojasmm/wabot/internal/whatsapp"
)

// app holds what every credentialed subcommand needs.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	db     *store.BoltStore
	client *whatsapp.Client
}

func newApp(component string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, err := setupLogger(cfg, component)
	if err != nil {
		return nil, err
	}

	client, err := whatsapp.NewClient(whatsapp.ClientConfig{
		GraphURL:      cfg.WAGraphURL,
		PhoneNumberID: cfg.WAPhoneNumberID,
		AccessToken:   cfg.WAAccessToken,
		Timeout:       cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("whatsapp client: %w", err)
	}

	db, err := store.NewBoltStore(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	return &app{cfg: cfg, log: log, db: db, client: client}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close store", "error", err)
	}
}

func setupLogger(cfg *config.Config, component string) (*slog.Logger, error) {
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	slog.SetDefault(log)
	return log.With("component", component), nil
}

// buildRegistry registers the built-in commands first, then the canned
// replies, so a reply can never shadow a built-in.
func buildRegistry(cfg *config.Config) (*command.Registry, error) {
	b := command.NewBuilder(cfg.CommandPrefix)
	if err := plugins.RegisterBuiltins(b); err != nil {
		return nil, err
	}

	replies, err := plugins.LoadReplies(cfg.RepliesFile)
	if err != nil {
		return nil, err
	}
	if err := plugins.RegisterReplies(b, replies); err != nil {
		return nil, err
	}
	return b.Build(), nil
}
