// Package app wires configuration into the store, transport, pipeline and
// scheduler shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"SheetMailer/internal/config"
	"SheetMailer/internal/email"
	"SheetMailer/internal/pipeline"
	"SheetMailer/internal/scheduler"
	"SheetMailer/internal/store"
)

type App struct {
	Config    *config.Config
	Store     store.Store
	Sender    *email.Sender
	Pipeline  *pipeline.Pipeline
	Scheduler *scheduler.Scheduler

	closers []func()
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg}

	// ----------------------------
	// Store
	// ----------------------------
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("database migration failed: %w", err)
		}
		a.Store = pg
		a.closers = append(a.closers, pg.Close)
	default:
		a.Store = store.NewSheet(cfg.RecipientsFile, cfg.TemplatesFile, cfg.ResultsFile)
	}

	// ----------------------------
	// Email Sender
	// ----------------------------
	a.Sender = &email.Sender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,

		VerifyInterval: cfg.SMTPVerifyInterval,
	}
	if err := a.Sender.Verify(ctx); err != nil {
		// Not fatal: IsAuthenticated redials once SMTPVerifyInterval has passed.
		logger.Warn("smtp verification failed", zap.Error(err))
	}

	// ----------------------------
	// Pipeline + Scheduler
	// ----------------------------
	a.Pipeline = pipeline.New(a.Store, a.Sender, logger.Named("pipeline"), pipeline.Options{
		MaxAttempts:     cfg.MaxRetryAttempts,
		BaseDelay:       cfg.RetryBaseDelay,
		MinSendInterval: cfg.RateLimitDelay,
		Location:        cfg.Location(),
	})

	a.Scheduler = scheduler.New(ctx, a.Pipeline, logger, cfg.ScheduleIntervalMinutes, scheduler.Options{
		RunOnStart:      cfg.RunOnStart,
		RunOnStartDelay: cfg.RunOnStartDelay,
		Location:        cfg.Location(),
	})

	return a, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
