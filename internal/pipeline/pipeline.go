// Package pipeline runs one email campaign pass: it fetches unsent
// recipients, personalizes the chosen template, delivers each message with
// retries and a minimum gap between recipients, and records the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"SheetMailer/internal/email"
	"SheetMailer/internal/metrics"
	"SheetMailer/internal/models"
	"SheetMailer/internal/personalize"
	"SheetMailer/internal/store"
)

const TimestampLayout = "2006-01-02 15:04:05"

type Options struct {
	// MaxAttempts per recipient, first attempt included.
	MaxAttempts int

	// BaseDelay scales the backoff: the wait after attempt n is BaseDelay*2^n.
	BaseDelay time.Duration

	// MinSendInterval is the minimum gap between two transport sends,
	// retries included.
	MinSendInterval time.Duration

	// Location of the timestamps written to the result log.
	Location *time.Location

	Now func() time.Time
}

func (o *Options) defaults() {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 3
	}
	if o.BaseDelay < 0 {
		o.BaseDelay = 0
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type Pipeline struct {
	store     store.Store
	transport email.Transport
	log       *zap.Logger
	opts      Options

	limiter    *rate.Limiter
	processing atomic.Bool
}

func New(s store.Store, t email.Transport, logger *zap.Logger, opts Options) *Pipeline {
	opts.defaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if opts.MinSendInterval > 0 {
		limit = rate.Every(opts.MinSendInterval)
	}

	return &Pipeline{
		store:     s,
		transport: t,
		log:       logger,
		opts:      opts,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Processing reports whether a run is in progress.
func (p *Pipeline) Processing() bool {
	return p.processing.Load()
}

// Run processes every unsent recipient once. Only one run may be active at
// a time; a concurrent call fails with ErrConcurrentRun. Setup failures
// abort the run, while delivery and persistence failures are recorded per
// recipient.
func (p *Pipeline) Run(ctx context.Context) (*models.RunSummary, error) {
	if !p.processing.CompareAndSwap(false, true) {
		metrics.PipelineRuns.WithLabelValues("concurrent").Inc()
		return nil, ErrConcurrentRun
	}
	defer p.processing.Store(false)

	summary, err := p.run(ctx)
	switch {
	case err == nil:
		metrics.PipelineRuns.WithLabelValues("completed").Inc()
		metrics.PipelineRunDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	case errors.As(err, new(*ConfigurationError)):
		metrics.PipelineRuns.WithLabelValues("config_error").Inc()
	default:
		metrics.PipelineRuns.WithLabelValues("error").Inc()
	}
	return summary, err
}

func (p *Pipeline) run(ctx context.Context) (*models.RunSummary, error) {
	summary := &models.RunSummary{
		StartedAt: p.opts.Now(),
		Details:   []models.SendResult{},
	}

	// ----------------------------
	// Recipients
	// ----------------------------
	recipients, err := p.store.ListUnsentRecipients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unsent recipients: %w", err)
	}

	batch := make([]models.Recipient, 0, len(recipients))
	for _, r := range recipients {
		if !r.HasValidEmail() {
			p.log.Warn("skipping recipient without a valid email",
				zap.Int("row", r.RowIndex),
				zap.String("name", r.Name),
			)
			continue
		}
		batch = append(batch, r)
	}

	if len(batch) == 0 {
		p.log.Info("no unsent recipients")
		summary.Message = "no unsent recipients"
		summary.FinishedAt = p.opts.Now()
		return summary, nil
	}

	// ----------------------------
	// Template
	// ----------------------------
	tmpl, err := p.store.GetTemplateVariant(ctx)
	if errors.Is(err, store.ErrNoTemplates) {
		return nil, configErr("no valid email template: subject and content are required")
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if tmpl == nil || !tmpl.Valid() {
		return nil, configErr("no valid email template: subject and content are required")
	}

	// ----------------------------
	// Transport
	// ----------------------------
	if !p.transport.IsAuthenticated(ctx) {
		return nil, configErr("mail transport is not authenticated")
	}

	p.log.Info("email run started",
		zap.Int("recipients", len(batch)),
		zap.String("template", tmpl.Title),
		zap.Int("variant", tmpl.Index+1),
		zap.Int("variants", tmpl.Total),
	)

	// Sends are not interrupted once the batch has started.
	sendCtx := context.WithoutCancel(ctx)

	for _, r := range batch {
		msg := personalize.Render(*tmpl, r)
		res := p.sendWithRetry(sendCtx, r, msg)

		p.persist(sendCtx, r, res)

		switch res.Status {
		case models.StatusSent:
			summary.Sent++
			metrics.EmailsSent.Inc()
		default:
			summary.Failed++
			metrics.EmailFailures.Inc()
		}
		summary.Details = append(summary.Details, res)
	}

	summary.Total = len(summary.Details)
	summary.FinishedAt = p.opts.Now()

	p.log.Info("email run finished",
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
		zap.Int("total", summary.Total),
		zap.Duration("took", summary.FinishedAt.Sub(summary.StartedAt)),
	)

	return summary, nil
}

// persist writes the result log entry and the status cell. Both are best
// effort and independent of each other.
func (p *Pipeline) persist(ctx context.Context, r models.Recipient, res models.SendResult) {
	ts := p.opts.Now().In(p.opts.Location).Format(TimestampLayout)
	to := strings.Join(res.To, ", ")

	if err := p.store.AppendResultLog(ctx, r.Name, to, res.Status, ts); err != nil {
		metrics.PersistenceFailures.WithLabelValues("append_result").Inc()
		p.log.Warn("failed to append result log",
			zap.Int("row", r.RowIndex),
			zap.Error(err),
		)
	}

	if err := p.store.UpdateRecipientStatus(ctx, r.RowIndex, res.Status); err != nil {
		metrics.PersistenceFailures.WithLabelValues("update_status").Inc()
		p.log.Warn("failed to update recipient status",
			zap.Int("row", r.RowIndex),
			zap.String("status", string(res.Status)),
			zap.Error(err),
		)
	}
}
