package pipeline

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"SheetMailer/internal/metrics"
	"SheetMailer/internal/models"
	"SheetMailer/internal/personalize"
)

// backOff yields BaseDelay*2, BaseDelay*4, ... and stops after
// MaxAttempts-1 retries.
func (p *Pipeline) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * p.opts.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0

	return backoff.WithMaxRetries(b, uint64(p.opts.MaxAttempts-1))
}

// sendWithRetry delivers msg, retrying failed attempts in place. It never
// returns an error: the outcome is the SendResult.
func (p *Pipeline) sendWithRetry(
	ctx context.Context,
	r models.Recipient,
	msg personalize.Message,
) models.SendResult {

	res := models.SendResult{
		RecipientID: r.RowIndex,
		Name:        r.Name,
		To:          msg.To,
	}

	operation := func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			p.log.Warn("rate limiter wait failed", zap.Error(err))
		}

		res.Attempts++
		metrics.SendAttempts.Inc()

		out, err := p.transport.Send(ctx, msg.To, msg.Subject, msg.HTML, msg.Text)
		if err != nil {
			return err
		}
		if !out.Success {
			if out.Error == "" {
				return errors.New("transport reported failure")
			}
			return errors.New(out.Error)
		}

		res.MessageID = out.MessageID
		return nil
	}

	notify := func(err error, wait time.Duration) {
		p.log.Warn("send attempt failed, retrying",
			zap.Int("row", r.RowIndex),
			zap.Strings("to", msg.To),
			zap.Int("attempt", res.Attempts),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, p.backOff(), notify); err != nil {
		res.Status = models.StatusFailed
		res.Error = err.Error()

		p.log.Error("email send failed",
			zap.Int("row", r.RowIndex),
			zap.Strings("to", msg.To),
			zap.Int("attempts", res.Attempts),
			zap.Error(err),
		)
		return res
	}

	res.Status = models.StatusSent
	p.log.Info("email sent successfully",
		zap.Int("row", r.RowIndex),
		zap.Strings("to", msg.To),
		zap.Int("attempts", res.Attempts),
		zap.String("message_id", res.MessageID),
	)
	return res
}
