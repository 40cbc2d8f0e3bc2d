package email

import (
	"context"
	"errors"
)

var (
	ErrNotAuthenticated = errors.New("mail transport is not authenticated")
	ErrNoRecipients     = errors.New("no recipients")
)

// Result is the outcome of one delivery attempt. Ordinary delivery
// failures are reported here, not as errors.
type Result struct {
	Success   bool
	MessageID string
	Error     string
}

// Transport delivers one message to one or more addresses.
type Transport interface {
	IsAuthenticated(ctx context.Context) bool

	// Send returns an error only for misuse, e.g. ErrNotAuthenticated.
	Send(ctx context.Context, to []string, subject, html, text string) (Result, error)
}
