package email

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Sender is the SMTP transport.
type Sender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string

	// VerifyInterval throttles re-verification while unauthenticated.
	VerifyInterval time.Duration

	authenticated atomic.Bool

	mu        sync.Mutex
	checkedAt time.Time
}

func (s *Sender) dialer() *gomail.Dialer {
	return gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
}

// Verify opens and closes an SMTP session, authenticating when
// credentials are configured. The outcome is cached for IsAuthenticated.
func (s *Sender) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.checkedAt = time.Now()
	s.mu.Unlock()

	closer, err := s.dialer().Dial()
	if err != nil {
		s.authenticated.Store(false)
		return fmt.Errorf("smtp dial error: %w", err)
	}
	closer.Close()

	s.authenticated.Store(true)
	return nil
}

// IsAuthenticated reports the cached verification result. While it is
// false, the server is dialed again at most once per VerifyInterval.
func (s *Sender) IsAuthenticated(ctx context.Context) bool {
	if s.authenticated.Load() {
		return true
	}

	s.mu.Lock()
	due := time.Since(s.checkedAt) >= s.VerifyInterval
	s.mu.Unlock()
	if !due {
		return false
	}

	return s.Verify(ctx) == nil
}

// Send builds the message and delivers it in a single SMTP session.
func (s *Sender) Send(
	ctx context.Context,
	to []string,
	subject, html, text string,
) (Result, error) {

	if !s.IsAuthenticated(ctx) {
		return Result{}, ErrNotAuthenticated
	}
	if len(to) == 0 {
		return Result{}, ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return Result{Error: err.Error()}, nil
	}

	m, id := s.message(to, subject, html, text)

	if err := s.dialer().DialAndSend(m); err != nil {
		return Result{Error: fmt.Sprintf("smtp send error: %v", err)}, nil
	}

	return Result{Success: true, MessageID: id}, nil
}

func (s *Sender) message(to []string, subject, html, text string) (*gomail.Message, string) {
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(s.From))

	m := gomail.NewMessage()
	if s.FromName != "" {
		m.SetAddressHeader("From", s.From, s.FromName)
	} else {
		m.SetHeader("From", s.From)
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", id)

	if text != "" {
		m.SetBody("text/plain", text)
		m.AddAlternative("text/html", html)
	} else {
		m.SetBody("text/html", html)
	}

	return m, id
}

func domainOf(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return "localhost"
	}
	return addr[at+1:]
}
