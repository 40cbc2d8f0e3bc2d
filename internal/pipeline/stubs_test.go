package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SheetMailer/internal/email"
	"SheetMailer/internal/models"
	"SheetMailer/internal/store"
)

type appended struct {
	Name, Email string
	Status      models.EmailStatus
	Timestamp   string
}

type statusUpdate struct {
	ID     int
	Status models.EmailStatus
}

type stubStore struct {
	mu sync.Mutex

	recipients  []models.Recipient
	listErr     error
	template    *models.Template
	templateErr error
	connErr     error
	appendErr   error
	updateErr   error

	// entered is closed and release awaited inside ListUnsentRecipients
	// when both are set.
	entered chan struct{}
	release chan struct{}

	appends []appended
	updates []statusUpdate
}

func (s *stubStore) ListUnsentRecipients(ctx context.Context) ([]models.Recipient, error) {
	if s.entered != nil && s.release != nil {
		close(s.entered)
		<-s.release
	}
	return s.recipients, s.listErr
}

func (s *stubStore) GetTemplateVariant(ctx context.Context) (*models.Template, error) {
	return s.template, s.templateErr
}

func (s *stubStore) AppendResultLog(ctx context.Context, name, addr string, status models.EmailStatus, ts string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends = append(s.appends, appended{name, addr, status, ts})
	return s.appendErr
}

func (s *stubStore) UpdateRecipientStatus(ctx context.Context, id int, status models.EmailStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, statusUpdate{id, status})
	return s.updateErr
}

func (s *stubStore) TestConnection(ctx context.Context) error {
	return s.connErr
}

var _ store.Store = (*stubStore)(nil)

type sendCall struct {
	At      time.Time
	To      []string
	Subject string
	HTML    string
}

type stubTransport struct {
	mu sync.Mutex

	authenticated bool
	// respond decides the outcome of the n-th call (1-based) for an address.
	respond func(to string, n int) (email.Result, error)

	calls []sendCall
	perTo map[string]int
}

func newTransport() *stubTransport {
	return &stubTransport{authenticated: true, perTo: map[string]int{}}
}

func (t *stubTransport) IsAuthenticated(ctx context.Context) bool {
	return t.authenticated
}

func (t *stubTransport) Send(ctx context.Context, to []string, subject, html, text string) (email.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls = append(t.calls, sendCall{At: time.Now(), To: to, Subject: subject, HTML: html})
	t.perTo[to[0]]++
	n := t.perTo[to[0]]

	if t.respond != nil {
		return t.respond(to[0], n)
	}
	return email.Result{Success: true, MessageID: fmt.Sprintf("<%s-%d>", to[0], n)}, nil
}

func (t *stubTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

func alwaysFail(string, int) (email.Result, error) {
	return email.Result{Error: "mailbox unavailable"}, nil
}

func failFor(addr string) func(string, int) (email.Result, error) {
	return func(to string, n int) (email.Result, error) {
		if to == addr {
			return email.Result{Error: "rejected"}, nil
		}
		return email.Result{Success: true, MessageID: "id-" + to}, nil
	}
}

var errStoreDown = errors.New("store down")

func recipient(row int, name, addr string) models.Recipient {
	return models.Recipient{RowIndex: row, Name: name, PrimaryEmail: addr, Status: models.StatusNew}
}

func validTemplate() *models.Template {
	return &models.Template{Title: "t", Subject: "Hi {{name}}", Content: "Hi {{name}}", Total: 1}
}
