package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"SheetMailer/internal/models"
	"SheetMailer/internal/store"
)

func TestPreviewUsesFirstRecipient(t *testing.T) {
	st := &stubStore{
		recipients: []models.Recipient{
			recipient(2, "Broken", "nope"),
			recipient(3, "Ana", "ana@example.com"),
		},
		template: validTemplate(),
	}
	tr := newTransport()
	p := New(st, tr, zaptest.NewLogger(t), fastOptions())

	pv := p.Preview(context.Background())

	assert.False(t, pv.Sample)
	assert.Equal(t, "Ana", pv.Recipient.Name)
	assert.Equal(t, "Hi Ana", pv.Subject)
	assert.Equal(t, "Hi Ana", pv.Content)
	assert.Zero(t, tr.callCount())
	assert.Empty(t, st.appends)
	assert.Empty(t, st.updates)
}

func TestPreviewFallbacks(t *testing.T) {
	st := &stubStore{listErr: errStoreDown, templateErr: store.ErrNoTemplates}
	p := New(st, newTransport(), zaptest.NewLogger(t), fastOptions())

	pv := p.Preview(context.Background())

	assert.True(t, pv.Sample)
	assert.Equal(t, SampleRecipient.Name, pv.Recipient.Name)
	assert.Equal(t, store.DefaultTemplate().Title, pv.Template.Title)
	assert.Equal(t, "Hello Sample Company", pv.Subject)
	assert.Contains(t, pv.Content, "<br>")
}

func TestValidateConfiguration(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		st := &stubStore{
			recipients: []models.Recipient{recipient(2, "Ana", "ana@example.com")},
			template:   validTemplate(),
		}
		p := New(st, newTransport(), zaptest.NewLogger(t), fastOptions())
		assert.Empty(t, p.ValidateConfiguration(context.Background()))
	})

	t.Run("everything missing", func(t *testing.T) {
		st := &stubStore{templateErr: store.ErrNoTemplates}
		tr := newTransport()
		tr.authenticated = false
		p := New(st, tr, zaptest.NewLogger(t), fastOptions())

		issues := p.ValidateConfiguration(context.Background())
		assert.Len(t, issues, 3)
		assert.Contains(t, issues, "mail transport is not authenticated")
		assert.Contains(t, issues, "no unsent recipients found")
	})

	t.Run("store unreachable", func(t *testing.T) {
		st := &stubStore{connErr: errStoreDown}
		p := New(st, newTransport(), zaptest.NewLogger(t), fastOptions())

		issues := p.ValidateConfiguration(context.Background())
		assert.Equal(t, []string{"recipient store is not reachable: store down"}, issues)
	})
}

func TestStatus(t *testing.T) {
	tr := newTransport()
	p := New(&stubStore{}, tr, zaptest.NewLogger(t), fastOptions())

	assert.Equal(t, ProcessingStatus{Processing: false, Authenticated: true}, p.Status(context.Background()))

	tr.authenticated = false
	assert.False(t, p.Status(context.Background()).Authenticated)
}
