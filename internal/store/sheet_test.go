package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SheetMailer/internal/models"
)

const recipientsSheet = `Keyword,Name,Address,Website,Email,Status
plumber,Acme Pipes,1 Main St,acme.example,info@acme.example,
roofer,Top Roofs,,,roofs@top.example,sent
painter,No Mail,,,,
baker,Bread Co,,,hello@bread.example,completed
mason,Stone Ltd,,,stone@stone.example,NEW
`

const templatesSheet = `Title,Subject,Content
A,Hi {{name}},Body A
Broken,,Body
B,Hello {{name}},Body B
`

func newSheet(t *testing.T) *Sheet {
	t.Helper()
	dir := t.TempDir()

	rp := filepath.Join(dir, "recipients.csv")
	tp := filepath.Join(dir, "templates.csv")
	require.NoError(t, os.WriteFile(rp, []byte(recipientsSheet), 0o644))
	require.NoError(t, os.WriteFile(tp, []byte(templatesSheet), 0o644))

	return NewSheet(rp, tp, filepath.Join(dir, "out", "results.csv"))
}

func TestSheetListUnsentRecipients(t *testing.T) {
	s := newSheet(t)

	got, err := s.ListUnsentRecipients(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Acme Pipes", got[0].Name)
	assert.Equal(t, 2, got[0].RowIndex)
	assert.Equal(t, "Stone Ltd", got[1].Name)
	assert.Equal(t, 6, got[1].RowIndex)
}

func TestSheetGetTemplateVariant(t *testing.T) {
	s := newSheet(t)
	s.Intn = func(n int) int { return n - 1 }

	tmpl, err := s.GetTemplateVariant(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "B", tmpl.Title)
	assert.Equal(t, 1, tmpl.Index)
	assert.Equal(t, 2, tmpl.Total)
}

func TestSheetGetTemplateVariantNoneValid(t *testing.T) {
	s := newSheet(t)
	require.NoError(t, os.WriteFile(s.TemplatesPath, []byte("Title,Subject,Content\nx,,\n"), 0o644))

	_, err := s.GetTemplateVariant(context.Background())
	assert.ErrorIs(t, err, ErrNoTemplates)
}

func TestSheetUpdateRecipientStatus(t *testing.T) {
	s := newSheet(t)
	ctx := context.Background()

	require.NoError(t, s.UpdateRecipientStatus(ctx, 2, models.StatusSent))

	got, err := s.ListUnsentRecipients(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Stone Ltd", got[0].Name)

	assert.Error(t, s.UpdateRecipientStatus(ctx, 99, models.StatusSent))
}

func TestSheetUpdateRecipientStatusAddsColumn(t *testing.T) {
	s := newSheet(t)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(s.RecipientsPath, []byte("Name,Email\nAcme,info@acme.example\n"), 0o644))

	require.NoError(t, s.UpdateRecipientStatus(ctx, 2, models.StatusFailed))

	data, err := os.ReadFile(s.RecipientsPath)
	require.NoError(t, err)
	assert.Equal(t, "Name,Email,Status\nAcme,info@acme.example,failed\n", string(data))
}

func TestSheetAppendResultLog(t *testing.T) {
	s := newSheet(t)
	ctx := context.Background()

	require.NoError(t, s.AppendResultLog(ctx, "Acme", "info@acme.example", models.StatusSent, "2026-01-02 10:00:00"))
	require.NoError(t, s.AppendResultLog(ctx, "Stone", "stone@stone.example", models.StatusFailed, "2026-01-02 10:00:05"))

	data, err := os.ReadFile(s.ResultsPath)
	require.NoError(t, err)
	assert.Equal(t,
		"Name,Email,Status,Timestamp\n"+
			"Acme,info@acme.example,sent,2026-01-02 10:00:00\n"+
			"Stone,stone@stone.example,failed,2026-01-02 10:00:05\n",
		string(data),
	)
}

func TestSheetTestConnection(t *testing.T) {
	s := newSheet(t)
	assert.NoError(t, s.TestConnection(context.Background()))

	s.TemplatesPath = filepath.Join(t.TempDir(), "missing.csv")
	assert.Error(t, s.TestConnection(context.Background()))
}

func TestPickVariantUniformIndex(t *testing.T) {
	all := []models.Template{
		{Title: "a", Subject: "s", Content: "c"},
		{Title: "b", Subject: " ", Content: "c"},
		{Title: "c", Subject: "s", Content: "c"},
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		tmpl, err := PickVariant(all, func(int) int { return i })
		require.NoError(t, err)
		seen[tmpl.Title] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "c": true}, seen)
}
