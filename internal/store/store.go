// Package store provides access to the recipient sheet, the template
// variants and the append-only result log.
package store

import (
	"context"
	"errors"
	"math/rand"

	"SheetMailer/internal/models"
)

var ErrNoTemplates = errors.New("no valid templates found")

// Store is the recipient/template backend used by the pipeline.
type Store interface {
	// ListUnsentRecipients returns recipients that were not processed yet
	// and have at least one valid address, in sheet order.
	ListUnsentRecipients(ctx context.Context) ([]models.Recipient, error)

	// GetTemplateVariant returns one valid template chosen at random.
	// It returns ErrNoTemplates when none is usable.
	GetTemplateVariant(ctx context.Context) (*models.Template, error)

	AppendResultLog(ctx context.Context, name, email string, status models.EmailStatus, timestamp string) error
	UpdateRecipientStatus(ctx context.Context, id int, status models.EmailStatus) error
	TestConnection(ctx context.Context) error
}

// DefaultTemplate is used where a lenient fallback is acceptable, such as
// previews. Runs never send it.
func DefaultTemplate() models.Template {
	return models.Template{
		Title:   "Default",
		Subject: "Hello {{name}}",
		Content: "Hi {{name}},\n\nWe came across {{website}} and wanted to get in touch.\n\nBest regards",
		Index:   0,
		Total:   0,
	}
}

// PickVariant filters invalid templates and picks one uniformly at random.
func PickVariant(all []models.Template, intn func(int) int) (*models.Template, error) {
	valid := make([]models.Template, 0, len(all))
	for _, t := range all {
		if t.Valid() {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoTemplates
	}
	if intn == nil {
		intn = rand.Intn
	}

	i := intn(len(valid))
	chosen := valid[i]
	chosen.Index = i
	chosen.Total = len(valid)
	return &chosen, nil
}

func unsent(all []models.Recipient) []models.Recipient {
	out := make([]models.Recipient, 0, len(all))
	for _, r := range all {
		if r.Status.Processed() || !r.HasValidEmail() {
			continue
		}
		out = append(out, r)
	}
	return out
}
