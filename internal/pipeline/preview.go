package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"SheetMailer/internal/models"
	"SheetMailer/internal/personalize"
	"SheetMailer/internal/store"
)

// SampleRecipient stands in for a real row when the sheet has none.
var SampleRecipient = models.Recipient{
	Keyword:      "sample keyword",
	Name:         "Sample Company",
	Address:      "123 Example Street",
	Website:      "https://example.com",
	PrimaryEmail: "contact@example.com",
	Status:       models.StatusNew,
}

type Preview struct {
	Subject   string           `json:"subject"`
	Content   string           `json:"content"`
	Recipient models.Recipient `json:"recipient"`
	Template  models.Template  `json:"template"`
	Sample    bool             `json:"sample"`
}

// Preview renders a template variant against the first unsent recipient.
// It falls back to SampleRecipient and store.DefaultTemplate and never
// sends or writes anything.
func (p *Pipeline) Preview(ctx context.Context) *Preview {
	out := &Preview{Recipient: SampleRecipient, Sample: true}

	recipients, err := p.store.ListUnsentRecipients(ctx)
	if err != nil {
		p.log.Warn("preview: cannot list recipients", zap.Error(err))
	}
	for _, r := range recipients {
		if r.HasValidEmail() {
			out.Recipient = r
			out.Sample = false
			break
		}
	}

	tmpl, err := p.store.GetTemplateVariant(ctx)
	switch {
	case err != nil:
		p.log.Warn("preview: using default template", zap.Error(err))
		out.Template = store.DefaultTemplate()
	case tmpl == nil || !tmpl.Valid():
		out.Template = store.DefaultTemplate()
	default:
		out.Template = *tmpl
	}

	msg := personalize.Render(out.Template, out.Recipient)
	out.Subject = msg.Subject
	out.Content = msg.HTML
	return out
}

// ValidateConfiguration checks everything a run needs. An empty result
// means the pipeline is ready.
func (p *Pipeline) ValidateConfiguration(ctx context.Context) []string {
	var issues []string

	storeOK := true
	if err := p.store.TestConnection(ctx); err != nil {
		storeOK = false
		issues = append(issues, "recipient store is not reachable: "+err.Error())
	}

	if !p.transport.IsAuthenticated(ctx) {
		issues = append(issues, "mail transport is not authenticated")
	}

	if !storeOK {
		return issues
	}

	recipients, err := p.store.ListUnsentRecipients(ctx)
	switch {
	case err != nil:
		issues = append(issues, "cannot read recipients: "+err.Error())
	case len(recipients) == 0:
		issues = append(issues, "no unsent recipients found")
	}

	tmpl, err := p.store.GetTemplateVariant(ctx)
	switch {
	case errors.Is(err, store.ErrNoTemplates), err == nil && (tmpl == nil || !tmpl.Valid()):
		issues = append(issues, "no valid email template: subject and content are required")
	case err != nil:
		issues = append(issues, "cannot read templates: "+err.Error())
	}

	return issues
}

type ProcessingStatus struct {
	Processing    bool `json:"processing"`
	Authenticated bool `json:"authenticated"`
}

func (p *Pipeline) Status(ctx context.Context) ProcessingStatus {
	return ProcessingStatus{
		Processing:    p.Processing(),
		Authenticated: p.transport.IsAuthenticated(ctx),
	}
}
