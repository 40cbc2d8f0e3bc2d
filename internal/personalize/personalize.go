// Package personalize renders a template variant for one recipient.
//
// Placeholders use the {{identifier}} form. Recognized identifiers are
// replaced by the matching recipient field (empty when the field is
// missing); anything else is left untouched.
package personalize

import (
	"regexp"
	"strings"

	"SheetMailer/internal/models"
)

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
	markupRe      = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9]*(\s[^<>]*)?/?>`)

	// Emphasis needs non-space right inside the asterisks.
	boldRe   = regexp.MustCompile(`\*\*([^\s*]|[^\s*][^*\n]*?[^\s*])\*\*`)
	italicRe = regexp.MustCompile(`\*([^\s*]|[^\s*][^*\n]*?[^\s*])\*`)
)

var placeholders = []string{"name", "keyword", "address", "website", "email", "company"}

// Message is the per-recipient rendering of a template.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Placeholders lists the recognized identifiers.
func Placeholders() []string {
	return append([]string(nil), placeholders...)
}

func values(r models.Recipient) map[string]string {
	return map[string]string{
		"name":    r.Name,
		"keyword": r.Keyword,
		"address": r.Address,
		"website": r.Website,
		"email":   r.PrimaryEmail,
		"company": r.Name,
	}
}

// Substitute replaces recognized placeholders in s.
func Substitute(s string, r models.Recipient) string {
	vals := values(r)
	return placeholderRe.ReplaceAllStringFunc(s, func(token string) string {
		key := strings.ToLower(placeholderRe.FindStringSubmatch(token)[1])
		v, ok := vals[key]
		if !ok {
			return token
		}
		return v
	})
}

// Render personalizes tmpl for r.
func Render(tmpl models.Template, r models.Recipient) Message {
	subject := Substitute(tmpl.Subject, r)
	content := Substitute(tmpl.Content, r)

	msg := Message{
		To:      r.Emails(),
		Subject: subject,
	}

	if HasMarkup(content) {
		msg.HTML = content
		return msg
	}

	msg.HTML = FormatBody(content)
	msg.Text = content
	return msg
}

// HasMarkup reports whether s already contains HTML tags.
func HasMarkup(s string) bool {
	return markupRe.MatchString(s)
}

// FormatBody turns plain text into minimal HTML: line breaks become <br>,
// **x** becomes bold and *x* italic.
func FormatBody(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	return strings.ReplaceAll(s, "\n", "<br>")
}
