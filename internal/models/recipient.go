package models

import (
	"net/mail"
	"strings"
)

type Recipient struct {
	RowIndex         int         `json:"row_index"`
	Keyword          string      `json:"keyword"`
	Name             string      `json:"name"`
	Address          string      `json:"address"`
	Website          string      `json:"website"`
	PrimaryEmail     string      `json:"primary_email"`
	Status           EmailStatus `json:"status"`
	AdditionalEmails []string    `json:"additional_emails,omitempty"`
}

// Emails returns the valid addresses of the recipient, primary first,
// without duplicates.
func (r Recipient) Emails() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 1+len(r.AdditionalEmails))

	add := func(raw string) {
		addr, ok := ValidEmail(raw)
		if !ok {
			return
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}

	add(r.PrimaryEmail)
	for _, e := range r.AdditionalEmails {
		add(e)
	}
	return out
}

// HasValidEmail reports whether at least one address can be used.
func (r Recipient) HasValidEmail() bool {
	return len(r.Emails()) > 0
}

// ValidEmail trims raw and checks that it is a bare addr-spec with a domain.
func ValidEmail(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", false
	}
	at := strings.LastIndex(raw, "@")
	if at <= 0 || !strings.Contains(raw[at+1:], ".") {
		return "", false
	}
	return raw, true
}

// SplitEmails splits a cell that may hold several addresses separated by
// commas, semicolons or whitespace and keeps only the valid ones.
func SplitEmails(cell string) []string {
	fields := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if addr, ok := ValidEmail(f); ok {
			out = append(out, addr)
		}
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
