package models

type EmailStatus string

const (
	StatusNew       EmailStatus = "new"
	StatusSent      EmailStatus = "sent"
	StatusFailed    EmailStatus = "failed"
	StatusCompleted EmailStatus = "completed"
)

// Processed reports whether a recipient with this status must be skipped by a run.
func (s EmailStatus) Processed() bool {
	switch s {
	case StatusSent, StatusFailed, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus normalizes a raw status cell. Unknown or empty values are new.
func ParseStatus(raw string) EmailStatus {
	switch EmailStatus(normalize(raw)) {
	case StatusSent:
		return StatusSent
	case StatusFailed:
		return StatusFailed
	case StatusCompleted:
		return StatusCompleted
	}
	return StatusNew
}
