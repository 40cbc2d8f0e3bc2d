package models

import "time"

type SendResult struct {
	RecipientID int         `json:"recipient_id"`
	Name        string      `json:"name"`
	To          []string    `json:"to"`
	Status      EmailStatus `json:"status"`
	MessageID   string      `json:"message_id,omitempty"`
	Error       string      `json:"error,omitempty"`
	Attempts    int         `json:"attempts"`
}

type RunSummary struct {
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
	Total   int          `json:"total"`
	Details []SendResult `json:"details"`
	Message string       `json:"message,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
