package models

import "strings"

type Template struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Content string `json:"content"`

	// Index is the position of the chosen variant among Total valid ones.
	Index int `json:"index"`
	Total int `json:"total"`
}

func (t Template) Valid() bool {
	return strings.TrimSpace(t.Subject) != "" && strings.TrimSpace(t.Content) != ""
}
