package csvparser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"SheetMailer/internal/models"
)

// ParseTemplates reads template variants from a sheet with title, subject
// and content columns. Variants with an empty subject or content are
// returned too; callers decide what to do with invalid ones.
func ParseTemplates(r io.Reader) ([]models.Template, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 1 {
		return nil, errors.New("csv must contain a header row")
	}

	headers := records[0]

	col := map[string]int{"title": -1, "subject": -1, "content": -1}
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := col[key]; ok && col[key] == -1 {
			col[key] = i
		}
	}
	if col["subject"] == -1 || col["content"] == -1 {
		return nil, errors.New("csv must contain Subject and Content columns")
	}

	get := func(row []string, name string) string {
		i := col[name]
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var templates []models.Template

	for _, row := range records[1:] {
		if blank(row) {
			continue
		}
		templates = append(templates, models.Template{
			Title:   strings.TrimSpace(get(row, "title")),
			Subject: strings.TrimSpace(get(row, "subject")),
			Content: get(row, "content"),
		})
	}

	return templates, nil
}
