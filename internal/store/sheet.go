package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"SheetMailer/internal/csvparser"
	"SheetMailer/internal/models"
)

var resultColumns = []string{"Name", "Email", "Status", "Timestamp"}

// Sheet is a spreadsheet store backed by CSV files on disk.
type Sheet struct {
	RecipientsPath string
	TemplatesPath  string
	ResultsPath    string

	// Intn picks the template variant; nil means math/rand/v2.
	Intn func(int) int

	mu sync.Mutex
}

func NewSheet(recipients, templates, results string) *Sheet {
	return &Sheet{
		RecipientsPath: recipients,
		TemplatesPath:  templates,
		ResultsPath:    results,
	}
}

func (s *Sheet) ListUnsentRecipients(ctx context.Context) ([]models.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.RecipientsPath)
	if err != nil {
		return nil, fmt.Errorf("open recipients: %w", err)
	}
	defer f.Close()

	_, rows, err := csvparser.ParseRecipients(f)
	if err != nil {
		return nil, fmt.Errorf("parse recipients: %w", err)
	}
	return unsent(rows), nil
}

func (s *Sheet) GetTemplateVariant(ctx context.Context) (*models.Template, error) {
	f, err := os.Open(s.TemplatesPath)
	if err != nil {
		return nil, fmt.Errorf("open templates: %w", err)
	}
	defer f.Close()

	templates, err := csvparser.ParseTemplates(f)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return PickVariant(templates, s.Intn)
}

func (s *Sheet) AppendResultLog(
	ctx context.Context,
	name, email string,
	status models.EmailStatus,
	timestamp string,
) error {
	if s.ResultsPath == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.ResultsPath), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(s.ResultsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(resultColumns); err != nil {
			return err
		}
	}
	if err := w.Write([]string{name, email, string(status), timestamp}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// UpdateRecipientStatus rewrites the status cell of the row with the given
// 1-based sheet index. A Status column is added when the sheet has none.
func (s *Sheet) UpdateRecipientStatus(ctx context.Context, id int, status models.EmailStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readAll(s.RecipientsPath)
	if err != nil {
		return err
	}
	if id < 2 || id > len(records) {
		return fmt.Errorf("row %d out of range", id)
	}

	layout, err := csvparser.NewLayout(records[0])
	if err != nil {
		return err
	}

	col, ok := layout.Column(csvparser.ColStatus)
	if !ok {
		col = len(records[0])
		records[0] = append(records[0], "Status")
	}

	row := records[id-1]
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = string(status)
	records[id-1] = row

	return writeAll(s.RecipientsPath, records)
}

func (s *Sheet) TestConnection(ctx context.Context) error {
	var errs []error
	for _, p := range []string{s.RecipientsPath, s.TemplatesPath} {
		if _, err := os.Stat(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func readAll(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// writeAll replaces the file through a temp file so readers never see a
// partially written sheet.
func writeAll(path string, records [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sheet-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
