package csvparser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"SheetMailer/internal/models"
)

// Recipient sheet columns, matched case-insensitively against the header row.
const (
	ColKeyword = "keyword"
	ColName    = "name"
	ColAddress = "address"
	ColWebsite = "website"
	ColEmail   = "email"
	ColStatus  = "status"
)

// RecipientColumns is the header written when a sheet is created from scratch.
var RecipientColumns = []string{ColKeyword, ColName, ColAddress, ColWebsite, ColEmail, ColStatus, "additional emails"}

// Layout maps header names to column positions of a recipient sheet.
type Layout struct {
	Header     []string
	index      map[string]int
	additional []int
}

func NewLayout(headers []string) (*Layout, error) {
	if len(headers) == 0 {
		return nil, errors.New("csv header row is empty")
	}

	l := &Layout{
		Header: headers,
		index:  make(map[string]int),
	}
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if _, dup := l.index[key]; dup {
			continue
		}
		l.index[key] = i
	}

	emailIdx, ok := l.index[ColEmail]
	if !ok {
		return nil, errors.New("csv must contain an Email column")
	}

	// Every other column mentioning "email" holds extra addresses.
	for i, h := range headers {
		if i == emailIdx {
			continue
		}
		if strings.Contains(strings.ToLower(h), "email") {
			l.additional = append(l.additional, i)
		}
	}
	return l, nil
}

// Column returns the position of a named column.
func (l *Layout) Column(name string) (int, bool) {
	i, ok := l.index[name]
	return i, ok
}

func (l *Layout) cell(record []string, name string) string {
	i, ok := l.index[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// Recipient converts one record. rowIndex is the 1-based sheet row
// (the header is row 1).
func (l *Layout) Recipient(record []string, rowIndex int) models.Recipient {
	r := models.Recipient{
		RowIndex:     rowIndex,
		Keyword:      l.cell(record, ColKeyword),
		Name:         l.cell(record, ColName),
		Address:      l.cell(record, ColAddress),
		Website:      l.cell(record, ColWebsite),
		PrimaryEmail: l.cell(record, ColEmail),
		Status:       models.ParseStatus(l.cell(record, ColStatus)),
	}
	for _, i := range l.additional {
		if i < len(record) {
			r.AdditionalEmails = append(r.AdditionalEmails, models.SplitEmails(record[i])...)
		}
	}
	return r
}

// ParseRecipients parses a recipient sheet from an io.Reader. Rows with a
// different column count are padded; blank rows are skipped.
func ParseRecipients(r io.Reader) (*Layout, []models.Recipient, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, err
	}

	layout, err := NewLayout(headers)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]models.Recipient, 0)
	rowIndex := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rowIndex++

		if blank(record) {
			continue
		}
		rows = append(rows, layout.Recipient(record, rowIndex))
	}

	return layout, rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
