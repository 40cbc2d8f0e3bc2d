package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"SheetMailer/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS recipients (
	id                SERIAL PRIMARY KEY,
	keyword           TEXT NOT NULL DEFAULT '',
	name              TEXT NOT NULL DEFAULT '',
	address           TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	email             TEXT NOT NULL DEFAULT '',
	additional_emails TEXT[] NOT NULL DEFAULT '{}',
	status            TEXT NOT NULL DEFAULT 'new',
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS templates (
	id      SERIAL PRIMARY KEY,
	title   TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS email_results (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	status     TEXT NOT NULL,
	sent_at    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Postgres keeps the sheet in three tables. Recipient ids double as row
// indexes.
type Postgres struct {
	Pool *pgxpool.Pool

	Intn func(int) int
}

func NewPostgres(ctx context.Context, conn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, conn)
	if err != nil {
		return nil, err
	}

	return &Postgres{Pool: pool}, nil
}

func (s *Postgres) Close() {
	s.Pool.Close()
}

func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

// Rows already processed are filtered in SQL; unsent re-checks the batch
// for valid addresses.
const unsentRecipientsQuery = `SELECT id, keyword, name, address, website, email, additional_emails, status
FROM recipients
WHERE lower(status) NOT IN ('sent','failed','completed')
ORDER BY id`

const templatesQuery = `SELECT title, subject, content FROM templates ORDER BY id`

func scanRecipient(row pgx.Row) (models.Recipient, error) {
	var (
		r      models.Recipient
		status string
	)
	err := row.Scan(
		&r.RowIndex,
		&r.Keyword,
		&r.Name,
		&r.Address,
		&r.Website,
		&r.PrimaryEmail,
		&r.AdditionalEmails,
		&status,
	)
	r.Status = models.ParseStatus(status)
	return r, err
}

func scanTemplate(row pgx.Row) (models.Template, error) {
	var t models.Template
	err := row.Scan(&t.Title, &t.Subject, &t.Content)
	return t, err
}

func (s *Postgres) ListUnsentRecipients(ctx context.Context) ([]models.Recipient, error) {
	rows, err := s.Pool.Query(ctx, unsentRecipientsQuery)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}

	all, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Recipient, error) {
		return scanRecipient(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan recipients: %w", err)
	}

	return unsent(all), nil
}

func (s *Postgres) GetTemplateVariant(ctx context.Context) (*models.Template, error) {
	rows, err := s.Pool.Query(ctx, templatesQuery)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}

	templates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Template, error) {
		return scanTemplate(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan templates: %w", err)
	}

	return PickVariant(templates, s.Intn)
}

func (s *Postgres) AppendResultLog(
	ctx context.Context,
	name, email string,
	status models.EmailStatus,
	timestamp string,
) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO email_results (name, email, status, sent_at)
		 VALUES ($1,$2,$3,$4)`,
		name,
		email,
		status,
		timestamp,
	)

	return err
}

func (s *Postgres) UpdateRecipientStatus(
	ctx context.Context,
	id int,
	status models.EmailStatus,
) error {

	_, err := s.Pool.Exec(ctx,
		`UPDATE recipients
		 SET status=$1,
		     updated_at=NOW()
		 WHERE id=$2`,
		status,
		id,
	)

	return err
}

func (s *Postgres) TestConnection(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}
