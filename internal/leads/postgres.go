package leads

import (
	"context"
	"database/sql"
	"fmt"

	"export-assistant/internal/models"
)

const createLeadsTable = `CREATE TABLE IF NOT EXISTS leads (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL,
	company     TEXT,
	country     TEXT,
	message     TEXT NOT NULL,
	status      TEXT NOT NULL,
	source      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
)`

// PostgresRepository mirrors the lead list into a reporting table.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLeadsTable); err != nil {
		return fmt.Errorf("create leads table: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Record(ctx context.Context, inq models.Inquiry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO leads (id, kind, name, email, company, country, message, status, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO NOTHING`,
		inq.ID, string(inq.Kind), inq.Name, inq.Email, inq.Company, inq.Country,
		inq.Message, string(inq.Status), inq.Source, inq.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead %s: %w", inq.ID, err)
	}
	return nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.InquiryStatus) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE leads SET status = $1 WHERE id = $2`, string(status), id); err != nil {
		return fmt.Errorf("update lead %s: %w", id, err)
	}
	return nil
}

// List returns mirrored leads newest first. Attachments are not mirrored.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Inquiry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, name, email, COALESCE(company, ''), COALESCE(country, ''), message, status, source, created_at
		 FROM leads ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var list []models.Inquiry
	for rows.Next() {
		var (
			inq          models.Inquiry
			kind, status string
		)
		if err := rows.Scan(&inq.ID, &kind, &inq.Name, &inq.Email, &inq.Company, &inq.Country,
			&inq.Message, &status, &inq.Source, &inq.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		inq.Kind = models.InquiryKind(kind)
		inq.Status = models.InquiryStatus(status)
		list = append(list, inq)
	}
	return list, rows.Err()
}

// CountBySource reports lead volume per source for the CLI listing.
func (r *PostgresRepository) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM leads GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			source string
			n      int
		)
		if err := rows.Scan(&source, &n); err != nil {
			return nil, fmt.Errorf("scan lead count: %w", err)
		}
		counts[source] = n
	}
	return counts, rows.Err()
}
