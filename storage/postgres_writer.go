package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"property-valuation/models"
	"property-valuation/utils"
)

// PostgresWriter persists leads to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations and returns a ready-to-use writer.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

// amountColumns hold exact decimals. They are unconstrained NUMERIC so no
// total is ever rejected for its magnitude.
var amountColumns = []string{"base_rate", "adjustment_total", "rate_per_unit", "total", "low", "high"}

const leadsSchema = `
	CREATE TABLE IF NOT EXISTS leads (
		id               UUID             PRIMARY KEY,
		created_at       TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		name             TEXT             NOT NULL DEFAULT '',
		phone            TEXT             NOT NULL DEFAULT '',
		area             TEXT             NOT NULL,
		property_type    TEXT             NOT NULL DEFAULT '',
		size             DOUBLE PRECISION NOT NULL,
		furnishing       TEXT             NOT NULL DEFAULT '',
		overlooking      TEXT             NOT NULL DEFAULT '',
		amenities        JSONB            NOT NULL DEFAULT '[]',
		age              TEXT             NOT NULL DEFAULT '',
		mode             VARCHAR(20)      NOT NULL,
		base_rate        NUMERIC          NOT NULL,
		adjustment_total NUMERIC          NOT NULL DEFAULT 0,
		adjustments      JSONB            NOT NULL DEFAULT '[]',
		rate_per_unit    NUMERIC          NOT NULL,
		total            NUMERIC          NOT NULL,
		low              NUMERIC          NOT NULL,
		high             NUMERIC          NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
	CREATE INDEX IF NOT EXISTS idx_leads_area       ON leads(area);
	CREATE INDEX IF NOT EXISTS idx_leads_total      ON leads(total);
`

// widenAmountsSQL lifts the precision limits of tables created with bounded
// NUMERIC(p,s) amount columns. It is a no-op on current tables.
func widenAmountsSQL() string {
	alters := make([]string, 0, len(amountColumns))
	for _, col := range amountColumns {
		alters = append(alters, "ALTER COLUMN "+col+" TYPE NUMERIC")
	}
	return "ALTER TABLE leads " + strings.Join(alters, ", ") + ";"
}

func (pw *PostgresWriter) migrate() error {
	if _, err := pw.db.Exec(leadsSchema); err != nil {
		return err
	}
	_, err := pw.db.Exec(widenAmountsSQL())
	return err
}

// Write batch-inserts leads. Re-sent leads (same id) are ignored.
func (pw *PostgresWriter) Write(leads []*models.Lead) error {
	const batchSize = 50
	for i := 0; i < len(leads); i += batchSize {
		end := i + batchSize
		if end > len(leads) {
			end = len(leads)
		}
		if err := pw.insertBatch(leads[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Lead) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*leadColumnCount)

	for idx, l := range batch {
		values, err := leadValues(l)
		if err != nil {
			return fmt.Errorf("postgres: lead %s: %w", l.ID, err)
		}
		placeholders := make([]string, leadColumnCount)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", idx*leadColumnCount+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs, values...)
	}

	query := fmt.Sprintf(`
		INSERT INTO leads (%s)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, leadColumns, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert leads: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored leads, oldest first.
func (pw *PostgresWriter) FetchAll() ([]*models.Lead, error) {
	rows, err := pw.db.Query(`SELECT ` + leadColumns + ` FROM leads ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}
