package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"property-valuation/models"
)

// SQLiteWriter persists leads to a local SQLite file, for single-host
// deployments without a database server.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens the database at path and ensures the schema exists.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("sqlite: create output dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}

	sw := &SQLiteWriter{db: db}
	if err := sw.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	return sw, nil
}

func (sw *SQLiteWriter) ensureSchema() error {
	const createTable = `
CREATE TABLE IF NOT EXISTS leads (
  id TEXT PRIMARY KEY,
  created_at TIMESTAMP NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  area TEXT NOT NULL,
  property_type TEXT NOT NULL DEFAULT '',
  size REAL NOT NULL,
  furnishing TEXT NOT NULL DEFAULT '',
  overlooking TEXT NOT NULL DEFAULT '',
  amenities TEXT NOT NULL DEFAULT '[]',
  age TEXT NOT NULL DEFAULT '',
  mode TEXT NOT NULL,
  base_rate TEXT NOT NULL,
  adjustment_total TEXT NOT NULL DEFAULT '0',
  adjustments TEXT NOT NULL DEFAULT '[]',
  rate_per_unit TEXT NOT NULL,
  total TEXT NOT NULL,
  low TEXT NOT NULL,
  high TEXT NOT NULL
);
`
	if _, err := sw.db.Exec(createTable); err != nil {
		return err
	}
	if _, err := sw.db.Exec(`CREATE INDEX IF NOT EXISTS idx_leads_area ON leads(area);`); err != nil {
		return err
	}
	return nil
}

// Write inserts leads in one transaction. Re-sent leads (same id) are ignored.
func (sw *SQLiteWriter) Write(leads []*models.Lead) error {
	tx, err := sw.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", leadColumnCount), ", ")
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO leads (` + leadColumns + `) VALUES (` + placeholders + `)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range leads {
		values, err := leadValues(l)
		if err != nil {
			return fmt.Errorf("sqlite: lead %s: %w", l.ID, err)
		}
		if _, err := stmt.Exec(values...); err != nil {
			return fmt.Errorf("sqlite: insert lead %s: %w", l.ID, err)
		}
	}
	return tx.Commit()
}

// FetchAll retrieves all stored leads, oldest first.
func (sw *SQLiteWriter) FetchAll() ([]*models.Lead, error) {
	rows, err := sw.db.Query(`SELECT ` + leadColumns + ` FROM leads ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: fetch all: %w", err)
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func (sw *SQLiteWriter) Close() error { return sw.db.Close() }
