package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"property-valuation/models"
)

// CSVWriter appends leads to a flat CSV log. The header is written only when
// the file is new or empty, so restarts keep appending to the same log.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter opens (or creates) the CSV log at path. Intermediate
// directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
	}

	return &CSVWriter{path: path, file: f, writer: w}, nil
}

// Write appends one row per lead and flushes.
func (c *CSVWriter) Write(leads []*models.Lead) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range leads {
		if err := c.writer.Write(leadToRow(l)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// FetchAll reads every lead recorded in the log.
func (c *CSVWriter) FetchAll() ([]*models.Lead, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q for reading: %w", c.path, err)
	}
	defer f.Close()

	return readLeads(f)
}

func readLeads(r io.Reader) ([]*models.Lead, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var leads []*models.Lead
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read line %d: %w", line, err)
		}
		if line == 1 && isHeaderRow(row) {
			continue
		}
		l, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("csv: parse line %d: %w", line, err)
		}
		leads = append(leads, l)
	}
	return leads, nil
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	return c.file.Close()
}
