package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"property-valuation/models"
	"property-valuation/utils"
)

// BatchConfig tunes a BatchRunner.
type BatchConfig struct {
	Concurrency  int
	RateLimitMs  int
	ReportFormat string // empty disables report output
	OutputDir    string
}

// BatchResult is the outcome of one row of a batch file. Row is 1-based and
// excludes the header.
type BatchResult struct {
	Row        int
	Lead       *models.Lead
	ReportPath string
	Err        error
}

// BatchRunner valuates every row of a submissions CSV concurrently.
type BatchRunner struct {
	svc     *ValuationService
	cleaner *Cleaner
	cfg     BatchConfig
	logger  *utils.Logger
}

func NewBatchRunner(svc *ValuationService, cfg BatchConfig, logger *utils.Logger) *BatchRunner {
	return &BatchRunner{svc: svc, cleaner: NewCleaner(logger), cfg: cfg, logger: logger}
}

// ReadSubmissions parses a batch CSV with the header columns name, phone,
// area, property_type, size, furnishing, view, amenities and age, in any
// order. Only area and size are required. Amenities within a cell are
// separated by semicolons.
func ReadSubmissions(r io.Reader) ([]RawSubmission, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("batch file is empty")
		}
		return nil, fmt.Errorf("read batch header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"area", "size"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("batch header is missing the %q column", required)
		}
	}

	var out []RawSubmission
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read batch row %d: %w", len(out)+1, err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		var amenities []string
		if cell := field("amenities"); strings.TrimSpace(cell) != "" {
			amenities = strings.Split(cell, ";")
		}

		out = append(out, RawSubmission{
			Name:         field("name"),
			Phone:        field("phone"),
			Area:         field("area"),
			PropertyType: field("property_type"),
			Size:         field("size"),
			Furnishing:   field("furnishing"),
			View:         field("view"),
			Amenities:    amenities,
			Age:          field("age"),
		})
	}
	return out, nil
}

// Run valuates every submission in r. Per-row failures are reported in the
// results and joined into the returned error; successful rows are still
// recorded and rendered.
func (b *BatchRunner) Run(ctx context.Context, r io.Reader) ([]BatchResult, error) {
	rows, err := ReadSubmissions(r)
	if err != nil {
		return nil, err
	}

	if b.cfg.ReportFormat != "" {
		if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create report dir: %w", err)
		}
	}

	b.logger.Info("[batch] Valuating %d submissions with %d workers", len(rows), max(b.cfg.Concurrency, 1))

	results := make([]BatchResult, len(rows))
	names := utils.NewKeySet()
	pool := utils.NewWorkerPool(b.cfg.Concurrency, b.cfg.RateLimitMs)

	for i, raw := range rows {
		i, raw := i, raw // per-iteration copies (go directive < 1.22)
		results[i].Row = i + 1
		pool.Submit(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			lead, path, err := b.process(ctx, raw, names)
			results[i].Lead = lead
			results[i].ReportPath = path
			results[i].Err = err
			if err != nil {
				b.logger.Warn("[batch] Row %d failed: %v", i+1, err)
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			return nil
		})
	}

	err = pool.Wait()
	b.logger.Info("[batch] Completed %d submissions (%d unique reports)", len(rows), names.Size())
	return results, err
}

func (b *BatchRunner) process(ctx context.Context, raw RawSubmission, names *utils.KeySet) (*models.Lead, string, error) {
	sub, err := b.cleaner.Clean(raw)
	if err != nil {
		return nil, "", err
	}
	lead, err := b.svc.Estimate(sub)
	if err != nil {
		return nil, "", err
	}
	if b.cfg.ReportFormat == "" {
		return lead, "", nil
	}

	rendered, err := b.svc.Report(ctx, lead, b.cfg.ReportFormat)
	if err != nil {
		return lead, "", err
	}

	path := filepath.Join(b.cfg.OutputDir, uniqueName(names, rendered.FileName))
	if err := os.WriteFile(path, rendered.Data, 0o644); err != nil {
		return lead, "", fmt.Errorf("write report: %w", err)
	}
	return lead, path, nil
}

// uniqueName claims fileName in names, suffixing _2, _3, ... when two rows
// share a contact name.
func uniqueName(names *utils.KeySet, fileName string) string {
	if names.Add(fileName) {
		return fileName
	}
	ext := filepath.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if names.Add(candidate) {
			return candidate
		}
	}
}
