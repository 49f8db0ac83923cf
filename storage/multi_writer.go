package storage

import (
	"errors"
	"fmt"

	"property-valuation/models"
)

// MultiWriter fans every write out to all configured sinks.
type MultiWriter struct {
	writers []LeadWriter
}

func NewMultiWriter(writers ...LeadWriter) (*MultiWriter, error) {
	if len(writers) == 0 {
		return nil, fmt.Errorf("storage: at least one lead writer is required")
	}
	return &MultiWriter{writers: writers}, nil
}

// Write attempts every sink even if one fails and returns the joined errors.
func (m *MultiWriter) Write(leads []*models.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	var errs []error
	for _, w := range m.writers {
		if err := w.Write(leads); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FetchAll reads from the first sink that supports reading.
func (m *MultiWriter) FetchAll() ([]*models.Lead, error) {
	for _, w := range m.writers {
		if r, ok := w.(LeadReader); ok {
			return r.FetchAll()
		}
	}
	return nil, fmt.Errorf("storage: no configured lead sink supports reading")
}

func (m *MultiWriter) Close() error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
