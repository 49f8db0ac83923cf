package storage

import "property-valuation/models"

// LeadWriter is the interface any lead sink must satisfy. Sinks only ever
// append; recorded leads are never rewritten.
type LeadWriter interface {
	Write(leads []*models.Lead) error
	Close() error
}

// LeadReader is implemented by sinks that can read their leads back for
// analysis.
type LeadReader interface {
	FetchAll() ([]*models.Lead, error)
}
