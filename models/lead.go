package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Submission is what the form posts: contact details plus the property.
type Submission struct {
	Name    string           `json:"name"`
	Phone   string           `json:"phone"`
	Request ValuationRequest `json:"request"`
}

// Lead is a valuated submission, ready for the lead stores and the report.
type Lead struct {
	ID        uuid.UUID        `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Name      string           `json:"name"`
	Phone     string           `json:"phone"`
	Request   ValuationRequest `json:"request"`
	Result    ValuationResult  `json:"result"`
}

// InsightReport holds the computed analytics over the recorded leads.
type InsightReport struct {
	TotalLeads      int
	AverageEstimate decimal.Decimal
	MinEstimate     decimal.Decimal
	MaxEstimate     decimal.Decimal
	HighestValued   []*Lead
	LeadsByArea     map[string]int
	LeadsByType     map[string]int
}
