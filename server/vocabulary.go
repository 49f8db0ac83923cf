package server

import "property-valuation/models"

// Vocabulary is the set of choices the form offers, in profile order.
type Vocabulary struct {
	Title         string                `json:"title"`
	Brand         string                `json:"brand,omitempty"`
	Currency      models.Currency       `json:"currency"`
	Unit          string                `json:"unit"`
	Mode          models.AdjustmentMode `json:"mode"`
	Areas         []string              `json:"areas"`
	PropertyTypes []string              `json:"property_types"`
	Furnishing    []string              `json:"furnishing"`
	View          []string              `json:"view"`
	Amenities     []string              `json:"amenities"`
	Age           []string              `json:"age"`
}

func NewVocabulary(cfg *models.PricingConfig) Vocabulary {
	names := func(opts []models.Option) []string {
		out := make([]string, 0, len(opts))
		for _, o := range opts {
			out = append(out, o.Name)
		}
		return out
	}

	title := cfg.Title
	if title == "" {
		title = "Property Valuation"
	}
	return Vocabulary{
		Title:         title,
		Brand:         cfg.Brand,
		Currency:      cfg.Currency,
		Unit:          cfg.Unit,
		Mode:          cfg.Adjustments.Mode,
		Areas:         cfg.AreaNames(),
		PropertyTypes: append([]string{}, cfg.PropertyTypes...),
		Furnishing:    names(cfg.Adjustments.Furnishing),
		View:          names(cfg.Adjustments.View),
		Amenities:     names(cfg.Adjustments.Amenities),
		Age:           names(cfg.Adjustments.Age),
	}
}
