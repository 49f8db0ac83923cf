package models

import "github.com/shopspring/decimal"

// ValuationRequest holds the property attributes entered on the form.
type ValuationRequest struct {
	Area         string   `json:"area"`
	PropertyType string   `json:"property_type"`
	Size         float64  `json:"size"`
	Furnishing   string   `json:"furnishing,omitempty"`
	View         string   `json:"view,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
	Age          string   `json:"age,omitempty"`
}

// AppliedAdjustment records one rule that matched a request.
type AppliedAdjustment struct {
	Category Category        `json:"category"`
	Name     string          `json:"name"`
	Effect   decimal.Decimal `json:"effect"`
}

// ValuationResult is the engine output for one request. Totals are exact
// decimals; rounding for display is left to the renderer.
type ValuationResult struct {
	Mode            AdjustmentMode      `json:"mode"`
	BaseRate        decimal.Decimal     `json:"base_rate"`
	AdjustmentTotal decimal.Decimal     `json:"adjustment_total"`
	Adjustments     []AppliedAdjustment `json:"adjustments"`
	RatePerUnit     decimal.Decimal     `json:"rate_per_unit"`
	Total           decimal.Decimal     `json:"total"`
	Low             decimal.Decimal     `json:"low"`
	High            decimal.Decimal     `json:"high"`
}
