package models

import "github.com/shopspring/decimal"

// AdjustmentMode selects how matched adjustment effects change the base rate.
type AdjustmentMode string

const (
	// ModeAdditive adds each matched effect, in currency per unit area, to the base rate.
	ModeAdditive AdjustmentMode = "additive"
	// ModeMultiplicative sums the matched fractions and scales the base rate by 1 + sum.
	ModeMultiplicative AdjustmentMode = "multiplicative"
)

// Category groups adjustment options by the property attribute they inspect.
type Category string

const (
	CategoryFurnishing Category = "furnishing"
	CategoryView       Category = "view"
	CategoryAmenity    Category = "amenity"
	CategoryAge        Category = "age"
)

// AreaRate is the base price of one area. Exactly one of Rate or Rates is set:
// Rate for a flat per-unit price, Rates when the price depends on property type.
type AreaRate struct {
	Name  string                     `json:"name"`
	Rate  *decimal.Decimal           `json:"rate,omitempty"`
	Rates map[string]decimal.Decimal `json:"rates,omitempty"`
}

// Option is one selectable value of a category together with its effect.
// A missing effect decodes as zero, i.e. the option is offered but neutral.
type Option struct {
	Name   string          `json:"name"`
	Effect decimal.Decimal `json:"effect"`
}

type Adjustments struct {
	Mode       AdjustmentMode `json:"mode"`
	Furnishing []Option       `json:"furnishing"`
	View       []Option       `json:"view"`
	Amenities  []Option       `json:"amenities"`
	Age        []Option       `json:"age"`
}

// Options returns the configured options of one category.
func (a Adjustments) Options(c Category) []Option {
	switch c {
	case CategoryFurnishing:
		return a.Furnishing
	case CategoryView:
		return a.View
	case CategoryAmenity:
		return a.Amenities
	case CategoryAge:
		return a.Age
	}
	return nil
}

// RangeFactors widen a point estimate into a low/high band.
type RangeFactors struct {
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`
}

type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Locale string `json:"locale"`
}

// PricingConfig is one deployment's pricing profile: price table, adjustment
// rules, range factors and the vocabulary offered by the form.
type PricingConfig struct {
	Name          string       `json:"name"`
	Title         string       `json:"title"`
	Brand         string       `json:"brand"`
	LogoPath      string       `json:"logo_path"`
	Currency      Currency     `json:"currency"`
	Unit          string       `json:"unit"`
	Range         RangeFactors `json:"range"`
	PropertyTypes []string     `json:"property_types"`
	Areas         []AreaRate   `json:"areas"`
	Adjustments   Adjustments  `json:"adjustments"`
}

// AreaNames returns area names in configuration order.
func (c *PricingConfig) AreaNames() []string {
	names := make([]string, 0, len(c.Areas))
	for _, a := range c.Areas {
		names = append(names, a.Name)
	}
	return names
}

// Display extracts the presentation settings used by reports and the form.
func (c *PricingConfig) Display() Display {
	return Display{
		Title:    c.Title,
		Brand:    c.Brand,
		LogoPath: c.LogoPath,
		Currency: c.Currency,
		Unit:     c.Unit,
	}
}

// Display holds branding and formatting settings for rendered output.
type Display struct {
	Title    string
	Brand    string
	LogoPath string
	Currency Currency
	Unit     string
}
