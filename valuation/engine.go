// Package valuation prices a property from a per-area base rate, the
// adjustments its attributes match and a fixed confidence band.
package valuation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"property-valuation/models"
)

var (
	one               = decimal.NewFromInt(1)
	DefaultLowFactor  = decimal.RequireFromString("0.95")
	DefaultHighFactor = decimal.RequireFromString("1.05")
)

type areaRates struct {
	flat   decimal.Decimal
	byType map[string]decimal.Decimal
}

// Engine is built once from a pricing profile and never mutated afterwards,
// so a single Engine may be shared by any number of goroutines.
type Engine struct {
	mode       models.AdjustmentMode
	areas      map[string]areaRates
	rules      map[models.Category]map[string]decimal.Decimal
	lowFactor  decimal.Decimal
	highFactor decimal.Decimal
}

// NewEngine validates cfg and copies what it needs out of it.
func NewEngine(cfg *models.PricingConfig) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("valuation: nil pricing config")
	}
	if len(cfg.Areas) == 0 {
		return nil, fmt.Errorf("valuation: pricing config %q has no areas", cfg.Name)
	}

	e := &Engine{
		mode:       cfg.Adjustments.Mode,
		areas:      make(map[string]areaRates, len(cfg.Areas)),
		rules:      make(map[models.Category]map[string]decimal.Decimal),
		lowFactor:  cfg.Range.Low,
		highFactor: cfg.Range.High,
	}

	switch e.mode {
	case models.ModeAdditive, models.ModeMultiplicative:
	default:
		return nil, fmt.Errorf("valuation: unsupported adjustment mode %q", e.mode)
	}

	if e.lowFactor.IsZero() {
		e.lowFactor = DefaultLowFactor
	}
	if e.highFactor.IsZero() {
		e.highFactor = DefaultHighFactor
	}
	if !e.lowFactor.IsPositive() || e.lowFactor.GreaterThan(one) || e.highFactor.LessThan(one) {
		return nil, fmt.Errorf("valuation: range factors must satisfy 0 < low <= 1 <= high, got %s/%s",
			e.lowFactor, e.highFactor)
	}

	for _, a := range cfg.Areas {
		if _, dup := e.areas[a.Name]; dup {
			return nil, fmt.Errorf("valuation: duplicate area %q", a.Name)
		}
		rates, err := buildAreaRates(a)
		if err != nil {
			return nil, err
		}
		e.areas[a.Name] = rates
	}

	for _, c := range []models.Category{
		models.CategoryFurnishing, models.CategoryView, models.CategoryAmenity, models.CategoryAge,
	} {
		opts := cfg.Adjustments.Options(c)
		byName := make(map[string]decimal.Decimal, len(opts))
		for _, o := range opts {
			if _, dup := byName[o.Name]; dup {
				return nil, fmt.Errorf("valuation: duplicate %s option %q", c, o.Name)
			}
			byName[o.Name] = o.Effect
		}
		e.rules[c] = byName
	}

	return e, nil
}

func buildAreaRates(a models.AreaRate) (areaRates, error) {
	switch {
	case a.Rate != nil && len(a.Rates) > 0:
		return areaRates{}, fmt.Errorf("valuation: area %q sets both a flat rate and per-type rates", a.Name)
	case a.Rate != nil:
		if !a.Rate.IsPositive() {
			return areaRates{}, fmt.Errorf("valuation: area %q rate must be positive", a.Name)
		}
		return areaRates{flat: *a.Rate}, nil
	case len(a.Rates) > 0:
		byType := make(map[string]decimal.Decimal, len(a.Rates))
		for t, r := range a.Rates {
			if !r.IsPositive() {
				return areaRates{}, fmt.Errorf("valuation: area %q rate for %q must be positive", a.Name, t)
			}
			byType[t] = r
		}
		return areaRates{byType: byType}, nil
	}
	return areaRates{}, fmt.Errorf("valuation: area %q has no rate", a.Name)
}

// Mode reports the adjustment mode of the loaded profile.
func (e *Engine) Mode() models.AdjustmentMode { return e.mode }

// LookupBaseRate returns the unadjusted per-unit rate. propertyType is only
// consulted for areas priced per property type.
func (e *Engine) LookupBaseRate(area, propertyType string) (decimal.Decimal, error) {
	rates, ok := e.areas[area]
	if !ok {
		return decimal.Decimal{}, &UnknownAreaError{Area: area}
	}
	if rates.byType == nil {
		return rates.flat, nil
	}
	rate, ok := rates.byType[propertyType]
	if !ok {
		return decimal.Decimal{}, &UnknownPropertyTypeError{Area: area, PropertyType: propertyType}
	}
	return rate, nil
}

// ApplyAdjustments returns baseRate adjusted by every rule req matches.
func (e *Engine) ApplyAdjustments(baseRate decimal.Decimal, req models.ValuationRequest) decimal.Decimal {
	rate, _, _ := e.adjust(baseRate, req)
	return rate
}

func (e *Engine) adjust(baseRate decimal.Decimal, req models.ValuationRequest) (decimal.Decimal, decimal.Decimal, []models.AppliedAdjustment) {
	applied := e.match(req)

	sum := decimal.Zero
	for _, a := range applied {
		sum = sum.Add(a.Effect)
	}

	if e.mode == models.ModeMultiplicative {
		return baseRate.Mul(one.Add(sum)), sum, applied
	}
	return baseRate.Add(sum), sum, applied
}

// match collects the rules a request selects. Single-valued categories match
// at most once; amenities are treated as a set and reported in sorted order.
// Values missing from the profile match nothing.
func (e *Engine) match(req models.ValuationRequest) []models.AppliedAdjustment {
	var applied []models.AppliedAdjustment

	single := func(c models.Category, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		if effect, ok := e.rules[c][value]; ok {
			applied = append(applied, models.AppliedAdjustment{Category: c, Name: value, Effect: effect})
		}
	}
	single(models.CategoryFurnishing, req.Furnishing)
	single(models.CategoryView, req.View)

	seen := make(map[string]struct{}, len(req.Amenities))
	amenities := make([]string, 0, len(req.Amenities))
	for _, tag := range req.Amenities {
		tag = strings.TrimSpace(tag)
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := e.rules[models.CategoryAmenity][tag]; ok {
			amenities = append(amenities, tag)
		}
	}
	sort.Strings(amenities)
	for _, tag := range amenities {
		applied = append(applied, models.AppliedAdjustment{
			Category: models.CategoryAmenity,
			Name:     tag,
			Effect:   e.rules[models.CategoryAmenity][tag],
		})
	}

	single(models.CategoryAge, req.Age)
	return applied
}

// DeriveRange widens total into a low/high band. For a negative total the
// products are swapped so that low <= total <= high still holds.
func DeriveRange(total, lowFactor, highFactor decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	low := total.Mul(lowFactor)
	high := total.Mul(highFactor)
	if low.GreaterThan(high) {
		low, high = high, low
	}
	return low, high
}

// Valuate prices req. It returns either a complete result or an error,
// never both.
func (e *Engine) Valuate(req models.ValuationRequest) (*models.ValuationResult, error) {
	if math.IsNaN(req.Size) || math.IsInf(req.Size, 0) || req.Size <= 0 {
		return nil, &InvalidSizeError{Size: req.Size}
	}

	base, err := e.LookupBaseRate(req.Area, req.PropertyType)
	if err != nil {
		return nil, err
	}

	rate, sum, applied := e.adjust(base, req)
	total := rate.Mul(decimal.NewFromFloat(req.Size))
	low, high := DeriveRange(total, e.lowFactor, e.highFactor)

	return &models.ValuationResult{
		Mode:            e.mode,
		BaseRate:        base,
		AdjustmentTotal: sum,
		Adjustments:     applied,
		RatePerUnit:     rate,
		Total:           total,
		Low:             low,
		High:            high,
	}, nil
}
