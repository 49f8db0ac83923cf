package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"property-valuation/models"
)

// csvHeader starts with the spreadsheet-style lead columns (timestamp,
// contact, area, type, size) followed by the full request and the estimate
// band.
var csvHeader = []string{
	"ID", "Timestamp", "Name", "Phone", "Area", "Property Type", "Size",
	"Furnishing", "Overlooking", "Amenities", "Age",
	"Mode", "Rate Per Unit", "Estimated Value", "Low", "High",
}

// legacyHeader is the seven-column lead log written by earlier versions of
// the estimator. Rows in this layout are still accepted on read.
var legacyHeader = []string{
	"Timestamp", "Name", "Phone", "Area", "Property Type", "Sq. Ft.", "Estimated Value",
}

var legacyTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// legacyNamespace seeds the deterministic ids given to legacy rows, so the
// same row reads back with the same id every time.
var legacyNamespace = uuid.MustParse("5c0d1a8e-7f43-4c59-9a1e-2b6d8f0e3c71")

const amenitySeparator = ";"

func leadToRow(l *models.Lead) []string {
	return []string{
		l.ID.String(),
		l.CreatedAt.UTC().Format(time.RFC3339),
		l.Name,
		l.Phone,
		l.Request.Area,
		l.Request.PropertyType,
		strconv.FormatFloat(l.Request.Size, 'f', -1, 64),
		l.Request.Furnishing,
		l.Request.View,
		strings.Join(l.Request.Amenities, amenitySeparator),
		l.Request.Age,
		string(l.Result.Mode),
		l.Result.RatePerUnit.String(),
		l.Result.Total.String(),
		l.Result.Low.String(),
		l.Result.High.String(),
	}
}

func rowToLead(row []string) (*models.Lead, error) {
	if len(row) != len(csvHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(row))
	}

	id, err := uuid.Parse(row[0])
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339, row[1])
	if err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}
	size, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}

	var amounts [4]decimal.Decimal
	for i := range amounts {
		if amounts[i], err = decimal.NewFromString(row[12+i]); err != nil {
			return nil, fmt.Errorf("%s: %w", csvHeader[12+i], err)
		}
	}

	var amenities []string
	if row[9] != "" {
		amenities = strings.Split(row[9], amenitySeparator)
	}

	return &models.Lead{
		ID:        id,
		CreatedAt: createdAt,
		Name:      row[2],
		Phone:     row[3],
		Request: models.ValuationRequest{
			Area:         row[4],
			PropertyType: row[5],
			Size:         size,
			Furnishing:   row[7],
			View:         row[8],
			Amenities:    amenities,
			Age:          row[10],
		},
		Result: models.ValuationResult{
			Mode:        models.AdjustmentMode(row[11]),
			RatePerUnit: amounts[0],
			Total:       amounts[1],
			Low:         amounts[2],
			High:        amounts[3],
		},
	}, nil
}

// parseRow decodes either the current or the legacy row layout.
func parseRow(row []string) (*models.Lead, error) {
	switch len(row) {
	case len(csvHeader):
		return rowToLead(row)
	case len(legacyHeader):
		return legacyRowToLead(row)
	}
	return nil, fmt.Errorf("expected %d or %d columns, got %d", len(csvHeader), len(legacyHeader), len(row))
}

func isHeaderRow(row []string) bool {
	return len(row) > 0 && (row[0] == csvHeader[0] || row[0] == legacyHeader[0])
}

// legacyRowToLead reads a Timestamp, Name, Phone, Area, Property Type,
// Sq. Ft., Estimated Value row. Only the total was recorded, so the range
// and adjustment fields stay zero.
func legacyRowToLead(row []string) (*models.Lead, error) {
	var createdAt time.Time
	var err error
	for _, layout := range legacyTimeLayouts {
		if createdAt, err = time.ParseInLocation(layout, strings.TrimSpace(row[0]), time.Local); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}

	size, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
	if err != nil {
		return nil, fmt.Errorf("sq. ft.: %w", err)
	}
	total, err := decimal.NewFromString(strings.TrimSpace(row[6]))
	if err != nil {
		return nil, fmt.Errorf("estimated value: %w", err)
	}

	l := &models.Lead{
		ID:        uuid.NewSHA1(legacyNamespace, []byte(strings.Join(row, "\x1f"))),
		CreatedAt: createdAt,
		Name:      row[1],
		Phone:     row[2],
		Request: models.ValuationRequest{
			Area:         row[3],
			PropertyType: row[4],
			Size:         size,
		},
		Result: models.ValuationResult{Total: total},
	}
	if size > 0 {
		l.Result.RatePerUnit = total.Div(decimal.NewFromFloat(size))
	}
	return l, nil
}

// leadColumns is the column order shared by the SQL stores.
const leadColumns = `id, created_at, name, phone, area, property_type, size, furnishing, overlooking,
	amenities, age, mode, base_rate, adjustment_total, adjustments, rate_per_unit, total, low, high`

const leadColumnCount = 19

func leadValues(l *models.Lead) ([]any, error) {
	amenities, err := json.Marshal(l.Request.Amenities)
	if err != nil {
		return nil, fmt.Errorf("encode amenities: %w", err)
	}
	adjustments, err := json.Marshal(l.Result.Adjustments)
	if err != nil {
		return nil, fmt.Errorf("encode adjustments: %w", err)
	}
	return []any{
		l.ID, l.CreatedAt.UTC(), l.Name, l.Phone,
		l.Request.Area, l.Request.PropertyType, l.Request.Size,
		l.Request.Furnishing, l.Request.View, string(amenities), l.Request.Age,
		string(l.Result.Mode), l.Result.BaseRate, l.Result.AdjustmentTotal, string(adjustments),
		l.Result.RatePerUnit, l.Result.Total, l.Result.Low, l.Result.High,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(rs rowScanner) (*models.Lead, error) {
	l := &models.Lead{}
	var mode string
	var amenities, adjustments []byte

	if err := rs.Scan(
		&l.ID, &l.CreatedAt, &l.Name, &l.Phone,
		&l.Request.Area, &l.Request.PropertyType, &l.Request.Size,
		&l.Request.Furnishing, &l.Request.View, &amenities, &l.Request.Age,
		&mode, &l.Result.BaseRate, &l.Result.AdjustmentTotal, &adjustments,
		&l.Result.RatePerUnit, &l.Result.Total, &l.Result.Low, &l.Result.High,
	); err != nil {
		return nil, err
	}

	l.Result.Mode = models.AdjustmentMode(mode)
	if err := json.Unmarshal(amenities, &l.Request.Amenities); err != nil {
		return nil, fmt.Errorf("decode amenities: %w", err)
	}
	if err := json.Unmarshal(adjustments, &l.Result.Adjustments); err != nil {
		return nil, fmt.Errorf("decode adjustments: %w", err)
	}
	return l, nil
}
