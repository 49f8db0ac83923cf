// Package report turns a valuated lead into a downloadable document.
package report

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"property-valuation/models"
)

// Renderer produces one document format.
type Renderer interface {
	Render(ctx context.Context, doc *Document) ([]byte, error)
	ContentType() string
	Extension() string
}

// Document is everything a report shows.
type Document struct {
	ID          uuid.UUID
	GeneratedAt time.Time
	Name        string
	Phone       string
	Request     models.ValuationRequest
	Result      models.ValuationResult
	Display     models.Display
}

// Line is one label/value row of the report body.
type Line struct {
	Label string
	Value string
}

func NewDocument(lead *models.Lead, display models.Display) *Document {
	return &Document{
		ID:          lead.ID,
		GeneratedAt: lead.CreatedAt,
		Name:        lead.Name,
		Phone:       lead.Phone,
		Request:     lead.Request,
		Result:      lead.Result,
		Display:     display,
	}
}

// Lines lists the submitted details in the order the report prints them.
func (d *Document) Lines() []Line {
	amenities := "None"
	if len(d.Request.Amenities) > 0 {
		amenities = strings.Join(d.Request.Amenities, ", ")
	}
	return []Line{
		{"Name", orDash(d.Name)},
		{"Mobile", orDash(d.Phone)},
		{"Area", d.Request.Area},
		{"Property Type", orDash(d.Request.PropertyType)},
		{"Size", FormatSize(d.Request.Size, d.Display)},
		{"Furnishing", orDash(d.Request.Furnishing)},
		{"Overlooking", orDash(d.Request.View)},
		{"Amenities", amenities},
		{"Age of Property", orDash(d.Request.Age)},
	}
}

func (d *Document) EstimatedPrice() string {
	return FormatAmount(d.Result.Total, d.Display.Currency)
}

func (d *Document) PriceRange() string {
	return FormatAmount(d.Result.Low, d.Display.Currency) + " – " + FormatAmount(d.Result.High, d.Display.Currency)
}

func (d *Document) RatePerUnit() string {
	return FormatAmount(d.Result.RatePerUnit, d.Display.Currency) + " / " + d.Display.Unit
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// FileName builds the download name, e.g. valuation_Asha_Patel.pdf.
func FileName(name, ext string) string {
	base := strings.Join(strings.Fields(name), "_")
	base = unsafeFileChars.ReplaceAllString(base, "")
	if base == "" {
		base = "report"
	}
	return "valuation_" + base + "." + ext
}
