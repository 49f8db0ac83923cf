package services

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"property-valuation/models"
	"property-valuation/utils"
)

// sizeRegexp captures the first numeric value in "1,200 sq ft" style input.
var sizeRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)

// MaxSize is the largest plausible property size in profile units. Larger
// values are treated as typing mistakes.
const MaxSize = 10_000_000

// ErrInvalidSubmission marks input that could not be cleaned into a request.
var ErrInvalidSubmission = errors.New("invalid submission")

// RawSubmission is a submission exactly as typed on the form or in a batch
// file, before any cleaning.
type RawSubmission struct {
	Name         string
	Phone        string
	Area         string
	PropertyType string
	Size         string
	Furnishing   string
	View         string
	Amenities    []string
	Age          string
}

// Cleaner turns RawSubmissions into Submissions the engine can valuate.
type Cleaner struct {
	logger *utils.Logger
}

func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean normalises whitespace, parses the size and reduces amenities to a
// sorted set. Vocabulary is not checked here; the engine decides what an
// unknown area or tag means.
func (c *Cleaner) Clean(raw RawSubmission) (*models.Submission, error) {
	size, err := c.parseSize(raw.Size)
	if err != nil {
		return nil, err
	}

	sub := &models.Submission{
		Name:  normaliseText(raw.Name),
		Phone: normalisePhone(raw.Phone),
		Request: models.ValuationRequest{
			Area:         normaliseText(raw.Area),
			PropertyType: normaliseText(raw.PropertyType),
			Size:         size,
			Furnishing:   normaliseText(raw.Furnishing),
			View:         normaliseText(raw.View),
			Amenities:    normaliseAmenities(raw.Amenities),
			Age:          normaliseText(raw.Age),
		},
	}

	if len(sub.Request.Amenities) != len(raw.Amenities) {
		c.logger.Debug("[cleaner] Amenities reduced %d → %d", len(raw.Amenities), len(sub.Request.Amenities))
	}
	return sub, nil
}

// parseSize extracts the numeric size from free text.
// Examples:
//
//	"1000"         → 1000
//	"1,200 sq ft"  → 1200
//	" 950.5 "      → 950.5
//
// A value without digits or above MaxSize is an input error. Zero and
// negative values are passed through so the engine reports them as invalid
// sizes.
func (c *Cleaner) parseSize(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	match := sizeRegexp.FindString(cleaned)
	if match == "" {
		return 0, fmt.Errorf("%w: size %q is not a number", ErrInvalidSubmission, raw)
	}
	size, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: size %q is not a number", ErrInvalidSubmission, raw)
	}
	if size > MaxSize {
		return 0, fmt.Errorf("%w: size %s exceeds the maximum of %d", ErrInvalidSubmission, match, MaxSize)
	}
	if strings.HasPrefix(cleaned, "-") {
		size = -size
	}
	return size, nil
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

// normalisePhone keeps digits and a leading plus sign.
func normalisePhone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if unicode.IsDigit(r) || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normaliseAmenities(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = normaliseText(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
