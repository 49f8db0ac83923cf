package report

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"property-valuation/models"
)

// FormatAmount renders whole currency units with locale digit grouping.
// Fractions are truncated, matching how estimates have always been quoted.
// Amounts of any magnitude are grouped exactly; nothing is narrowed to a
// machine integer.
func FormatAmount(amount decimal.Decimal, cur models.Currency) string {
	whole := amount.Truncate(0)
	sign := ""
	if whole.IsNegative() {
		sign = "-"
	}
	g := groupingFor(printerFor(cur.Locale))
	return cur.Symbol + sign + g.apply(whole.Abs().String())
}

// FormatSize prints a size with its unit, without a trailing ".0".
func FormatSize(size float64, display models.Display) string {
	s := strconv.FormatFloat(size, 'f', -1, 64)
	if display.Unit == "" {
		return s
	}
	return s + " " + display.Unit
}

func printerFor(locale string) *message.Printer {
	tag := language.English
	if locale != "" {
		if t, err := language.Parse(locale); err == nil {
			tag = t
		}
	}
	return message.NewPrinter(tag)
}

// grouping is a locale's digit grouping: the rightmost group holds primary
// digits, every group to its left holds secondary digits (3/3 for en-US,
// 3/2 for en-IN).
type grouping struct {
	sep       string
	primary   int
	secondary int
}

// groupingFor reads the grouping p applies by printing a 19-digit sample.
func groupingFor(p *message.Printer) grouping {
	sample := p.Sprintf("%d", int64(1000000000000000000))
	notDigit := func(r rune) bool { return !unicode.IsDigit(r) }

	parts := strings.FieldsFunc(sample, notDigit)
	if len(parts) < 3 {
		return grouping{}
	}
	start := strings.IndexFunc(sample, notDigit)
	end := strings.IndexFunc(sample[start:], unicode.IsDigit)
	return grouping{
		sep:       sample[start : start+end],
		primary:   len([]rune(parts[len(parts)-1])),
		secondary: len([]rune(parts[len(parts)-2])),
	}
}

// apply groups an unsigned string of ASCII digits.
func (g grouping) apply(digits string) string {
	if g.primary == 0 || g.secondary == 0 || len(digits) <= g.primary {
		return digits
	}

	head := digits[:len(digits)-g.primary]
	groups := []string{digits[len(digits)-g.primary:]}
	for len(head) > g.secondary {
		groups = append(groups, head[len(head)-g.secondary:])
		head = head[:len(head)-g.secondary]
	}
	groups = append(groups, head)

	for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
		groups[i], groups[j] = groups[j], groups[i]
	}
	return strings.Join(groups, g.sep)
}
