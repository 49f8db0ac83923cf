package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"property-valuation/models"
	"property-valuation/report"
	"property-valuation/utils"
)

const topValuedCount = 5

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(leads []*models.Lead) *models.InsightReport {
	r := &models.InsightReport{
		LeadsByArea: make(map[string]int),
		LeadsByType: make(map[string]int),
	}

	if len(leads) == 0 {
		return r
	}

	r.TotalLeads = len(leads)
	r.MinEstimate = leads[0].Result.Total
	r.MaxEstimate = leads[0].Result.Total

	sum := decimal.Zero
	for _, l := range leads {
		total := l.Result.Total
		sum = sum.Add(total)
		if total.LessThan(r.MinEstimate) {
			r.MinEstimate = total
		}
		if total.GreaterThan(r.MaxEstimate) {
			r.MaxEstimate = total
		}
		if l.Request.Area != "" {
			r.LeadsByArea[l.Request.Area]++
		}
		if l.Request.PropertyType != "" {
			r.LeadsByType[l.Request.PropertyType]++
		}
	}
	r.AverageEstimate = sum.Div(decimal.NewFromInt(int64(len(leads)))).Round(2)

	// Top valuations, newest first among equal totals
	ranked := make([]*models.Lead, len(leads))
	copy(ranked, leads)
	sort.SliceStable(ranked, func(i, j int) bool {
		if c := ranked[i].Result.Total.Cmp(ranked[j].Result.Total); c != 0 {
			return c > 0
		}
		return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
	})
	if len(ranked) > topValuedCount {
		ranked = ranked[:topValuedCount]
	}
	r.HighestValued = ranked

	s.logger.Debug("[insights] Summarised %d leads across %d areas", r.TotalLeads, len(r.LeadsByArea))
	return r
}

// Print writes the report to w in the terminal's ANSI colours.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport, cur models.Currency) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	money := func(d decimal.Decimal) string { return report.FormatAmount(d, cur) }

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📊 VALUATION LEAD INSIGHTS\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total leads recorded : \033[1m%d\033[0m\n", r.TotalLeads)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Estimate Statistics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.TotalLeads > 0 {
		fmt.Fprintf(w, "  Average estimate : \033[1;32m%s\033[0m\n", money(r.AverageEstimate))
		fmt.Fprintf(w, "  Minimum estimate : \033[1;32m%s\033[0m\n", money(r.MinEstimate))
		fmt.Fprintf(w, "  Maximum estimate : \033[1;32m%s\033[0m\n", money(r.MaxEstimate))
	} else {
		fmt.Fprintf(w, "  No leads recorded yet\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Top %d Highest Valuations\033[0m\n", topValuedCount)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.HighestValued) == 0 {
		fmt.Fprintf(w, "  No valuations found\n")
	}
	for i, l := range r.HighestValued {
		label := truncate(l.Request.Area+" · "+l.Request.PropertyType, 30)
		fmt.Fprintf(w, "  \033[1m%d.\033[0m %-32s \033[1;32m%s\033[0m\n", i+1, label, money(l.Result.Total))
	}
	fmt.Fprintln(w)

	printCounts(w, "Leads by Area", r.LeadsByArea, thin)
	printCounts(w, "Leads by Property Type", r.LeadsByType, thin)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func printCounts(w io.Writer, title string, counts map[string]int, thin string) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(counts) == 0 {
		fmt.Fprintf(w, "  No data\n\n")
		return
	}

	type keyCount struct {
		key   string
		count int
	}
	var rows []keyCount
	for k, c := range counts {
		rows = append(rows, keyCount{k, c})
	}
	// Count descending, then name for a stable listing
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].key < rows[j].key
	})
	for _, kc := range rows {
		bar := strings.Repeat("█", kc.count)
		fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(kc.key, 28), bar, kc.count)
	}
	fmt.Fprintln(w)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
