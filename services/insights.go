package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"ethical-rent/models"
	"ethical-rent/utils"
)

type InsightService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, out: os.Stdout}
}

// Generate summarises a batch pricing run.
func (s *InsightService) Generate(priced []*models.PricedProperty, skipped int) *models.PricingReport {
	report := &models.PricingReport{
		RunID:             uuid.New().String(),
		TotalProperties:   len(priced) + skipped,
		PricedProperties:  len(priced),
		SkippedProperties: skipped,
		PropertiesByCity:  make(map[string]int),
		WarningCounts:     make(map[string]int),
	}

	if len(priced) == 0 {
		return report
	}

	var total float64
	report.MinSuggested = priced[0].Recommendation.SuggestedRent
	for _, pp := range priced {
		rec := pp.Recommendation
		total += float64(rec.SuggestedRent)

		if rec.SuggestedRent < report.MinSuggested {
			report.MinSuggested = rec.SuggestedRent
		}
		if report.MostExpensive == nil || rec.SuggestedRent > report.MaxSuggested {
			report.MaxSuggested = rec.SuggestedRent
			report.MostExpensive = pp
		}
		if pp.Record.AskingRent != nil {
			report.WithAskingRent++
		}
		if pp.Speculative {
			report.Speculative = append(report.Speculative, pp)
		}
		if city := pp.Record.Characteristics.Location.City; city != "" {
			report.PropertiesByCity[city]++
		}
		for _, w := range rec.Warnings {
			report.WarningCounts[warningKind(w)]++
		}
	}
	report.AverageSuggested = round2(total / float64(len(priced)))

	// Worst offenders first
	sort.SliceStable(report.Speculative, func(i, j int) bool {
		return report.Speculative[i].Excess > report.Speculative[j].Excess
	})

	s.logger.Debug("[insights] Run %s: %d priced, %d speculative", report.RunID, report.PricedProperties, len(report.Speculative))
	return report
}

// warningKind reduces a warning to its leading label, e.g. "Very old property".
func warningKind(w string) string {
	if i := strings.IndexAny(w, "(:"); i > 0 {
		return strings.TrimSpace(w[:i])
	}
	return w
}

func (s *InsightService) Print(r *models.PricingReport) {
	out := s.out
	sep := strings.Repeat("═", 58)
	thin := strings.Repeat("─", 58)

	fmt.Fprintf(out, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(out, "\033[1;35m  ETHICAL RENT PRICING REPORT\033[0m\n")
	fmt.Fprintf(out, "\033[1;35m  run %s\033[0m\n", r.RunID)
	fmt.Fprintf(out, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(out, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(out, "  %s\n", thin)
	fmt.Fprintf(out, "  Properties read    : \033[1m%d\033[0m\n", r.TotalProperties)
	fmt.Fprintf(out, "  Priced             : \033[1m%d\033[0m\n", r.PricedProperties)
	fmt.Fprintf(out, "  Skipped            : \033[1m%d\033[0m\n", r.SkippedProperties)
	fmt.Fprintf(out, "  With asking rent   : \033[1m%d\033[0m\n", r.WithAskingRent)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "\033[1;33m  Suggested Rent (monthly)\033[0m\n")
	fmt.Fprintf(out, "  %s\n", thin)
	if r.PricedProperties > 0 {
		fmt.Fprintf(out, "  Average : \033[1;32m$%.2f\033[0m\n", r.AverageSuggested)
		fmt.Fprintf(out, "  Minimum : \033[1;32m$%d\033[0m\n", r.MinSuggested)
		fmt.Fprintf(out, "  Maximum : \033[1;32m$%d\033[0m\n", r.MaxSuggested)
	} else {
		fmt.Fprintf(out, "  No priced properties\n")
	}
	fmt.Fprintln(out)

	if r.MostExpensive != nil {
		rec := r.MostExpensive.Recommendation
		fmt.Fprintf(out, "\033[1;33m  Highest Suggested Rent\033[0m\n")
		fmt.Fprintf(out, "  %s\n", thin)
		fmt.Fprintf(out, "  %s\n", truncate(displayName(r.MostExpensive.Record), 50))
		fmt.Fprintf(out, "  Suggested : $%d (range $%d–$%d)\n", rec.SuggestedRent, rec.MinRent, rec.MaxRent)
		for _, line := range rec.Reasoning {
			fmt.Fprintf(out, "    · %s\n", line)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "\033[1;33m  Speculative Listings\033[0m\n")
	fmt.Fprintf(out, "  %s\n", thin)
	if len(r.Speculative) == 0 {
		fmt.Fprintf(out, "  None, every asking rent is within its ethical range\n")
	} else {
		for i, pp := range r.Speculative {
			fmt.Fprintf(out, "  \033[1m%d.\033[0m %-34s asks $%-8.0f max $%-6d \033[1;31m+$%.0f\033[0m\n",
				i+1, truncate(displayName(pp.Record), 32), *pp.Record.AskingRent,
				pp.Recommendation.MaxRent, pp.Excess)
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "\033[1;33m  Warnings\033[0m\n")
	fmt.Fprintf(out, "  %s\n", thin)
	printCounts(out, r.WarningCounts, "  No warnings raised")
	fmt.Fprintln(out)

	fmt.Fprintf(out, "\033[1;33m  Properties by City\033[0m\n")
	fmt.Fprintf(out, "  %s\n", thin)
	printCounts(out, r.PropertiesByCity, "  No location data")

	fmt.Fprintf(out, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// printCounts renders a histogram sorted by count, then name.
func printCounts(out io.Writer, counts map[string]int, empty string) {
	if len(counts) == 0 {
		fmt.Fprintln(out, empty)
		return
	}
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, n := range counts {
		entries = append(entries, entry{name, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	for _, e := range entries {
		fmt.Fprintf(out, "  %-30s %s (%d)\n", truncate(e.name, 28), strings.Repeat("█", e.count), e.count)
	}
}

func displayName(rec *models.PropertyRecord) string {
	if rec.Title != "" {
		return rec.Title
	}
	return rec.ID
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
