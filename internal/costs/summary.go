// Package costs reshapes the project cost report for display.
package costs

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jask/tariffdesk/internal/api"
)

// Summary is one project indexed by month (1..12).
type Summary struct {
	Project api.ProjectCost
	ByMonth map[int]float64
	Records map[int]api.MonthlyCost
	Total   float64
}

// Summarize builds the month lookups and totals for every project. The
// input is not modified.
func Summarize(projects []api.ProjectCost) []Summary {
	out := make([]Summary, 0, len(projects))
	for _, p := range projects {
		s := Summary{
			Project: p,
			ByMonth: make(map[int]float64, len(p.Months)),
			Records: make(map[int]api.MonthlyCost, len(p.Months)),
		}
		for _, m := range p.Months {
			s.ByMonth[m.Month] = m.TotalCost
			s.Records[m.Month] = m
			s.Total += m.TotalCost
		}
		out = append(out, s)
	}
	return out
}

// Record returns the month record, if any.
func (s Summary) Record(month int) (api.MonthlyCost, bool) {
	m, ok := s.Records[month]
	return m, ok
}

// Warnings lists the roles lacking a tariff in month.
func (s Summary) Warnings(month int) []string {
	return s.Records[month].RolesMissingTariff
}

// Cell is the short month cell text: the compact amount when non-zero, "!"
// when the month is zero but has roles without tariff, "-" otherwise.
func (s Summary) Cell(month int) string {
	if amount := s.ByMonth[month]; amount != 0 {
		return Compact(amount)
	}
	if len(s.Warnings(month)) > 0 {
		return "!"
	}
	return "-"
}

// HasDetail reports whether the month cell opens a detail disclosure.
func (s Summary) HasDetail(month int) bool {
	return s.ByMonth[month] != 0 || len(s.Warnings(month)) > 0
}

// Detail renders the disclosure lines for one month.
func (s Summary) Detail(month int, currencySymbol string) []string {
	m, ok := s.Records[month]
	if !ok {
		return nil
	}
	lines := []string{
		fmt.Sprintf("%s %d", LongMonth(m.Month), m.Year),
		fmt.Sprintf("Horas: %.1f", m.TotalHours),
		Currency(currencySymbol, m.TotalCost),
	}
	if len(m.RolesMissingTariff) > 0 {
		lines = append(lines, "Roles sin tarifa: "+strings.Join(m.RolesMissingTariff, ", "))
	}
	for _, r := range m.Resources {
		rate := math.Trunc(r.HourlyRate)
		rateText := Compact(rate)
		if rate == 0 {
			rateText = "!?"
		}
		lines = append(lines, fmt.Sprintf("%s: %.1fh x %s = %s", r.Name, r.Hours, rateText, Compact(math.Trunc(r.Cost))))
	}
	return lines
}

// BreakdownRow is one resource line of an expanded project.
type BreakdownRow struct {
	Period    string
	Resource  string
	Role      string
	Seniority string
	Hours     string
	Rate      string
	Cost      string
}

// Breakdown lists every resource line of the project in record order.
func (s Summary) Breakdown() []BreakdownRow {
	var out []BreakdownRow
	for _, m := range s.Project.Months {
		for _, r := range m.Resources {
			out = append(out, BreakdownRow{
				Period:    fmt.Sprintf("%02d/%d", m.Month, m.Year),
				Resource:  r.Name,
				Role:      r.Role,
				Seniority: r.Seniority,
				Hours:     fmt.Sprintf("%.1f", r.Hours),
				Rate:      Amount(r.HourlyRate),
				Cost:      Amount(r.Cost),
			})
		}
	}
	return out
}

// GrandTotal sums every project total.
func GrandTotal(summaries []Summary) float64 {
	var total float64
	for _, s := range summaries {
		total += s.Total
	}
	return total
}

// MissingRoles collects the distinct roles without tariff across a report.
func MissingRoles(summaries []Summary) []string {
	seen := map[string]struct{}{}
	for _, s := range summaries {
		for _, m := range s.Project.Months {
			for _, r := range m.RolesMissingTariff {
				seen[r] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
