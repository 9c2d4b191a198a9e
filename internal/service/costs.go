package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/jask/tariffdesk/internal/api"
	"github.com/jask/tariffdesk/internal/database/repository"
)

// CostService computes the project cost report: cost = hours x the role's
// tariff for the month.
type CostService struct {
	DB *sql.DB
}

type periodKey struct{ year, month int }

// Report returns every project with its months in chronological order.
// Resources whose role has no tariff cost zero and their role is listed in
// RolesMissingTariff.
func (s *CostService) Report(ctx context.Context) ([]api.ProjectCost, error) {
	projects, err := repository.NewProjectRepo(s.DB).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	lines, err := repository.NewTimesheetRepo(s.DB).CostLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("cost lines: %w", err)
	}

	months := make(map[string]map[periodKey]*api.MonthlyCost)
	missing := make(map[string]map[periodKey]map[string]struct{})
	for _, l := range lines {
		if months[l.ProjectID] == nil {
			months[l.ProjectID] = make(map[periodKey]*api.MonthlyCost)
			missing[l.ProjectID] = make(map[periodKey]map[string]struct{})
		}
		k := periodKey{l.Year, l.Month}
		m := months[l.ProjectID][k]
		if m == nil {
			m = &api.MonthlyCost{Year: l.Year, Month: l.Month, Resources: []api.CostResource{}}
			months[l.ProjectID][k] = m
		}
		var rate float64
		if l.HourlyRate != nil {
			rate = *l.HourlyRate
		} else {
			if missing[l.ProjectID][k] == nil {
				missing[l.ProjectID][k] = make(map[string]struct{})
			}
			missing[l.ProjectID][k][l.RoleName] = struct{}{}
		}
		cost := l.Hours * rate
		m.Resources = append(m.Resources, api.CostResource{
			ResourceID: l.ResourceID,
			Name:       l.ResourceName,
			Role:       l.RoleName,
			Seniority:  l.Seniority,
			Hours:      l.Hours,
			HourlyRate: rate,
			Cost:       cost,
		})
		m.TotalHours += l.Hours
		m.TotalCost += cost
	}

	out := make([]api.ProjectCost, 0, len(projects))
	for _, p := range projects {
		pc := api.ProjectCost{ProjectID: p.ID, ProjectName: p.Name, Months: []api.MonthlyCost{}}
		keys := make([]periodKey, 0, len(months[p.ID]))
		for k := range months[p.ID] {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].year != keys[j].year {
				return keys[i].year < keys[j].year
			}
			return keys[i].month < keys[j].month
		})
		for _, k := range keys {
			m := *months[p.ID][k]
			if roles := missing[p.ID][k]; len(roles) > 0 {
				for r := range roles {
					m.RolesMissingTariff = append(m.RolesMissingTariff, r)
				}
				sort.Strings(m.RolesMissingTariff)
			}
			pc.Months = append(pc.Months, m)
		}
		out = append(out, pc)
	}
	return out, nil
}
