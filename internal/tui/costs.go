package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/tariffdesk/internal/api"
	"github.com/jask/tariffdesk/internal/costs"
	"github.com/jask/tariffdesk/internal/export"
	"github.com/jask/tariffdesk/internal/log"
)

const costCellWidth = 9

type costState struct {
	summaries []costs.Summary
	gen       int
	loading   bool
	loaded    bool
	err       string

	row      int
	month    int // 1..12
	expanded map[string]bool
}

type costsLoadedMsg struct {
	gen      int
	projects []api.ProjectCost
	err      error
}

type exportedMsg struct {
	path string
	err  error
}

type prefsSavedMsg struct{ err error }

func (a *App) loadCosts() tea.Cmd {
	c := &a.costs
	c.gen++
	c.loading = true
	gen, ctx, client := c.gen, a.ctx, a.client
	return tea.Batch(a.spinner.Tick, func() tea.Msg {
		projects, err := client.FetchCosts(ctx)
		return costsLoadedMsg{gen: gen, projects: projects, err: err}
	})
}

func (a *App) handleCostsLoaded(m costsLoadedMsg) tea.Cmd {
	c := &a.costs
	if m.gen != c.gen {
		return nil
	}
	c.loading = false
	if m.err != nil {
		a.logger.Error("load costs", log.FieldError, m.err)
		c.err = "No pudimos obtener los costos: " + m.err.Error()
		return nil
	}
	c.err = ""
	c.loaded = true
	c.summaries = costs.Summarize(m.projects)
	if c.row >= len(c.summaries) {
		c.row = max(len(c.summaries)-1, 0)
	}
	a.logger.Debug("costs loaded", log.FieldProjects, len(c.summaries))
	return nil
}

func (a *App) handleCostsKey(m tea.KeyMsg) tea.Cmd {
	c := &a.costs
	switch {
	case key.Matches(m, a.keys.Reload):
		if c.loading {
			return nil
		}
		return a.loadCosts()
	case key.Matches(m, a.keys.Export):
		return a.exportCosts()
	case key.Matches(m, a.keys.Up):
		if c.row > 0 {
			c.row--
		}
	case key.Matches(m, a.keys.Down):
		if c.row < len(c.summaries)-1 {
			c.row++
		}
	case key.Matches(m, a.keys.Left):
		if c.month > 1 {
			c.month--
		}
	case key.Matches(m, a.keys.Right):
		if c.month < 12 {
			c.month++
		}
	case key.Matches(m, a.keys.Toggle):
		return a.toggleProject()
	}
	return nil
}

// toggleProject expands or collapses the selected project and persists the
// set in the background.
func (a *App) toggleProject() tea.Cmd {
	c := &a.costs
	if c.row >= len(c.summaries) {
		return nil
	}
	id := c.summaries[c.row].Project.ProjectID
	if c.expanded[id] {
		delete(c.expanded, id)
	} else {
		c.expanded[id] = true
	}
	snapshot := make(map[string]bool, len(c.expanded))
	for k, v := range c.expanded {
		snapshot[k] = v
	}
	save := a.saveExpanded
	return func() tea.Msg { return prefsSavedMsg{err: save(snapshot)} }
}

func (a *App) exportCosts() tea.Cmd {
	c := &a.costs
	if !c.loaded || len(c.summaries) == 0 {
		return a.notify("No hay costos para exportar", false)
	}
	path := filepath.Join(a.exportDir, fmt.Sprintf("reporte-costos-%s.xlsx", a.now().Format("2006-01-02")))
	summaries := c.summaries
	logger := a.logger
	return func() tea.Msg {
		err := export.WriteCostReport(path, summaries)
		if err == nil {
			logger.Info("cost report exported", log.FieldOperation, log.OpExport, log.FieldPath, path)
		}
		return exportedMsg{path: path, err: err}
	}
}

func (a *App) renderCosts() string {
	c := &a.costs
	var b strings.Builder
	b.WriteString(titleStyle.Render("Costos por proyecto"))
	b.WriteString("\n")

	switch {
	case c.err != "":
		b.WriteString(bannerStyle.Render(oneLine(c.err)))
	case c.loading:
		b.WriteString(a.spinner.View() + " Cargando costos...")
	}
	b.WriteString("\n")

	if !c.loaded {
		return b.String()
	}
	if len(c.summaries) == 0 {
		b.WriteString(mutedStyle.Render("No hay costos registrados para mostrar."))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("%-*s", labelWidth, "Proyecto"))
	for _, m := range costs.MonthLabels {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%*s", costCellWidth, m)))
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%*s", costCellWidth+3, "Total")))
	b.WriteString("\n")

	for i, s := range c.summaries {
		marker := "▸ "
		if c.expanded[s.Project.ProjectID] {
			marker = "▾ "
		}
		name := truncate(s.Project.ProjectName, labelWidth-len([]rune(marker))-1)
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelWidth, marker+name)))
		for month := 1; month <= 12; month++ {
			text := fmt.Sprintf("%*s", costCellWidth, s.Cell(month))
			style := mutedStyle
			switch {
			case s.Cell(month) == "!":
				style = warnStyle
			case s.HasDetail(month):
				style = labelStyle
			}
			if i == c.row && month == c.month {
				style = style.Inherit(cursorStyle)
			}
			b.WriteString(style.Render(text))
		}
		b.WriteString(headerStyle.Render(fmt.Sprintf("%*s", costCellWidth+3, costs.Compact(s.Total))))
		b.WriteString("\n")
		if c.expanded[s.Project.ProjectID] {
			b.WriteString(renderBreakdown(s))
		}
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Total general: %s", costs.Currency(a.cfg.UI.CurrencySymbol, costs.GrandTotal(c.summaries))))
	if missing := costs.MissingRoles(c.summaries); len(missing) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("Roles sin tarifa: " + strings.Join(missing, ", ")))
	}

	if c.row < len(c.summaries) {
		s := c.summaries[c.row]
		if s.HasDetail(c.month) {
			b.WriteString("\n")
			b.WriteString(detailStyle.Render(strings.Join(s.Detail(c.month, a.cfg.UI.CurrencySymbol), "\n")))
		}
	}
	return b.String()
}

func renderBreakdown(s costs.Summary) string {
	rows := s.Breakdown()
	if len(rows) == 0 {
		return mutedStyle.Render("    sin recursos") + "\n"
	}
	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("    %-8s %-20s %-14s %-10s %8s %12s %12s",
		"Período", "Recurso", "Rol", "Seniority", "Horas", "Tarifa", "Costo")))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("    %-8s %-20s %-14s %-10s %8s %12s %12s",
			r.Period, truncate(r.Resource, 20), truncate(r.Role, 14), truncate(r.Seniority, 10), r.Hours, r.Rate, r.Cost))
		b.WriteString("\n")
	}
	return b.String()
}
