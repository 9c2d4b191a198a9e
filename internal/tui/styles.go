package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/tariffdesk/internal/grid"
	"github.com/jask/tariffdesk/internal/tariff"
)

const (
	labelWidth = 24
	cellWidth  = 11
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	currentHeader  = headerStyle.Underline(true).Foreground(lipgloss.Color("81"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	bannerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("124")).Padding(0, 1)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okToast        = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errToast       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	modalStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("214")).Padding(0, 2)
	detailStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)

	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Strikethrough(true)
	currentCell   = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
)

// cellStyle composes the lipgloss style for one grid cell.
func cellStyle(st grid.CellStyle, selected bool) lipgloss.Style {
	s := lipgloss.NewStyle()
	if st.CurrentMonth {
		s = currentCell
	}
	switch st.Status {
	case tariff.StatusAdded:
		s = s.Inherit(addedStyle)
	case tariff.StatusModified:
		s = s.Inherit(modifiedStyle)
	case tariff.StatusRemoved:
		s = s.Inherit(removedStyle)
	}
	if st.Formula {
		s = s.Italic(true)
	}
	if selected {
		s = s.Inherit(cursorStyle)
	}
	return s
}
