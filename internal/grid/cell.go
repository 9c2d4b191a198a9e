// Package grid binds the tariff table to an editable, formula-aware grid.
//
// Coordinates are (row, col) with col 0 being the read-only role label
// column and cols 1..N the period columns. The same coordinates address the
// formula engine, so "B1" is the first period of the first role.
package grid

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jask/tariffdesk/internal/tariff"
)

// CellKind tags the content of a grid cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellFormula
	CellLabel
)

// Cell is the authoritative content of one grid position.
type Cell struct {
	Kind    CellKind
	Number  float64
	Formula string
	Text    string
}

func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

func NumberCell(v float64) Cell { return Cell{Kind: CellNumber, Number: v} }

func FormulaCell(text string) Cell {
	return Cell{Kind: CellFormula, Formula: normalizeFormula(text)}
}

func LabelCell(text string) Cell { return Cell{Kind: CellLabel, Text: text} }

// CellFromValue maps a stored value to a number or empty cell.
func CellFromValue(v tariff.Value) Cell {
	if v.IsNull() {
		return EmptyCell()
	}
	return NumberCell(v.Amount)
}

// ParseCell interprets raw editor input. Text starting with "=" is a
// formula; anything else is a number or, when not numeric, empty.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if IsFormula(s) {
		return FormulaCell(s)
	}
	return CellFromValue(tariff.ParseValue(s))
}

// IsFormula reports whether raw editor text is a formula.
func IsFormula(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "=")
}

// Value is the plain value of a non-formula cell.
func (c Cell) Value() tariff.Value {
	if c.Kind == CellNumber {
		return tariff.Num(c.Number)
	}
	return tariff.Null()
}

// Raw is the editor representation of the cell.
func (c Cell) Raw() string {
	switch c.Kind {
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellFormula:
		return c.Formula
	case CellLabel:
		return c.Text
	default:
		return ""
	}
}

func normalizeFormula(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "=") {
		s = "=" + s
	}
	return s
}

// Address returns the spreadsheet address of a grid coordinate ("B3").
func Address(row, col int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return ""
	}
	return name
}
