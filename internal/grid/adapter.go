package grid

import (
	"strings"

	"github.com/jask/tariffdesk/internal/tariff"
)

// Change is a value propagated from the grid into the session.
type Change struct {
	RoleID   string
	PeriodID string
	Value    tariff.Value
}

// Row is one role line of the grid.
type Row struct {
	RoleID string
	Label  string
}

// Editor is the open in-cell editor.
type Editor struct {
	Row   int
	Col   int
	Text  string
	Caret int
}

// Header is a period column header.
type Header struct {
	Label   string
	Current bool
}

// CellStyle carries the per-cell rendering metadata.
type CellStyle struct {
	ReadOnly     bool
	CurrentMonth bool
	Formula      bool
	Status       tariff.Status
}

type cellKey struct{ roleID, periodID string }

// Adapter owns the grid content (numbers and formulas) for one year and
// forwards value changes to the session through the change callback.
type Adapter struct {
	engine   FormulaEngine
	onChange func(Change)
	status   func(roleID, periodID string) tariff.Status

	rows    []Row
	periods []tariff.Period
	cells   [][]Cell // rows x periods, no label column
	current string

	editor  *Editor
	syncing bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithStatus installs the dirty-state lookup used by Style.
func WithStatus(fn func(roleID, periodID string) tariff.Status) Option {
	return func(a *Adapter) { a.status = fn }
}

// WithCurrentPeriod marks the period id to highlight as today's month.
func WithCurrentPeriod(periodID string) Option {
	return func(a *Adapter) { a.current = periodID }
}

// NewAdapter wires the adapter to engine and registers for recomputes.
func NewAdapter(engine FormulaEngine, onChange func(Change), opts ...Option) *Adapter {
	a := &Adapter{engine: engine, onChange: onChange}
	for _, opt := range opts {
		opt(a)
	}
	engine.OnRecompute(a.afterRecompute)
	return a
}

// Reload installs a new row set. Formulas already entered for a role and
// period are kept; other cells take the supplied values. Engine callbacks
// fired during the load are ignored.
func (a *Adapter) Reload(rows []Row, periods []tariff.Period, values tariff.Table) error {
	kept := make(map[cellKey]Cell)
	for r, row := range a.rows {
		for c, p := range a.periods {
			if cell := a.cells[r][c]; cell.Kind == CellFormula {
				kept[cellKey{row.RoleID, p.ID}] = cell
			}
		}
	}

	a.rows = rows
	a.periods = periods
	a.cells = make([][]Cell, len(rows))
	for r, row := range rows {
		a.cells[r] = make([]Cell, len(periods))
		for c, p := range periods {
			if f, ok := kept[cellKey{row.RoleID, p.ID}]; ok {
				a.cells[r][c] = f
				continue
			}
			a.cells[r][c] = CellFromValue(values.Get(row.RoleID, p.ID))
		}
	}
	a.editor = nil

	a.syncing = true
	defer func() { a.syncing = false }()
	return a.engine.Load(a.Dataset())
}

// Dataset composes the grid content including the label column. Formula
// cells carry their formula text, the rest their values.
func (a *Adapter) Dataset() [][]Cell {
	out := make([][]Cell, len(a.rows))
	for r, row := range a.rows {
		line := make([]Cell, 0, len(a.periods)+1)
		line = append(line, LabelCell(row.Label))
		line = append(line, a.cells[r]...)
		out[r] = line
	}
	return out
}

func (a *Adapter) Rows() []Row { return a.rows }

func (a *Adapter) Periods() []tariff.Period { return a.periods }

// NumCols counts the label column plus the period columns.
func (a *Adapter) NumCols() int { return len(a.periods) + 1 }

// Editing returns the open editor, if any.
func (a *Adapter) Editing() (Editor, bool) {
	if a.editor == nil {
		return Editor{}, false
	}
	return *a.editor, true
}

// CellAt returns the content at a grid coordinate.
func (a *Adapter) CellAt(row, col int) Cell {
	if row < 0 || row >= len(a.rows) || col < 0 || col > len(a.periods) {
		return EmptyCell()
	}
	if col == 0 {
		return LabelCell(a.rows[row].Label)
	}
	return a.cells[row][col-1]
}

// Key maps a period cell to its role and period ids.
func (a *Adapter) Key(row, col int) (roleID, periodID string, ok bool) {
	if row < 0 || row >= len(a.rows) || col < 1 || col > len(a.periods) {
		return "", "", false
	}
	return a.rows[row].RoleID, a.periods[col-1].ID, true
}

// Edit applies raw user input to a cell, then lets the engine recompute.
// The label column is read-only.
func (a *Adapter) Edit(row, col int, raw string) error {
	if _, _, ok := a.Key(row, col); !ok {
		return nil
	}
	cell := ParseCell(raw)
	if err := a.engine.Set(row, col, cell); err != nil {
		return err
	}
	a.afterChange(row, col, cell)
	_, err := a.engine.Recalculate()
	return err
}

func (a *Adapter) afterChange(row, col int, cell Cell) {
	if a.syncing {
		return
	}
	roleID, periodID, ok := a.Key(row, col)
	if !ok {
		return
	}
	if f, ok := a.engine.FormulaAt(row, col); ok {
		a.cells[row][col-1] = FormulaCell(f)
		return
	}
	if cell.Kind == CellFormula {
		// pending formula; its value arrives with the next recompute
		a.cells[row][col-1] = cell
		return
	}
	a.cells[row][col-1] = cell
	a.emit(Change{RoleID: roleID, PeriodID: periodID, Value: cell.Value()})
}

func (a *Adapter) afterRecompute(changed []Recomputed) {
	if a.syncing {
		return
	}
	for _, rc := range changed {
		roleID, periodID, ok := a.Key(rc.Row, rc.Col)
		if !ok {
			continue
		}
		a.emit(Change{RoleID: roleID, PeriodID: periodID, Value: rc.Value})
	}
}

func (a *Adapter) emit(c Change) {
	if a.onChange != nil {
		a.onChange(c)
	}
}

// BeginEdit opens the editor on a period cell, seeded with the formula text
// when the cell holds one, and puts the caret at the end.
func (a *Adapter) BeginEdit(row, col int) (Editor, bool) {
	if _, _, ok := a.Key(row, col); !ok {
		return Editor{}, false
	}
	text := a.CellAt(row, col).Raw()
	if f, ok := a.engine.FormulaAt(row, col); ok {
		text = f
	}
	a.editor = &Editor{Row: row, Col: col, Text: text, Caret: len([]rune(text))}
	return *a.editor, true
}

// SetEditorText mirrors the editor contents typed by the user.
func (a *Adapter) SetEditorText(text string) {
	if a.editor == nil {
		return
	}
	a.editor.Text = text
	a.editor.Caret = len([]rune(text))
}

// ClickCell handles a click while editing. When the editor holds a formula
// the clicked cell's address is appended, the editor stays open and the
// click is consumed. Header clicks (negative coordinates), the label column
// and the cell being edited are ignored.
func (a *Adapter) ClickCell(row, col int) bool {
	if a.editor == nil || row < 0 || col < 1 {
		return false
	}
	if row == a.editor.Row && col == a.editor.Col {
		return false
	}
	if !strings.HasPrefix(strings.TrimSpace(a.editor.Text), "=") {
		return false
	}
	a.editor.Text += Address(row, col)
	a.editor.Caret = len([]rune(a.editor.Text))
	return true
}

// CommitEdit writes the editor text to its cell and closes the editor.
func (a *Adapter) CommitEdit() error {
	if a.editor == nil {
		return nil
	}
	ed := *a.editor
	a.editor = nil
	return a.Edit(ed.Row, ed.Col, ed.Text)
}

// CancelEdit closes the editor without writing.
func (a *Adapter) CancelEdit() { a.editor = nil }

// Headers returns the period column headers.
func (a *Adapter) Headers() []Header {
	out := make([]Header, len(a.periods))
	for i, p := range a.periods {
		out[i] = Header{Label: p.Label, Current: p.ID == a.current}
	}
	return out
}

// Style returns the rendering metadata for a cell.
func (a *Adapter) Style(row, col int) CellStyle {
	if col == 0 {
		return CellStyle{ReadOnly: true}
	}
	roleID, periodID, ok := a.Key(row, col)
	if !ok {
		return CellStyle{ReadOnly: true}
	}
	st := CellStyle{
		CurrentMonth: periodID == a.current,
		Formula:      a.cells[row][col-1].Kind == CellFormula,
	}
	if a.status != nil {
		st.Status = a.status(roleID, periodID)
	}
	return st
}
