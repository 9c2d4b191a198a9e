package grid

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jask/tariffdesk/internal/tariff"
)

// Recomputed is one formula cell re-evaluated by the engine.
type Recomputed struct {
	Row   int
	Col   int
	Value tariff.Value
}

// FormulaEngine is the evaluation capability the adapter depends on.
type FormulaEngine interface {
	// Load replaces the whole sheet without notifying recompute listeners.
	Load(rows [][]Cell) error
	// Set writes one cell. It does not evaluate.
	Set(row, col int, c Cell) error
	// FormulaAt returns the live formula text ("=...") at a cell.
	FormulaAt(row, col int) (string, bool)
	// Recalculate evaluates formulas and notifies listeners with every
	// formula cell whose value changed since the last evaluation.
	Recalculate() ([]Recomputed, error)
	OnRecompute(fn func([]Recomputed))
	Close() error
}

type coord struct{ row, col int }

// ExcelEngine evaluates formulas with excelize's calculation engine on a
// single in-memory sheet.
type ExcelEngine struct {
	f         *excelize.File
	sheet     string
	formulas  map[coord]struct{}
	last      map[coord]tariff.Value
	listeners []func([]Recomputed)
}

// NewExcelEngine returns an engine over an empty workbook.
func NewExcelEngine() *ExcelEngine {
	f := excelize.NewFile()
	return &ExcelEngine{
		f:        f,
		sheet:    f.GetSheetName(0),
		formulas: make(map[coord]struct{}),
		last:     make(map[coord]tariff.Value),
	}
}

func (e *ExcelEngine) OnRecompute(fn func([]Recomputed)) {
	e.listeners = append(e.listeners, fn)
}

func (e *ExcelEngine) Load(rows [][]Cell) error {
	if err := e.f.Close(); err != nil {
		return fmt.Errorf("grid: close workbook: %w", err)
	}
	e.f = excelize.NewFile()
	e.sheet = e.f.GetSheetName(0)
	e.formulas = make(map[coord]struct{})
	e.last = make(map[coord]tariff.Value)

	for r, row := range rows {
		for c, cell := range row {
			if cell.Kind == CellEmpty {
				continue
			}
			if err := e.Set(r, c, cell); err != nil {
				return err
			}
		}
	}
	// prime evaluated values so the next recalculation reports only changes
	_, err := e.evaluate()
	return err
}

func (e *ExcelEngine) Set(row, col int, c Cell) error {
	addr := Address(row, col)
	if addr == "" {
		return fmt.Errorf("grid: invalid coordinate %d,%d", row, col)
	}
	key := coord{row, col}
	if c.Kind != CellFormula {
		delete(e.formulas, key)
		delete(e.last, key)
		if err := e.f.SetCellFormula(e.sheet, addr, ""); err != nil {
			return fmt.Errorf("grid: clear formula %s: %w", addr, err)
		}
	}
	var err error
	switch c.Kind {
	case CellNumber:
		err = e.f.SetCellValue(e.sheet, addr, c.Number)
	case CellLabel:
		err = e.f.SetCellStr(e.sheet, addr, c.Text)
	case CellFormula:
		e.formulas[key] = struct{}{}
		err = e.f.SetCellFormula(e.sheet, addr, strings.TrimPrefix(c.Formula, "="))
	default:
		err = e.f.SetCellValue(e.sheet, addr, nil)
	}
	if err != nil {
		return fmt.Errorf("grid: set %s: %w", addr, err)
	}
	return nil
}

func (e *ExcelEngine) FormulaAt(row, col int) (string, bool) {
	if _, ok := e.formulas[coord{row, col}]; !ok {
		return "", false
	}
	formula, err := e.f.GetCellFormula(e.sheet, Address(row, col))
	if err != nil || strings.TrimSpace(formula) == "" {
		return "", false
	}
	return "=" + strings.TrimPrefix(strings.TrimSpace(formula), "="), true
}

func (e *ExcelEngine) Recalculate() ([]Recomputed, error) {
	changed, err := e.evaluate()
	if err != nil {
		return nil, err
	}
	if len(changed) > 0 {
		for _, fn := range e.listeners {
			fn(changed)
		}
	}
	return changed, nil
}

func (e *ExcelEngine) evaluate() ([]Recomputed, error) {
	keys := make([]coord, 0, len(e.formulas))
	for k := range e.formulas {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].row != keys[j].row {
			return keys[i].row < keys[j].row
		}
		return keys[i].col < keys[j].col
	})

	var changed []Recomputed
	for _, k := range keys {
		v := e.calc(k)
		prev, seen := e.last[k]
		e.last[k] = v
		if seen && prev.Equal(v) {
			continue
		}
		changed = append(changed, Recomputed{Row: k.row, Col: k.col, Value: v})
	}
	return changed, nil
}

// calc evaluates one formula cell; errors and non-numeric results are null.
func (e *ExcelEngine) calc(k coord) tariff.Value {
	raw, err := e.f.CalcCellValue(e.sheet, Address(k.row, k.col), excelize.Options{RawCellValue: true})
	if err != nil {
		return tariff.Null()
	}
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return tariff.Null()
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return tariff.Null()
	}
	return tariff.Num(n)
}

func (e *ExcelEngine) Close() error {
	return e.f.Close()
}
