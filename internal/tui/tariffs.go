package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/tariffdesk/internal/api"
	"github.com/jask/tariffdesk/internal/costs"
	"github.com/jask/tariffdesk/internal/grid"
	"github.com/jask/tariffdesk/internal/log"
	"github.com/jask/tariffdesk/internal/tariff"
)

// Screen rows above the grid: tabs, title, banner, then the header row.
const (
	gridHeaderY = 3
	gridFirstY  = gridHeaderY + 1
)

// tariffState is the tariff page. It owns the editing session; the grid
// adapter writes into it through apply.
type tariffState struct {
	locale    string
	current   string
	newEngine func() grid.FormulaEngine

	session *tariff.Session
	engine  grid.FormulaEngine
	grid    *grid.Adapter

	year    int // requested; equals session.Year once loaded
	gen     int
	loading bool
	loaded  bool
	saving  bool
	loadErr string

	row       int
	col       int // 1..len(periods)
	rowOffset int
	colOffset int

	input textinput.Model
}

type yearLoadedMsg struct {
	gen  int
	year int
	data []tariff.YearData
	err  error
}

type savedMsg struct {
	gen     int
	updates []tariff.Update
	err     error
}

func newTariffState(year int, locale, current string, newEngine func() grid.FormulaEngine) tariffState {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 256
	return tariffState{
		locale:    locale,
		current:   current,
		newEngine: newEngine,
		session:   tariff.NewSession(year, locale),
		year:      year,
		col:       1,
		input:     input,
	}
}

func (t *tariffState) editing() bool {
	if t.grid == nil {
		return false
	}
	_, ok := t.grid.Editing()
	return ok
}

func (t *tariffState) apply(c grid.Change) {
	t.session.Apply(c.RoleID, c.PeriodID, c.Value)
}

// sync pushes the session into the grid. fresh drops the engine along with
// any formulas, which is what a year switch needs.
func (t *tariffState) sync(fresh bool) error {
	if fresh || t.grid == nil {
		if t.engine != nil {
			_ = t.engine.Close()
		}
		t.engine = t.newEngine()
		t.grid = grid.NewAdapter(t.engine, t.apply,
			grid.WithStatus(t.session.Status),
			grid.WithCurrentPeriod(t.current),
		)
	}
	rows := make([]grid.Row, len(t.session.Roles))
	for i, r := range t.session.Roles {
		rows[i] = grid.Row{RoleID: r.ID, Label: r.Label()}
	}
	return t.grid.Reload(rows, t.session.Periods, t.session.Values)
}

func (t *tariffState) clampCursor() {
	if n := len(t.session.Roles); t.row >= n {
		t.row = n - 1
	}
	if t.row < 0 {
		t.row = 0
	}
	if n := len(t.session.Periods); t.col > n {
		t.col = n
	}
	if t.col < 1 {
		t.col = 1
	}
}

// loadYear starts a fresh three-year fetch. Older in-flight loads are
// superseded through the generation counter.
func (a *App) loadYear(year int) tea.Cmd {
	t := &a.tariffs
	t.gen++
	t.year = year
	t.loading = true
	a.logger.Debug("load tariffs", log.FieldYear, year, log.FieldGeneration, t.gen)
	return tea.Batch(a.spinner.Tick, a.fetchYear(year, t.gen))
}

func (a *App) fetchYear(year, gen int) tea.Cmd {
	ctx, client := a.ctx, a.client
	return func() tea.Msg {
		data, err := client.FetchWindow(ctx, year)
		return yearLoadedMsg{gen: gen, year: year, data: data, err: err}
	}
}

func (a *App) handleYearLoaded(m yearLoadedMsg) tea.Cmd {
	t := &a.tariffs
	if m.gen != t.gen {
		a.logger.Debug("drop stale tariff load", log.FieldYear, m.year, log.FieldGeneration, m.gen)
		return nil
	}
	t.loading = false
	if m.err != nil {
		a.logger.Error("load tariffs", log.FieldYear, m.year, log.FieldError, m.err)
		t.loadErr = fmt.Sprintf("No pudimos cargar las tarifas de %d: %v", m.year, m.err)
		if t.loaded {
			t.year = t.session.Year
		}
		return nil
	}

	periods := tariff.BuildPeriods(m.year, t.locale)
	rec := tariff.Reconcile(periods, t.locale, m.data...)
	fresh := !t.loaded || t.session.Year != m.year
	if fresh {
		t.rowOffset, t.colOffset = 0, 0
	}
	t.session.Replace(m.year, periods, rec)
	t.loaded = true
	t.loadErr = ""
	if err := t.sync(fresh); err != nil {
		a.logger.Error("sync grid", log.FieldYear, m.year, log.FieldError, err)
		t.loadErr = "No pudimos preparar la grilla: " + err.Error()
	}
	t.clampCursor()
	return nil
}

// requestYear switches the window, asking first when edits would be lost.
// Nothing happens while a save is in flight.
func (a *App) requestYear(year int) tea.Cmd {
	if a.tariffs.saving {
		return nil
	}
	if !a.tariffs.session.HasChanges() {
		return a.loadYear(year)
	}
	a.ask(fmt.Sprintf("Hay cambios sin guardar. ¿Descartarlos y cargar %d?", year), func() tea.Cmd {
		if a.tariffs.saving {
			return nil
		}
		return a.loadYear(year)
	})
	return nil
}

// saveTariffs sends the compacted dirty map as one bulk request.
func (a *App) saveTariffs() tea.Cmd {
	t := &a.tariffs
	if t.saving || t.loading {
		return nil
	}
	if t.editing() {
		if err := t.grid.CommitEdit(); err != nil {
			return a.notify("No se pudo aplicar la celda: "+err.Error(), true)
		}
		t.input.Blur()
	}
	updates := t.session.Pending()
	if len(updates) == 0 {
		return a.notify("No hay cambios para guardar", false)
	}
	t.saving = true
	items := api.BulkFromUpdates(updates)
	ctx, client, gen := a.ctx, a.client, t.gen
	a.logger.Info("save tariffs", log.FieldOperation, log.OpBulk, log.FieldUpdates, len(items))
	return func() tea.Msg {
		return savedMsg{gen: gen, updates: updates, err: client.BulkUpdate(ctx, items)}
	}
}

func (a *App) handleSaved(m savedMsg) tea.Cmd {
	t := &a.tariffs
	t.saving = false
	if m.err != nil {
		a.logger.Error("save tariffs", log.FieldOperation, log.OpBulk, log.FieldError, m.err)
		return a.notify("No se pudieron guardar los cambios: "+m.err.Error(), true)
	}
	if m.gen != t.gen {
		// a newer window replaced the session the updates were taken from
		a.logger.Warn("skip commit for replaced window", log.FieldGeneration, m.gen)
		return a.notify("Cambios guardados", false)
	}
	t.session.Commit(m.updates)
	return a.notify("Cambios guardados", false)
}

func (a *App) handleTariffsKey(m tea.KeyMsg) tea.Cmd {
	t := &a.tariffs
	if t.editing() {
		return a.handleEditorKey(m)
	}
	switch {
	case key.Matches(m, a.keys.Save):
		return a.saveTariffs()
	case key.Matches(m, a.keys.PrevYear):
		return a.requestYear(t.year - 1)
	case key.Matches(m, a.keys.NextYear):
		return a.requestYear(t.year + 1)
	case key.Matches(m, a.keys.Reload):
		return a.requestYear(t.year)
	case key.Matches(m, a.keys.Jump):
		if len(t.session.Roles) == 0 {
			return nil
		}
		a.modal = modalJump
		return a.jump.Focus()
	case key.Matches(m, a.keys.Up):
		t.row--
	case key.Matches(m, a.keys.Down):
		t.row++
	case key.Matches(m, a.keys.Left):
		t.col--
	case key.Matches(m, a.keys.Right):
		t.col++
	case key.Matches(m, a.keys.Edit):
		return a.beginEdit("")
	case key.Matches(m, a.keys.Clear):
		if t.saving {
			return nil
		}
		if err := t.grid.Edit(t.row, t.col, ""); err != nil {
			return a.notify("No se pudo borrar la celda: "+err.Error(), true)
		}
	default:
		if m.Type == tea.KeyRunes && len(m.Runes) == 1 && startsEdit(m.Runes[0]) {
			return a.beginEdit(string(m.Runes))
		}
	}
	t.clampCursor()
	return nil
}

func startsEdit(r rune) bool {
	return unicode.IsDigit(r) || r == '=' || r == '.' || r == '-'
}

// beginEdit opens the cell editor. A non-empty seed replaces the content,
// as typing over a selected cell does.
func (a *App) beginEdit(seed string) tea.Cmd {
	t := &a.tariffs
	if t.saving || t.loading {
		return nil
	}
	ed, ok := t.grid.BeginEdit(t.row, t.col)
	if !ok {
		return nil
	}
	text := ed.Text
	if seed != "" {
		text = seed
		t.grid.SetEditorText(text)
	}
	t.input.SetValue(text)
	t.input.CursorEnd()
	return t.input.Focus()
}

func (a *App) handleEditorKey(m tea.KeyMsg) tea.Cmd {
	t := &a.tariffs
	switch m.String() {
	case "esc":
		t.grid.CancelEdit()
		t.input.Blur()
		return nil
	case "enter", "tab":
		err := t.grid.CommitEdit()
		t.input.Blur()
		if err != nil {
			return a.notify("No se pudo aplicar la celda: "+err.Error(), true)
		}
		if m.String() == "tab" {
			t.col++
		} else {
			t.row++
		}
		t.clampCursor()
		return nil
	case "ctrl+s":
		return a.saveTariffs()
	}
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(m)
	t.grid.SetEditorText(t.input.Value())
	return cmd
}

// handleGridMouse maps a click to a cell. While a formula is being typed
// the click inserts the cell reference instead of moving the cursor.
func (a *App) handleGridMouse(m tea.MouseMsg) tea.Cmd {
	if m.Action != tea.MouseActionPress || m.Button != tea.MouseButtonLeft {
		return nil
	}
	t := &a.tariffs
	row, col, ok := a.cellAt(m.X, m.Y)
	if !ok {
		return nil
	}
	if t.editing() {
		if t.grid.ClickCell(row, col) {
			ed, _ := t.grid.Editing()
			t.input.SetValue(ed.Text)
			t.input.CursorEnd()
			return nil
		}
		if row < 0 {
			return nil
		}
		err := t.grid.CommitEdit()
		t.input.Blur()
		if err != nil {
			return a.notify("No se pudo aplicar la celda: "+err.Error(), true)
		}
	}
	if row < 0 || col < 1 {
		return nil
	}
	t.row, t.col = row, col
	t.clampCursor()
	return nil
}

// cellAt converts screen coordinates to a grid coordinate. Header clicks
// report row -1.
func (a *App) cellAt(x, y int) (row, col int, ok bool) {
	t := &a.tariffs
	if y < gridHeaderY || x < 0 {
		return 0, 0, false
	}
	row = -1
	if y >= gridFirstY {
		row = t.rowOffset + y - gridFirstY
		if row >= len(t.session.Roles) {
			return 0, 0, false
		}
	}
	if x < labelWidth {
		return row, 0, true
	}
	col = t.colOffset + (x-labelWidth)/cellWidth + 1
	if col > len(t.session.Periods) || col > t.colOffset+a.visibleCols() {
		return 0, 0, false
	}
	return row, col, true
}

func (a *App) visibleCols() int {
	n := len(a.tariffs.session.Periods)
	if a.width <= 0 {
		return n
	}
	v := (a.width - labelWidth) / cellWidth
	if v < 1 {
		v = 1
	}
	if v > n {
		v = n
	}
	return v
}

func (a *App) visibleRows() int {
	n := len(a.tariffs.session.Roles)
	if a.height <= 0 {
		return n
	}
	// tabs, title, banner, header, formula bar, toast, help
	v := a.height - 7
	if v < 1 {
		v = 1
	}
	if v > n {
		v = n
	}
	return v
}

func (a *App) scrollToCursor() {
	t := &a.tariffs
	cols, rows := a.visibleCols(), a.visibleRows()
	if t.col-1 < t.colOffset {
		t.colOffset = t.col - 1
	}
	if t.col-1 >= t.colOffset+cols {
		t.colOffset = t.col - cols
	}
	if t.row < t.rowOffset {
		t.rowOffset = t.row
	}
	if rows > 0 && t.row >= t.rowOffset+rows {
		t.rowOffset = t.row - rows + 1
	}
	if t.rowOffset < 0 {
		t.rowOffset = 0
	}
	if t.colOffset < 0 {
		t.colOffset = 0
	}
}

func (a *App) jumpToRole(query string) {
	t := &a.tariffs
	if idx := closestRole(query, t.session.Roles); idx >= 0 {
		t.row = idx
		t.clampCursor()
	}
}

// closestRole picks the role whose label best matches query: a substring
// match wins, otherwise the smallest edit distance to the label or any of
// its words. Returns -1 for an empty query.
func closestRole(query string, roles []tariff.Role) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return -1
	}
	best, bestDist := -1, 0
	for i, r := range roles {
		label := strings.ToLower(r.Label())
		if strings.Contains(label, q) {
			return i
		}
		dist := levenshtein.ComputeDistance(q, strings.ToLower(r.Name))
		for _, w := range strings.FieldsFunc(label, func(c rune) bool {
			return unicode.IsSpace(c) || c == '(' || c == ')'
		}) {
			if d := levenshtein.ComputeDistance(q, w); d < dist {
				dist = d
			}
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}

func (a *App) renderTariffs() string {
	t := &a.tariffs
	a.scrollToCursor()

	var b strings.Builder
	title := titleStyle.Render(fmt.Sprintf("Tarifas %d", t.year))
	if t.session.HasChanges() {
		title += warnStyle.Render("  • cambios sin guardar")
	}
	b.WriteString(title)
	b.WriteString("\n")

	switch {
	case t.loadErr != "":
		b.WriteString(bannerStyle.Render(oneLine(t.loadErr)))
	case t.loading:
		b.WriteString(a.spinner.View() + " Cargando tarifas...")
	case t.saving:
		b.WriteString(a.spinner.View() + " Guardando...")
	}
	b.WriteString("\n")

	cols := a.visibleCols()
	first, last := t.colOffset+1, t.colOffset+cols
	headers := t.grid.Headers()

	b.WriteString(fmt.Sprintf("%-*s", labelWidth, "Rol"))
	for c := first; c <= last && c <= len(headers); c++ {
		h := headers[c-1]
		text := fmt.Sprintf("%*s ", cellWidth-1, truncate(h.Label, cellWidth-1))
		if h.Current {
			b.WriteString(currentHeader.Render(text))
		} else {
			b.WriteString(headerStyle.Render(text))
		}
	}
	b.WriteString("\n")

	if len(t.session.Roles) == 0 && t.loaded {
		b.WriteString(mutedStyle.Render("No hay roles para mostrar."))
		b.WriteString("\n")
	}
	rows := a.visibleRows()
	for r := t.rowOffset; r < t.rowOffset+rows && r < len(t.session.Roles); r++ {
		label := t.grid.CellAt(r, 0).Text
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-*s", labelWidth, truncate(label, labelWidth-1))))
		for c := first; c <= last && c <= len(t.session.Periods); c++ {
			text := fmt.Sprintf("%*s ", cellWidth-1, truncate(a.cellText(r, c), cellWidth-1))
			selected := r == t.row && c == t.col
			b.WriteString(cellStyle(t.grid.Style(r, c), selected).Render(text))
		}
		b.WriteString("\n")
	}

	b.WriteString(a.formulaBar())
	return b.String()
}

// cellText is the displayed value. Formula cells show their computed value
// as held by the session.
func (a *App) cellText(row, col int) string {
	t := &a.tariffs
	roleID, periodID, ok := t.grid.Key(row, col)
	if !ok {
		return ""
	}
	v := t.session.Values.Get(roleID, periodID)
	if v.IsNull() {
		return ""
	}
	return costs.Amount(v.Amount)
}

func (a *App) formulaBar() string {
	t := &a.tariffs
	if ed, ok := t.grid.Editing(); ok {
		return grid.Address(ed.Row, ed.Col) + " " + t.input.View()
	}
	if len(t.session.Roles) == 0 {
		return ""
	}
	raw := t.grid.CellAt(t.row, t.col).Raw()
	return mutedStyle.Render(grid.Address(t.row, t.col) + " " + raw)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
