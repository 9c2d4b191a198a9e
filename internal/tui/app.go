// Package tui is the terminal front end: a tariff grid page and a project
// cost page sharing one bubbletea program.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/tariffdesk/internal/api"
	"github.com/jask/tariffdesk/internal/config"
	"github.com/jask/tariffdesk/internal/grid"
	"github.com/jask/tariffdesk/internal/log"
	"github.com/jask/tariffdesk/internal/prefs"
	"github.com/jask/tariffdesk/internal/tariff"
)

// Client is the backend surface the UI needs.
type Client interface {
	FetchWindow(ctx context.Context, year int) ([]tariff.YearData, error)
	BulkUpdate(ctx context.Context, items []api.BulkItem) error
	FetchCosts(ctx context.Context) ([]api.ProjectCost, error)
}

// Options tunes an App. Zero values pick the defaults.
type Options struct {
	Year         int
	Now          func() time.Time
	Logger       *log.Logger
	Engine       func() grid.FormulaEngine
	ExportDir    string
	LoadExpanded func() (map[string]bool, error)
	SaveExpanded func(map[string]bool) error
}

// App ties together the pages.
type App struct {
	ctx    context.Context
	client Client
	cfg    config.Config
	logger *log.Logger
	now    func() time.Time

	page    page
	tariffs tariffState
	costs   costState

	modal     modalState
	confirm   string
	onConfirm func() tea.Cmd
	jump      textinput.Model

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	toast   toast
	toastIn time.Duration

	exportDir    string
	saveExpanded func(map[string]bool) error

	width  int
	height int
}

type page int

const (
	pageTariffs page = iota
	pageCosts
)

var pageTitles = []string{"Tarifas", "Costos"}

type modalState string

const (
	modalNone    modalState = ""
	modalConfirm modalState = "confirm"
	modalJump    modalState = "jump"
)

type toast struct {
	text string
	err  bool
	seq  int
}

// messages
type toastExpiredMsg struct{ seq int }

// New builds the app. Nothing is fetched until Init.
func New(ctx context.Context, cfg config.Config, client Client, opts Options) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Engine == nil {
		opts.Engine = func() grid.FormulaEngine { return grid.NewExcelEngine() }
	}
	if opts.LoadExpanded == nil {
		opts.LoadExpanded = prefs.LoadExpanded
	}
	if opts.SaveExpanded == nil {
		opts.SaveExpanded = prefs.SaveExpanded
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	now := opts.Now()
	if opts.Year == 0 {
		opts.Year = now.In(cfg.UI.Location()).Year()
	}
	toastIn := time.Duration(cfg.UI.ToastSeconds) * time.Second
	if toastIn <= 0 {
		toastIn = 2 * time.Second
	}

	jump := textinput.New()
	jump.Prompt = "Rol: "
	jump.CharLimit = 64

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	a := &App{
		ctx:          ctx,
		client:       client,
		cfg:          cfg,
		logger:       opts.Logger.WithComponent(log.ComponentTUI),
		now:          opts.Now,
		jump:         jump,
		keys:         newKeyMap(),
		help:         help.New(),
		spinner:      sp,
		toastIn:      toastIn,
		exportDir:    opts.ExportDir,
		saveExpanded: opts.SaveExpanded,
	}
	a.tariffs = newTariffState(opts.Year, cfg.UI.Locale, tariff.CurrentPeriodID(now, cfg.UI.Location()), opts.Engine)
	if err := a.tariffs.sync(true); err != nil {
		a.logger.Error("init grid", log.FieldError, err)
	}

	expanded, err := opts.LoadExpanded()
	if err != nil {
		a.logger.Warn("load expanded projects", log.FieldError, err)
		expanded = map[string]bool{}
	}
	a.costs = costState{expanded: expanded, month: 1}
	return a
}

func (a *App) Init() tea.Cmd {
	return a.loadYear(a.tariffs.year)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
		return a, nil
	case tea.KeyMsg:
		return a, a.handleKey(m)
	case tea.MouseMsg:
		if a.modal != modalNone || a.page != pageTariffs {
			return a, nil
		}
		return a, a.handleGridMouse(m)
	case spinner.TickMsg:
		if !a.busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(m)
		return a, cmd
	case toastExpiredMsg:
		if m.seq == a.toast.seq && !a.toast.err {
			a.toast = toast{seq: a.toast.seq}
		}
		return a, nil
	case yearLoadedMsg:
		return a, a.handleYearLoaded(m)
	case savedMsg:
		return a, a.handleSaved(m)
	case costsLoadedMsg:
		return a, a.handleCostsLoaded(m)
	case exportedMsg:
		if m.err != nil {
			return a, a.notify("No se pudo exportar el reporte: "+m.err.Error(), true)
		}
		return a, a.notify("Reporte exportado a "+m.path, false)
	case prefsSavedMsg:
		if m.err != nil {
			a.logger.Warn("save expanded projects", log.FieldError, m.err)
		}
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) tea.Cmd {
	if a.modal != modalNone {
		return a.handleModalKey(m)
	}
	editing := a.page == pageTariffs && a.tariffs.editing()
	if m.String() == "ctrl+c" || (!editing && key.Matches(m, a.keys.Quit)) {
		return a.requestQuit()
	}
	if !editing {
		switch {
		case key.Matches(m, a.keys.NextTab), key.Matches(m, a.keys.PrevTab):
			return a.switchPage()
		case key.Matches(m, a.keys.Dismiss) && a.toast.text != "":
			a.toast = toast{seq: a.toast.seq + 1}
			return nil
		}
	}
	if a.page == pageCosts {
		return a.handleCostsKey(m)
	}
	return a.handleTariffsKey(m)
}

func (a *App) handleModalKey(m tea.KeyMsg) tea.Cmd {
	switch a.modal {
	case modalConfirm:
		switch m.String() {
		case "y", "Y", "s", "S", "enter":
			fn := a.onConfirm
			a.closeModal()
			if fn != nil {
				return fn()
			}
		case "n", "N", "esc":
			a.closeModal()
		}
		// every other key is swallowed while the prompt is open
		return nil
	case modalJump:
		switch m.String() {
		case "esc":
			a.closeModal()
			return nil
		case "enter":
			query := a.jump.Value()
			a.closeModal()
			a.jumpToRole(query)
			return nil
		}
		var cmd tea.Cmd
		a.jump, cmd = a.jump.Update(m)
		return cmd
	}
	return nil
}

// ask opens the blocking y/n prompt. fn runs only on confirmation.
func (a *App) ask(question string, fn func() tea.Cmd) {
	a.modal = modalConfirm
	a.confirm = question
	a.onConfirm = fn
}

func (a *App) closeModal() {
	a.modal = modalNone
	a.confirm = ""
	a.onConfirm = nil
	a.jump.Blur()
	a.jump.SetValue("")
}

func (a *App) requestQuit() tea.Cmd {
	if !a.tariffs.session.HasChanges() {
		return tea.Quit
	}
	a.ask("Hay cambios sin guardar. ¿Salir igualmente?", func() tea.Cmd { return tea.Quit })
	return nil
}

// switchPage toggles between the two pages. Edits stay in memory, so no
// confirmation is needed.
func (a *App) switchPage() tea.Cmd {
	if a.page == pageTariffs {
		a.page = pageCosts
		if !a.costs.loaded && !a.costs.loading {
			return a.loadCosts()
		}
		return nil
	}
	a.page = pageTariffs
	return nil
}

// notify shows a toast. Success notices expire; errors stay until dismissed.
func (a *App) notify(text string, isErr bool) tea.Cmd {
	a.toast.seq++
	a.toast.text = oneLine(text)
	a.toast.err = isErr
	if isErr {
		return nil
	}
	seq := a.toast.seq
	return tea.Tick(a.toastIn, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

func (a *App) busy() bool {
	return a.tariffs.loading || a.tariffs.saving || a.costs.loading
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.renderTabs())
	b.WriteString("\n")
	switch a.page {
	case pageCosts:
		b.WriteString(a.renderCosts())
	default:
		b.WriteString(a.renderTariffs())
	}
	if a.modal != modalNone {
		b.WriteString("\n\n")
		b.WriteString(a.renderModal())
	}
	if a.toast.text != "" {
		b.WriteString("\n")
		if a.toast.err {
			b.WriteString(errToast.Render(a.toast.text + "  [esc]"))
		} else {
			b.WriteString(okToast.Render(a.toast.text))
		}
	}
	b.WriteString("\n")
	if a.page == pageCosts {
		b.WriteString(a.help.View(costKeys{a.keys}))
	} else {
		b.WriteString(a.help.View(tariffKeys{a.keys}))
	}
	return b.String()
}

func (a *App) renderTabs() string {
	tabs := make([]string, 0, len(pageTitles))
	for i, t := range pageTitles {
		if page(i) == a.page {
			tabs = append(tabs, activeTabStyle.Render(t))
			continue
		}
		tabs = append(tabs, tabStyle.Render(t))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) renderModal() string {
	switch a.modal {
	case modalConfirm:
		return modalStyle.Render(titleStyle.Render(a.confirm) + "\n[y] Sí  [n] No")
	case modalJump:
		return modalStyle.Render(titleStyle.Render("Ir al rol") + "\n" + a.jump.View() + "\n[enter] Ir  [esc] Cancelar")
	default:
		return ""
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
