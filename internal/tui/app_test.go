package tui

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/tariffdesk/internal/api"
	"github.com/jask/tariffdesk/internal/config"
	"github.com/jask/tariffdesk/internal/tariff"
)

type fakeClient struct {
	windows  map[int][]tariff.YearData
	bulk     [][]api.BulkItem
	bulkErr  error
	projects []api.ProjectCost
	costsErr error
}

func (f *fakeClient) FetchWindow(_ context.Context, year int) ([]tariff.YearData, error) {
	if w, ok := f.windows[year]; ok {
		return w, nil
	}
	return []tariff.YearData{{Year: year - 1}, {Year: year}, {Year: year + 1}}, nil
}

func (f *fakeClient) BulkUpdate(_ context.Context, items []api.BulkItem) error {
	if f.bulkErr != nil {
		return f.bulkErr
	}
	f.bulk = append(f.bulk, items)
	return nil
}

func (f *fakeClient) FetchCosts(context.Context) ([]api.ProjectCost, error) {
	return f.projects, f.costsErr
}

var (
	dev = tariff.Role{ID: "r-dev", Name: "Desarrollador", ExperienceLevel: "Sr"}
	qa  = tariff.Role{ID: "r-qa", Name: "QA", ExperienceLevel: "Jr"}
)

func window2024() []tariff.YearData {
	return []tariff.YearData{
		{Year: 2023, Roles: []tariff.RoleValues{
			{Role: dev, Values: map[int]tariff.Value{12: tariff.Num(50)}},
		}},
		{Year: 2024, Roles: []tariff.RoleValues{
			{Role: qa, Values: map[int]tariff.Value{3: tariff.Num(80)}},
			{Role: dev, Values: map[int]tariff.Value{1: tariff.Num(100), 2: tariff.Null()}},
		}},
		{Year: 2025, Roles: []tariff.RoleValues{
			{Role: dev, Values: map[int]tariff.Value{1: tariff.Num(120)}},
		}},
	}
}

func testConfig() config.Config {
	return config.Config{UI: config.UIConfig{Locale: "es", Timezone: "UTC", CurrencySymbol: "$", ToastSeconds: 2}}
}

type savedPrefs struct{ last map[string]bool }

func newTestApp(t *testing.T, client *fakeClient) (*App, *savedPrefs) {
	t.Helper()
	sp := &savedPrefs{}
	a := New(context.Background(), testConfig(), client, Options{
		Year:         2024,
		Now:          func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) },
		ExportDir:    t.TempDir(),
		LoadExpanded: func() (map[string]bool, error) { return map[string]bool{}, nil },
		SaveExpanded: func(m map[string]bool) error { sp.last = m; return nil },
	})
	t.Cleanup(func() { _ = a.tariffs.engine.Close() })
	return a, sp
}

// loadedApp returns an app with the 2024 window applied.
func loadedApp(t *testing.T, client *fakeClient) *App {
	t.Helper()
	if client.windows == nil {
		client.windows = map[int][]tariff.YearData{2024: window2024()}
	}
	a, _ := newTestApp(t, client)
	require.NotNil(t, a.Init())
	require.True(t, a.tariffs.loading)
	a.Update(a.fetchYear(2024, a.tariffs.gen)())
	require.False(t, a.tariffs.loading)
	return a
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func typeText(a *App, s string) {
	for _, r := range s {
		a.Update(runes(string(r)))
	}
}

func press(a *App, k tea.KeyType) tea.Cmd {
	_, cmd := a.Update(tea.KeyMsg{Type: k})
	return cmd
}

func click(a *App, row, col int) {
	a.Update(tea.MouseMsg{
		X:      labelWidth + (col-1)*cellWidth + 1,
		Y:      gridFirstY + row,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})
}

func TestLoadPopulatesGrid(t *testing.T) {
	a := loadedApp(t, &fakeClient{})
	s := a.tariffs.session

	require.Equal(t, 2024, s.Year)
	require.Equal(t, []tariff.Role{dev, qa}, s.Roles)
	require.Equal(t, tariff.Num(50), s.Values.Get(dev.ID, "2023-12"))
	require.Equal(t, tariff.Num(120), s.Values.Get(dev.ID, "2025-01"))
	require.False(t, s.HasChanges())

	view := a.View()
	require.Contains(t, view, "Tarifas 2024")
	require.Contains(t, view, "dic 2023")
	require.Contains(t, view, "Desarrollador (Sr)")
	require.Contains(t, view, "100.00")
}

func TestStaleLoadIsDropped(t *testing.T) {
	a := loadedApp(t, &fakeClient{})
	a.loadYear(2025)
	stale := a.tariffs.gen
	a.loadYear(2026)

	a.Update(yearLoadedMsg{gen: stale, year: 2025, data: []tariff.YearData{{Year: 2024}, {Year: 2025}, {Year: 2026}}})
	require.Equal(t, 2024, a.tariffs.session.Year)
	require.True(t, a.tariffs.loading)

	a.Update(a.fetchYear(2026, a.tariffs.gen)())
	require.Equal(t, 2026, a.tariffs.session.Year)
	require.False(t, a.tariffs.loading)
	require.Empty(t, a.tariffs.session.Roles)
}

func TestLoadFailureKeepsLastGoodState(t *testing.T) {
	a := loadedApp(t, &fakeClient{})
	a.loadYear(2025)
	a.Update(yearLoadedMsg{gen: a.tariffs.gen, year: 2025, err: errors.New("fetch tariffs 2026: boom")})

	require.Equal(t, 2024, a.tariffs.session.Year)
	require.Equal(t, 2024, a.tariffs.year)
	require.Len(t, a.tariffs.session.Roles, 2)
	require.Contains(t, a.View(), "No pudimos cargar las tarifas de 2025")

	a.Update(a.fetchYear(2024, a.tariffs.gen)())
	require.Empty(t, a.tariffs.loadErr)
}

func TestEditAndSave(t *testing.T) {
	client := &fakeClient{}
	a := loadedApp(t, client)

	typeText(a, "150")
	require.True(t, a.tariffs.editing())
	require.Equal(t, "150", a.tariffs.input.Value())
	press(a, tea.KeyEnter)

	s := a.tariffs.session
	require.Equal(t, tariff.Num(150), s.Values.Get(dev.ID, "2023-12"))
	require.Equal(t, tariff.StatusModified, s.Status(dev.ID, "2023-12"))
	require.Contains(t, a.View(), "cambios sin guardar")

	cmd := press(a, tea.KeyCtrlS)
	require.NotNil(t, cmd)
	require.True(t, a.tariffs.saving)
	a.Update(cmd())

	require.Equal(t, [][]api.BulkItem{{{RoleID: dev.ID, Year: 2023, Values: map[int]float64{12: 150}, Cleared: []int{}}}}, client.bulk)
	require.False(t, s.HasChanges())
	require.Equal(t, tariff.Num(150), s.Baseline.Get(dev.ID, "2023-12"))
	require.Equal(t, "Cambios guardados", a.toast.text)
	require.False(t, a.tariffs.saving)
}

func TestClearCellIsSavedAsCleared(t *testing.T) {
	client := &fakeClient{}
	a := loadedApp(t, client)
	a.Update(runes("l"))
	press(a, tea.KeyDelete)
	require.Equal(t, tariff.StatusRemoved, a.tariffs.session.Status(dev.ID, "2024-01"))

	cmd := press(a, tea.KeyCtrlS)
	a.Update(cmd())
	require.Equal(t, []int{1}, client.bulk[0][0].Cleared)
	require.Empty(t, client.bulk[0][0].Values)
}

func TestSaveWithoutChanges(t *testing.T) {
	client := &fakeClient{}
	a := loadedApp(t, client)
	cmd := press(a, tea.KeyCtrlS)
	require.NotNil(t, cmd, "success toast schedules its expiry")
	require.Equal(t, "No hay cambios para guardar", a.toast.text)
	require.False(t, a.tariffs.saving)
	require.Empty(t, client.bulk)
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	client := &fakeClient{bulkErr: &api.StatusError{Method: "PUT", Path: "/api/tarifas", Code: 500, Body: "db down"}}
	a := loadedApp(t, client)
	typeText(a, "7")
	press(a, tea.KeyEnter)

	cmd := press(a, tea.KeyCtrlS)
	a.Update(cmd())
	require.True(t, a.tariffs.session.HasChanges())
	require.True(t, a.toast.err)
	require.Contains(t, a.toast.text, "No se pudieron guardar los cambios")

	// errors stay until dismissed
	a.Update(toastExpiredMsg{seq: a.toast.seq})
	require.NotEmpty(t, a.toast.text)
	press(a, tea.KeyEsc)
	require.Empty(t, a.toast.text)
}

func TestFormulaByClickingReferences(t *testing.T) {
	a := loadedApp(t, &fakeClient{})
	a.Update(runes("l")) // 2024-01

	typeText(a, "=")
	click(a, 0, 1)
	require.Equal(t, "=B1", a.tariffs.input.Value())
	typeText(a, "+5")
	press(a, tea.KeyEnter)

	s := a.tariffs.session
	require.Equal(t, tariff.Num(55), s.Values.Get(dev.ID, "2024-01"))
	require.Equal(t, tariff.StatusModified, s.Status(dev.ID, "2024-01"))

	// editing the referenced cell recomputes the formula
	a.Update(runes("k"))
	a.Update(runes("h"))
	typeText(a, "60")
	press(a, tea.KeyEnter)
	require.Equal(t, tariff.Num(65), s.Values.Get(dev.ID, "2024-01"))
}

func TestClickMovesCursorWhenNotEditing(t *testing.T) {
	a := loadedApp(t, &fakeClient{})
	click(a, 1, 4)
	require.Equal(t, 1, a.tariffs.row)
	require.Equal(t, 4, a.tariffs.col)

	a.Update(tea.MouseMsg{X: 1, Y: gridHeaderY, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.Equal(t, 1, a.tariffs.row)
}

func TestEditorSwallowsQuitAndCancels(t *testing.T) {
	a := loadedApp(t, &fakeClient{})
	press(a, tea.KeyEnter)
	require.Equal(t, "50", a.tariffs.input.Value())

	a.Update(runes("q"))
	require.Equal(t, modalNone, a.modal)
	require.True(t, a.tariffs.editing())
	require.Equal(t, "50q", a.tariffs.input.Value())

	press(a, tea.KeyEsc)
	require.False(t, a.tariffs.editing())
	require.False(t, a.tariffs.session.HasChanges())
}

func TestYearSwitchWhileDirtyAsks(t *testing.T) {
	a := loadedApp(t, &fakeClient{})
	typeText(a, "1")
	press(a, tea.KeyEnter)
	gen := a.tariffs.gen

	_, cmd := a.Update(runes("]"))
	require.Nil(t, cmd)
	require.Equal(t, modalConfirm, a.modal)
	require.Contains(t, a.View(), "cargar 2025")

	_, cmd = a.Update(runes("x"))
	require.Nil(t, cmd)
	require.Equal(t, modalConfirm, a.modal)

	a.Update(runes("n"))
	require.Equal(t, modalNone, a.modal)
	require.Equal(t, gen, a.tariffs.gen)
	require.True(t, a.tariffs.session.HasChanges())

	a.Update(runes("]"))
	_, cmd = a.Update(runes("y"))
	require.NotNil(t, cmd)
	require.Equal(t, 2025, a.tariffs.year)
	require.Equal(t, gen+1, a.tariffs.gen)

	a.Update(a.fetchYear(2025, a.tariffs.gen)())
	require.Equal(t, 2025, a.tariffs.session.Year)
	require.False(t, a.tariffs.session.HasChanges())
}

func TestYearSwitchIgnoredWhileSaving(t *testing.T) {
	client := &fakeClient{}
	a := loadedApp(t, client)
	typeText(a, "150")
	press(a, tea.KeyEnter)
	gen := a.tariffs.gen

	save := press(a, tea.KeyCtrlS)
	require.NotNil(t, save)
	_, cmd := a.Update(runes("]"))
	require.Nil(t, cmd)
	_, cmd = a.Update(runes("r"))
	require.Nil(t, cmd)
	require.Equal(t, modalNone, a.modal)
	require.Equal(t, gen, a.tariffs.gen)
	require.Equal(t, 2024, a.tariffs.year)

	a.Update(save())
	s := a.tariffs.session
	require.False(t, s.HasChanges())
	require.Equal(t, tariff.Num(150), s.Baseline.Get(dev.ID, "2023-12"))
}

func TestSaveResultForReplacedWindowIsNotCommitted(t *testing.T) {
	client := &fakeClient{windows: map[int][]tariff.YearData{
		2024: window2024(),
		2025: {
			{Year: 2024, Roles: []tariff.RoleValues{{Role: dev, Values: map[int]tariff.Value{12: tariff.Num(70)}}}},
			{Year: 2025},
			{Year: 2026},
		},
	}}
	a := loadedApp(t, client)
	a.tariffs.col = 13 // 2024-12
	typeText(a, "150")
	press(a, tea.KeyEnter)

	save := press(a, tea.KeyCtrlS)
	require.NotNil(t, save)
	a.loadYear(2025)
	a.Update(a.fetchYear(2025, a.tariffs.gen)())
	a.Update(save())

	s := a.tariffs.session
	require.Equal(t, 2025, s.Year)
	require.Equal(t, tariff.Num(70), s.Values.Get(dev.ID, "2024-12"))
	require.Equal(t, tariff.Num(70), s.Baseline.Get(dev.ID, "2024-12"))
	require.False(t, s.HasChanges())
	require.False(t, a.tariffs.saving)
}

func TestYearSwitchWhenCleanLoadsDirectly(t *testing.T) {
	a := loadedApp(t, &fakeClient{})
	_, cmd := a.Update(runes("["))
	require.NotNil(t, cmd)
	require.Equal(t, modalNone, a.modal)
	require.Equal(t, 2023, a.tariffs.year)
	require.True(t, a.tariffs.loading)
}

func TestQuit(t *testing.T) {
	a := loadedApp(t, &fakeClient{})
	_, cmd := a.Update(runes("q"))
	require.IsType(t, tea.QuitMsg{}, cmd())

	typeText(a, "9")
	press(a, tea.KeyEnter)
	_, cmd = a.Update(runes("q"))
	require.Nil(t, cmd)
	require.Equal(t, modalConfirm, a.modal)
	_, cmd = a.Update(runes("y"))
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestJumpToRole(t *testing.T) {
	a := loadedApp(t, &fakeClient{})
	a.Update(runes("/"))
	require.Equal(t, modalJump, a.modal)
	typeText(a, "qa")
	press(a, tea.KeyEnter)
	require.Equal(t, modalNone, a.modal)
	require.Equal(t, 1, a.tariffs.row)
}

func TestClosestRole(t *testing.T) {
	roles := []tariff.Role{
		{ID: "1", Name: "Desarrollador", ExperienceLevel: "Sr"},
		{ID: "2", Name: "Diseñador", ExperienceLevel: "Ssr"},
		{ID: "3", Name: "Project Manager"},
	}
	require.Equal(t, -1, closestRole("  ", roles))
	require.Equal(t, 2, closestRole("manager", roles))
	require.Equal(t, 1, closestRole("disenador", roles))
	require.Equal(t, 0, closestRole("desarolador", roles))
	require.Equal(t, 1, closestRole("ssr", roles))
}

func TestSuccessToastExpires(t *testing.T) {
	a := loadedApp(t, &fakeClient{})
	require.NotNil(t, a.notify("listo", false))
	seq := a.toast.seq
	a.notify("otro", false)
	a.Update(toastExpiredMsg{seq: seq})
	require.Equal(t, "otro", a.toast.text, "an older timer does not hide a newer toast")
	a.Update(toastExpiredMsg{seq: a.toast.seq})
	require.Empty(t, a.toast.text)
}

func sampleCosts() []api.ProjectCost {
	return []api.ProjectCost{{
		ProjectID:   "p1",
		ProjectName: "Portal",
		Months: []api.MonthlyCost{
			{Year: 2024, Month: 1, TotalHours: 10, TotalCost: 1500, Resources: []api.CostResource{
				{ResourceID: "x", Name: "Ana", Role: "Desarrollador", Seniority: "Sr", Hours: 10, HourlyRate: 150, Cost: 1500},
			}},
			{Year: 2024, Month: 2, TotalHours: 8, TotalCost: 0, RolesMissingTariff: []string{"QA"}, Resources: []api.CostResource{
				{ResourceID: "y", Name: "Beto", Role: "QA", Seniority: "Jr", Hours: 8},
			}},
		},
	}}
}

func TestCostsPage(t *testing.T) {
	a, prefs := newTestApp(t, &fakeClient{projects: sampleCosts()})
	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, pageCosts, a.page)
	require.True(t, a.costs.loading)

	a.Update(costsLoadedMsg{gen: a.costs.gen, projects: sampleCosts()})
	view := a.View()
	require.Contains(t, view, "Portal")
	require.Contains(t, view, "1.50K")
	require.Contains(t, view, "Roles sin tarifa: QA")
	require.Contains(t, view, "Enero 2024")

	a.Update(runes("l"))
	require.Equal(t, 2, a.costs.month)
	require.Contains(t, a.View(), "Beto: 8.0h x !? = 0")

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, a.costs.expanded["p1"])
	a.Update(cmd())
	require.Equal(t, map[string]bool{"p1": true}, prefs.last)
	require.Contains(t, a.View(), "02/2024")

	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, pageTariffs, a.page)
}

func TestCostsEmptyAndError(t *testing.T) {
	a, _ := newTestApp(t, &fakeClient{})
	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a.Update(costsLoadedMsg{gen: a.costs.gen})
	require.Contains(t, a.View(), "No hay costos registrados para mostrar.")

	a.Update(runes("r"))
	a.Update(costsLoadedMsg{gen: a.costs.gen, err: errors.New("timeout")})
	require.Contains(t, a.View(), "No pudimos obtener los costos")
}

func TestExportCosts(t *testing.T) {
	a, _ := newTestApp(t, &fakeClient{})
	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a.Update(costsLoadedMsg{gen: a.costs.gen, projects: sampleCosts()})

	_, cmd := a.Update(runes("e"))
	msg := cmd()
	exported, ok := msg.(exportedMsg)
	require.True(t, ok)
	require.NoError(t, exported.err)
	_, err := os.Stat(exported.path)
	require.NoError(t, err)

	a.Update(msg)
	require.Contains(t, a.toast.text, "reporte-costos-2024-03-15.xlsx")
}
