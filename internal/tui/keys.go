package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Edit     key.Binding
	Clear    key.Binding
	Save     key.Binding
	PrevYear key.Binding
	NextYear key.Binding
	Jump     key.Binding
	Reload   key.Binding
	Toggle   key.Binding
	Export   key.Binding
	Dismiss  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "salir")),
		NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "siguiente")),
		PrevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "anterior")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "arriba")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "abajo")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "izquierda")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "derecha")),
		Edit:     key.NewBinding(key.WithKeys("enter", "f2"), key.WithHelp("enter", "editar")),
		Clear:    key.NewBinding(key.WithKeys("delete", "backspace"), key.WithHelp("del", "borrar")),
		Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "guardar")),
		PrevYear: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "año anterior")),
		NextYear: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "año siguiente")),
		Jump:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "buscar rol")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recargar")),
		Toggle:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "detalle")),
		Export:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "exportar")),
		Dismiss:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cerrar aviso")),
	}
}

// tariffKeys is the help view of the tariff page.
type tariffKeys struct{ keyMap }

func (k tariffKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Save, k.PrevYear, k.NextYear, k.Jump, k.NextTab, k.Quit}
}

func (k tariffKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Edit, k.Clear, k.Save, k.Reload},
		{k.PrevYear, k.NextYear, k.Jump},
		{k.NextTab, k.PrevTab, k.Dismiss, k.Quit},
	}
}

// costKeys is the help view of the cost page.
type costKeys struct{ keyMap }

func (k costKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Export, k.Reload, k.NextTab, k.Quit}
}

func (k costKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Toggle, k.Export, k.Reload},
		{k.NextTab, k.PrevTab, k.Dismiss, k.Quit},
	}
}
