package panels

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	NextPane key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Select   key.Binding
	Start    key.Binding
	Continue key.Binding
	Remove   key.Binding
	Edit     key.Binding
	Save     key.Binding
	Cancel   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		NextPane: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev panel")),
		Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next panel")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add persona")),
		Start:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		Continue: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "continue")),
		Remove:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit prompt")),
		Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save prompt")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) forFocus(f focus) []key.Binding {
	switch f {
	case focusPersonas:
		return []key.Binding{k.Up, k.Down, k.Select, k.NextPane, k.Quit}
	case focusTopic:
		return []key.Binding{k.Start, k.NextPane, k.Quit}
	case focusPanels:
		return []key.Binding{k.Left, k.Right, k.Continue, k.Remove, k.Edit, k.NextPane, k.Quit}
	case focusEditor:
		return []key.Binding{k.Save, k.Cancel}
	default:
		return []key.Binding{k.Quit}
	}
}
