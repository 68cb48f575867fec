package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the explorer's key bindings.
type KeyMap struct {
	Quit     key.Binding
	Pause    key.Binding
	Reset    key.Binding
	Back     key.Binding
	Rerender key.Binding
	Backend  key.Binding
	Compare  key.Binding
	Save     key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Pause:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause metrics")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "full view")),
		Back:     key.NewBinding(key.WithKeys("b", "backspace"), key.WithHelp("b", "back")),
		Rerender: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "render")),
		Backend:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "backend")),
		Compare:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "compare")),
		Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑↓←→", "pan")),
		Down:     key.NewBinding(key.WithKeys("down", "j")),
		Left:     key.NewBinding(key.WithKeys("left", "h")),
		Right:    key.NewBinding(key.WithKeys("right", "l")),
	}
}

// footerBindings are the bindings listed in the footer, in order.
func (k KeyMap) footerBindings() []key.Binding {
	return []key.Binding{k.Quit, k.Reset, k.Back, k.ZoomIn, k.Up, k.Backend, k.Compare, k.Save, k.Pause}
}
