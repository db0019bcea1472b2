package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines key bindings used across the TUI.
type KeyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding
	Analyze  key.Binding
	Reset    key.Binding

	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	// Upload screen
	RemoveImage key.Binding

	// Asset screen
	CustomSymbol key.Binding

	// Risk sliders
	RiskDown     key.Binding
	RiskUp       key.Binding
	PositionDown key.Binding
	PositionUp   key.Binding

	// Result modal
	Close       key.Binding
	NewAnalysis key.Binding
}

// DefaultKeyMap provides the default key bindings for the TUI.
var DefaultKeyMap = KeyMap{
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Analyze:  key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "analisar")),
	Reset:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reiniciar")),

	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),

	RemoveImage: key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "remover")),

	CustomSymbol: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "símbolo")),

	RiskDown:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "risco -0.5")),
	RiskUp:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "risco +0.5")),
	PositionDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "posição -0.1")),
	PositionUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "posição +0.1")),

	Close:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "fechar")),
	NewAnalysis: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "nova análise")),
}
