package tui

import (
	"candle-lens/internal/domain"
	"candle-lens/internal/session"
	"candle-lens/internal/view"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type assetChosenMsg struct{ asset domain.Asset }

// AssetModel lists the catalog grouped by category and accepts a custom symbol.
type AssetModel struct {
	sess    *session.Session
	assets  []domain.Asset
	cursor  int
	custom  textinput.Model
	editing bool
	err     error
	width   int
	height  int
}

// NewAssetModel creates a new asset selector.
func NewAssetModel(sess *session.Session) AssetModel {
	ti := textinput.New()
	ti.Placeholder = "Ex: BTCUSDT, AAPL, EURUSD"
	ti.CharLimit = 32
	ti.Width = 30

	return AssetModel{sess: sess, assets: domain.AllAssets(), custom: ti}
}

// Update handles incoming messages.
func (m AssetModel) Update(msg tea.Msg) (AssetModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.editing {
			var cmd tea.Cmd
			m.custom, cmd = m.custom.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.editing {
		switch km.Type {
		case tea.KeyEsc:
			m.stopEditing()
			return m, nil
		case tea.KeyEnter:
			a, err := domain.NewCustomAsset(m.custom.Value())
			if err != nil {
				// Blank input is ignored.
				return m, nil
			}
			m.stopEditing()
			m.custom.SetValue("")
			return m, chooseAsset(a)
		}
		var cmd tea.Cmd
		m.custom, cmd = m.custom.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(km, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, DefaultKeyMap.Down):
		if m.cursor < len(m.assets)-1 {
			m.cursor++
		}
	case key.Matches(km, DefaultKeyMap.Select):
		if len(m.assets) > 0 {
			return m, chooseAsset(m.assets[m.cursor])
		}
	case key.Matches(km, DefaultKeyMap.CustomSymbol):
		m.editing = true
		m.custom.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

// View renders the asset selector.
func (m AssetModel) View() string {
	v := view.BuildAssetSelector(m.sess)

	sections := []string{"", HeaderStyle.Render("  " + v.Title), ""}
	i := 0
	for _, g := range v.Groups {
		sections = append(sections, SubtextStyle.Render("  "+g.Label))
		for _, a := range g.Assets {
			line := cursorPrefix(!m.editing && i == m.cursor) + a.Symbol + " " + SubtextStyle.Render(a.Name) + checkMark(a.Selected)
			sections = append(sections, "  "+line)
			i++
		}
	}

	sections = append(sections, "", SubtextStyle.Render("  "+v.CustomLabel+" (/)"))
	if m.editing {
		sections = append(sections, "  "+m.custom.View())
	}
	if v.SelectedLabel != "" {
		sections = append(sections, "", SelectedStyle.Render("  "+v.SelectedLabel))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the model dimensions.
func (m *AssetModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Editing reports whether the custom symbol input has focus.
func (m AssetModel) Editing() bool { return m.editing }

func (m *AssetModel) stopEditing() {
	m.editing = false
	m.custom.Blur()
}

func chooseAsset(a domain.Asset) tea.Cmd {
	return func() tea.Msg { return assetChosenMsg{asset: a} }
}
