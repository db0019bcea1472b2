package tui

import (
	"candle-lens/internal/domain"
	"candle-lens/internal/session"
	"candle-lens/internal/view"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type timeframeChosenMsg struct{ timeframe domain.Timeframe }

// TimeframeModel lists scalp and swing timeframes.
type TimeframeModel struct {
	sess       *session.Session
	timeframes []domain.Timeframe
	cursor     int
	width      int
	height     int
}

// NewTimeframeModel creates a new timeframe selector.
func NewTimeframeModel(sess *session.Session) TimeframeModel {
	return TimeframeModel{sess: sess, timeframes: domain.AllTimeframes()}
}

// Update handles incoming messages.
func (m TimeframeModel) Update(msg tea.Msg) (TimeframeModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, DefaultKeyMap.Down):
		if m.cursor < len(m.timeframes)-1 {
			m.cursor++
		}
	case key.Matches(km, DefaultKeyMap.Select):
		tf := m.timeframes[m.cursor]
		return m, func() tea.Msg { return timeframeChosenMsg{timeframe: tf} }
	}
	return m, nil
}

// View renders the timeframe selector.
func (m TimeframeModel) View() string {
	v := view.BuildTimeframeSelector(m.sess)

	sections := []string{"", HeaderStyle.Render("  " + v.Title), ""}
	i := 0
	for _, g := range v.Groups {
		title := g.Title
		if g.Range != "" {
			title += " " + g.Range
		}
		sections = append(sections, SubtextStyle.Render("  "+title))
		for _, o := range g.Options {
			line := cursorPrefix(i == m.cursor) + o.Value + " " + SubtextStyle.Render(o.Label) + checkMark(o.Selected)
			sections = append(sections, "  "+line)
			i++
		}
	}
	if m.sess.Image == nil {
		sections = append(sections, "", SubtextStyle.Render("  Carregar uma nova imagem limpa o timeframe escolhido."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the model dimensions.
func (m *TimeframeModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}
