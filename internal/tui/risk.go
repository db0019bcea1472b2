package tui

import (
	"fmt"

	"candle-lens/internal/domain"
	"candle-lens/internal/session"
	"candle-lens/internal/view"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Risk message types. riskProfileMsg carries a fully formed profile for the root to apply.
type riskTypeMsg struct{ riskType domain.RiskProfileType }
type riskProfileMsg struct{ profile domain.RiskProfile }

// RiskModel selects the risk profile and tunes both sliders.
type RiskModel struct {
	sess   *session.Session
	cursor int
	width  int
	height int
}

// NewRiskModel creates a new risk manager screen with the cursor on the active profile.
func NewRiskModel(sess *session.Session) RiskModel {
	m := RiskModel{sess: sess}
	for i, o := range domain.RiskProfileOptions {
		if o.Type == sess.RiskProfile.Type {
			m.cursor = i
		}
	}
	return m
}

// Update handles incoming messages.
func (m RiskModel) Update(msg tea.Msg) (RiskModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	p := m.sess.RiskProfile
	switch {
	case key.Matches(km, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, DefaultKeyMap.Down):
		if m.cursor < len(domain.RiskProfileOptions)-1 {
			m.cursor++
		}
	case key.Matches(km, DefaultKeyMap.Select):
		t := domain.RiskProfileOptions[m.cursor].Type
		return m, func() tea.Msg { return riskTypeMsg{riskType: t} }
	case key.Matches(km, DefaultKeyMap.RiskDown):
		return m, adjustRisk(p.WithMaxRisk(p.MaxRisk - domain.MaxRiskStep))
	case key.Matches(km, DefaultKeyMap.RiskUp):
		return m, adjustRisk(p.WithMaxRisk(p.MaxRisk + domain.MaxRiskStep))
	case key.Matches(km, DefaultKeyMap.PositionDown):
		return m, adjustRisk(p.WithPositionSize(p.PositionSize - domain.PositionSizeStep))
	case key.Matches(km, DefaultKeyMap.PositionUp):
		return m, adjustRisk(p.WithPositionSize(p.PositionSize + domain.PositionSizeStep))
	}
	return m, nil
}

// View renders the risk manager.
func (m RiskModel) View() string {
	v := view.BuildRiskManager(m.sess.RiskProfile)
	sliderWidth := 24
	if m.width > 60 {
		sliderWidth = m.width / 3
	}

	sections := []string{"", HeaderStyle.Render("  " + v.Title), "", SubtextStyle.Render("  " + v.ProfileTitle)}
	for i, o := range v.Options {
		line := cursorPrefix(i == m.cursor) + o.Label
		if o.Badge != "" {
			line += " " + BadgeStyle.Render(o.Badge)
		}
		sections = append(sections, "  "+line, "      "+SubtextStyle.Render(o.Description))
	}

	sections = append(sections,
		"",
		SubtextStyle.Render("  "+v.SettingsTitle),
		fmt.Sprintf("  %s: %s", v.MaxRiskLabel, v.MaxRisk),
		"  "+RenderSlider(v.MaxRiskValue, domain.MinMaxRisk, domain.MaxMaxRisk, sliderWidth)+SubtextStyle.Render("  ←/→"),
		fmt.Sprintf("  %s: %s", v.PositionLabel, v.Position),
		"  "+RenderSlider(v.PositionValue, domain.MinPositionSize, domain.MaxPositionSize, sliderWidth)+SubtextStyle.Render("  -/+"),
		"",
	)

	s := v.Summary
	summary := lipgloss.JoinVertical(lipgloss.Left,
		HeaderStyle.Render(s.Title),
		s.Profile.Label+" "+s.Profile.Value,
		s.RiskPer.Label+" "+s.RiskPer.Value,
		s.Multiplier.Label+" "+s.Multiplier.Value,
	)
	sections = append(sections, BorderStyle.Render(summary))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the model dimensions.
func (m *RiskModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func adjustRisk(p domain.RiskProfile) tea.Cmd {
	return func() tea.Msg { return riskProfileMsg{profile: p} }
}
