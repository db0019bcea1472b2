package tui

import (
	"fmt"
	"math"
	"strings"

	"candle-lens/internal/session"
	"candle-lens/internal/view"

	"github.com/charmbracelet/lipgloss"
)

func toneStyle(t view.Tone) lipgloss.Style {
	switch t {
	case view.ToneBuy:
		return BuyStyle
	case view.ToneSell:
		return SellStyle
	case view.ToneHold:
		return HoldStyle
	default:
		return NeutralStyle
	}
}

// RenderConfidenceBar renders an ASCII progress bar for a 0-100 value.
func RenderConfidenceBar(label string, progress float64, barWidth int) string {
	if barWidth <= 0 {
		barWidth = 20
	}
	filled := int(math.Round(progress / 100 * float64(barWidth)))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	style := ConfidenceGoodStyle
	if progress < 60 {
		style = ConfidenceBadStyle
	} else if progress < 75 {
		style = ConfidenceOkStyle
	}

	bar := style.Render(strings.Repeat("█", filled)) + SubtextStyle.Render(strings.Repeat("░", empty))
	return fmt.Sprintf("%-12s %s", label, bar)
}

// RenderSlider draws a bounded value as a track with a knob.
func RenderSlider(value, lo, hi float64, width int) string {
	if width <= 2 {
		width = 20
	}
	pos := 0
	if hi > lo {
		pos = int(math.Round((value - lo) / (hi - lo) * float64(width-1)))
	}
	if pos < 0 {
		pos = 0
	}
	if pos > width-1 {
		pos = width - 1
	}
	return SubtextStyle.Render(strings.Repeat("─", pos)) +
		SelectedStyle.Render("●") +
		SubtextStyle.Render(strings.Repeat("─", width-1-pos))
}

// RenderResult renders the result view with the recommendation colored by tone.
func RenderResult(v *view.ResultView, width int) string {
	if v == nil {
		return ""
	}
	head := toneStyle(v.RecommendationTone).Render(v.Recommendation) + "  " + SubtextStyle.Render(v.Subtitle)
	bar := RenderConfidenceBar(v.ConfidenceLabel, v.Progress, width/3) + " " + v.Confidence
	if v.ConfidenceLevel != "" {
		bar += " " + SubtextStyle.Render(v.ConfidenceLevel)
	}

	// The first two lines of the plain text are the header and confidence drawn above.
	body := view.Text(v)
	if lines := strings.SplitN(body, "\n", 3); len(lines) == 3 {
		body = lines[2]
	} else {
		body = ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, head, bar, body)
}

// FormatNotice renders a notice as a single styled line.
func FormatNotice(n session.Notice) string {
	style := SuccessStyle
	if n.Level == session.NoticeError {
		style = ErrorStyle
	}
	line := style.Render(n.Title+":") + " " + n.Description
	if n.Detail != "" {
		line += " " + SubtextStyle.Render("("+n.Detail+")")
	}
	return line
}

func cursorPrefix(active bool) string {
	if active {
		return SelectedStyle.Render("> ")
	}
	return "  "
}

func checkMark(selected bool) string {
	if selected {
		return SuccessStyle.Render(" ✓")
	}
	return ""
}
