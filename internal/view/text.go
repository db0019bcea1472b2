package view

import (
	"strings"
)

// Text renders v as plain text, one fact per line, for chat and terminal surfaces.
func Text(v *ResultView) string {
	if v == nil {
		return ""
	}
	var b strings.Builder
	line := func(parts ...string) {
		b.WriteString(strings.Join(parts, " "))
		b.WriteByte('\n')
	}

	line(v.Recommendation, "-", v.Subtitle)
	line(v.ConfidenceLabel+":", v.Confidence)
	if v.Reasoning != "" {
		line(v.Reasoning)
	}
	b.WriteByte('\n')
	line(v.Entry.Label+":", v.Entry.Value)
	line(v.Stop.Label+":", v.Stop.Value)
	line(v.TakeProfitTitle + ":")
	for _, tp := range v.TakeProfits {
		line(" ", tp.Label+":", tp.Value, "("+tp.Percent+")")
	}
	line(v.RiskRewardTitle + ":")
	line(" ", v.Risk.Label, v.Risk.Value)
	line(" ", v.Return.Label, v.Return.Value)

	if v.Detailed != nil {
		b.WriteByte('\n')
		writePanel(&b, v.Detailed)
	}
	if v.Discrepancy != nil {
		b.WriteByte('\n')
		line(v.Discrepancy.Title + ":")
		line(v.Discrepancy.Message)
		if d := v.Discrepancy.Details; d != nil {
			line(d.Heading)
			line(d.Action.Label, d.Action.Value)
			line(d.Confidence.Label, d.Confidence.Value)
			line(d.Reason.Label, d.Reason.Value)
			if len(d.Supports) > 0 {
				line(d.SupportTitle)
				for _, r := range d.Supports {
					line(" ", r.Label, r.Value)
				}
			}
			if len(d.Resistances) > 0 {
				line(d.ResistanceTitle)
				for _, r := range d.Resistances {
					line(" ", r.Label, r.Value)
				}
			}
			if d.Trend != "" {
				line(d.TrendTitle, d.Trend)
			}
			if len(d.Patterns) > 0 {
				line(d.PatternsTitle, strings.Join(d.Patterns, ", "))
			}
		}
	}
	if v.Complementary != nil {
		b.WriteByte('\n')
		writePanel(&b, v.Complementary)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writePanel(b *strings.Builder, p *ImagePanel) {
	title := p.Title
	if p.ConfidenceBadge != "" {
		title += " [" + p.ConfidenceBadge + "]"
	}
	b.WriteString(title + "\n")
	if p.Subtitle != "" {
		b.WriteString(p.Subtitle + "\n")
	}
	b.WriteString(p.ActionLabel + " " + p.Action + "\n")
	if p.Reasoning != "" {
		b.WriteString(p.Reasoning + "\n")
	}
	writeLevels(b, p.SupportTitle, p.Supports, p.SupportEmpty)
	writeLevels(b, p.ResistanceTitle, p.Resistances, p.ResistanceEmpty)
	if p.ShowTrend {
		b.WriteString(p.TrendTitle + ": " + p.Trend + "\n")
	}
	if len(p.Patterns) > 0 {
		b.WriteString(p.PatternsTitle + ": " + strings.Join(p.Patterns, ", ") + "\n")
	}
}

func writeLevels(b *strings.Builder, title string, rows []Row, empty string) {
	if len(rows) == 0 {
		if empty != "" {
			b.WriteString(title + ": " + empty + "\n")
		}
		return
	}
	b.WriteString(title + ":\n")
	for _, r := range rows {
		b.WriteString("  " + r.Label + ": " + r.Value + "\n")
	}
}
