package view

import (
	"math"
	"strconv"

	"candle-lens/internal/analysis"
	"candle-lens/internal/domain"
)

// Tone is the colour family a surface should use for a value.
type Tone string

const (
	ToneBuy     Tone = "buy"
	ToneSell    Tone = "sell"
	ToneHold    Tone = "hold"
	ToneNeutral Tone = "neutral"
)

type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type TakeProfitRow struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Percent string `json:"percent"`
}

// ImagePanel is one rendering of a normalized image analysis.
type ImagePanel struct {
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle,omitempty"`
	ConfidenceBadge string `json:"confidenceBadge,omitempty"`
	ActionLabel     string `json:"actionLabel"`
	Action          string `json:"action"`
	ActionTone      Tone   `json:"actionTone"`
	Reasoning       string `json:"reasoning,omitempty"`

	SupportTitle    string `json:"supportTitle"`
	Supports        []Row  `json:"supports"`
	SupportEmpty    string `json:"supportEmpty,omitempty"`
	ResistanceTitle string `json:"resistanceTitle"`
	Resistances     []Row  `json:"resistances"`
	ResistanceEmpty string `json:"resistanceEmpty,omitempty"`

	ShowTrend  bool   `json:"showTrend"`
	TrendTitle string `json:"trendTitle"`
	Trend      string `json:"trend"`
	TrendTone  Tone   `json:"trendTone"`

	PatternsTitle string   `json:"patternsTitle"`
	Patterns      []string `json:"patterns"`
}

type DiscrepancyDetails struct {
	Heading         string   `json:"heading"`
	Action          Row      `json:"action"`
	Confidence      Row      `json:"confidence"`
	Reason          Row      `json:"reason"`
	SupportTitle    string   `json:"supportTitle"`
	Supports        []Row    `json:"supports"`
	ResistanceTitle string   `json:"resistanceTitle"`
	Resistances     []Row    `json:"resistances"`
	TrendTitle      string   `json:"trendTitle"`
	Trend           string   `json:"trend,omitempty"`
	PatternsTitle   string   `json:"patternsTitle"`
	Patterns        []string `json:"patterns"`
}

type DiscrepancyPanel struct {
	Title   string              `json:"title"`
	Message string              `json:"message"`
	Details *DiscrepancyDetails `json:"details,omitempty"`
}

// ResultView is the full result screen for one AnalysisResult.
type ResultView struct {
	Recommendation     string  `json:"recommendation"`
	RecommendationTone Tone    `json:"recommendationTone"`
	Subtitle           string  `json:"subtitle"`
	ConfidenceLabel    string  `json:"confidenceLabel"`
	ConfidenceLevel    string  `json:"confidenceLevelLabel"`
	Confidence         string  `json:"confidence"`
	Progress           float64 `json:"progress"`
	Reasoning          string  `json:"reasoning"`

	Entry Row `json:"entry"`
	Stop  Row `json:"stop"`

	TakeProfitTitle string          `json:"takeProfitTitle"`
	TakeProfits     []TakeProfitRow `json:"takeProfits"`

	RiskRewardTitle string `json:"riskRewardTitle"`
	Risk            Row    `json:"risk"`
	Return          Row    `json:"return"`

	Detailed      *ImagePanel       `json:"detailed,omitempty"`
	Discrepancy   *DiscrepancyPanel `json:"discrepancy,omitempty"`
	Complementary *ImagePanel       `json:"complementary,omitempty"`
}

// RecommendationLabel is the headline for a primary recommendation.
func RecommendationLabel(r domain.Recommendation) (string, Tone) {
	switch r {
	case domain.RecommendationBuy:
		return "COMPRAR", ToneBuy
	case domain.RecommendationSell:
		return "VENDER", ToneSell
	default:
		return "ESPERAR", ToneHold
	}
}

// ImageActionLabel is the label for a normalized image action.
func ImageActionLabel(action string) (string, Tone) {
	switch action {
	case domain.ActionBuy:
		return "COMPRAR", ToneBuy
	case domain.ActionSell:
		return "VENDER", ToneSell
	default:
		return "AGUARDAR", ToneHold
	}
}

// TrendLabel returns the label of a renderable trend, or false.
func TrendLabel(t domain.TrendDirection) (string, Tone, bool) {
	switch t {
	case domain.TrendUp:
		return "Tendência de Alta", ToneBuy, true
	case domain.TrendDown:
		return "Tendência de Baixa", ToneSell, true
	case domain.TrendSideways:
		return "Mercado Lateral", ToneHold, true
	}
	return "", ToneNeutral, false
}

const (
	trendUnknown   = "Tendência não identificada"
	patternUnknown = "Padrão não identificado"
	maxLevelRows   = 3
)

// BuildResult maps res onto the result screen. Both image panels and the discrepancy block
// read the normalized image analysis.
func BuildResult(res *domain.AnalysisResult) *ResultView {
	if res == nil {
		return nil
	}
	label, tone := RecommendationLabel(res.Recommendation)
	v := &ResultView{
		Recommendation:     label,
		RecommendationTone: tone,
		Subtitle:           "Recomendação da IA",
		ConfidenceLabel:    "Confiança",
		ConfidenceLevel:    "Nível de Confiança",
		Confidence:         Percent(res.Confidence, 2),
		Progress:           clampPercent(res.Confidence),
		Reasoning:          res.Reasoning,
		Entry:              Row{Label: "Preço de Entrada", Value: Money(res.EntryPrice, 2)},
		Stop:               Row{Label: "Stop Loss", Value: Money(res.StopLoss, 2)},
		TakeProfitTitle:    "Níveis de Take Profit",
		RiskRewardTitle:    "Análise de Risco/Retorno",
	}

	for i, tp := range res.TakeProfits {
		v.TakeProfits = append(v.TakeProfits, TakeProfitRow{
			Label:   "TP " + strconv.Itoa(i+1),
			Value:   Fixed(tp, 2),
			Percent: PercentOf(tp, res.EntryPrice),
		})
	}

	v.Risk = Row{Label: "Risco:", Value: riskPercent(res.EntryPrice, res.StopLoss)}
	v.Return = Row{Label: "Retorno Potencial:", Value: PercentOf(res.TakeProfits[0], res.EntryPrice)}

	image := analysis.Normalize(res.ImageAnalysis)
	if image != nil {
		v.Detailed = detailedPanel(image)
	}
	if res.DiscrepancyWarning != "" {
		v.Discrepancy = &DiscrepancyPanel{
			Title:   "Aviso de Discrepância",
			Message: res.DiscrepancyWarning,
		}
		if disc := analysis.Normalize(res.ImageAnalysisDiscrepancy); disc != nil {
			v.Discrepancy.Details = discrepancyDetails(disc)
		}
	} else if image != nil {
		v.Complementary = complementaryPanel(image)
	}
	return v
}

func riskPercent(entry, stop float64) string {
	if entry == 0 || math.IsNaN(entry) || math.IsInf(entry, 0) {
		return NotAvailable
	}
	p := math.Abs(entry-stop) / entry * 100
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return NotAvailable
	}
	return ToFixed(p, 1) + "%"
}

func confidenceBadge(c float64) string {
	if c > 0 {
		return "Confiança: " + ToFixed(c, 1) + "%"
	}
	return ""
}

func levelRows(levels []float64, limit int, prefix string) []Row {
	rows := []Row{}
	for i, lvl := range levels {
		if limit > 0 && i >= limit {
			break
		}
		rows = append(rows, Row{Label: prefix + strconv.Itoa(i+1), Value: "$" + ToFixed(lvl, 5)})
	}
	return rows
}

func patterns(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p == "" {
			p = patternUnknown
		}
		out = append(out, p)
	}
	return out
}

func basePanel(n *domain.NormalizedImageAnalysis) *ImagePanel {
	action, tone := ImageActionLabel(n.Action)
	return &ImagePanel{
		ConfidenceBadge: confidenceBadge(n.Confidence),
		ActionLabel:     "Ação Recomendada:",
		Action:          action,
		ActionTone:      tone,
		Reasoning:       n.Reasoning,
		PatternsTitle:   "Padrões Visuais Detectados",
		Patterns:        patterns(n.VisualPatterns),
	}
}

func detailedPanel(n *domain.NormalizedImageAnalysis) *ImagePanel {
	p := basePanel(n)
	p.Title = "Análise Visual Detalhada"
	p.SupportTitle = "Suportes Próximos"
	p.Supports = levelRows(n.SupportLevels, maxLevelRows, "Nível ")
	p.ResistanceTitle = "Resistências Próximas"
	p.Resistances = levelRows(n.ResistanceLevels, maxLevelRows, "Nível ")
	if len(p.Supports) == 0 {
		p.SupportEmpty = "Nenhum suporte identificado"
	}
	if len(p.Resistances) == 0 {
		p.ResistanceEmpty = "Nenhuma resistência identificada"
	}

	p.ShowTrend = true
	p.TrendTitle = "Tendência Atual"
	p.Trend, p.TrendTone = trendOrUnknown(n.Trend())
	return p
}

func complementaryPanel(n *domain.NormalizedImageAnalysis) *ImagePanel {
	p := basePanel(n)
	p.Title = "Análise de Imagem Complementar"
	p.Subtitle = "Esta análise visual complementa a análise de dados históricos."
	p.SupportTitle = "Níveis de Suporte"
	p.Supports = levelRows(n.SupportLevels, maxLevelRows, "Nível ")
	p.ResistanceTitle = "Níveis de Resistência"
	p.Resistances = levelRows(n.ResistanceLevels, maxLevelRows, "Nível ")

	p.TrendTitle = "Tendência Identificada"
	if n.TrendDirection != "" {
		p.ShowTrend = true
		p.Trend, p.TrendTone = trendOrUnknown(n.Trend())
	}
	return p
}

func discrepancyDetails(n *domain.NormalizedImageAnalysis) *DiscrepancyDetails {
	reason := n.Reasoning
	if reason == "" {
		reason = NotAvailable
	}
	d := &DiscrepancyDetails{
		Heading:         "Análise da Imagem (Divergente):",
		Action:          Row{Label: "Ação:", Value: n.Action},
		Confidence:      Row{Label: "Confiança:", Value: Percent(n.Confidence, 2)},
		Reason:          Row{Label: "Razão:", Value: reason},
		SupportTitle:    "Níveis de Suporte:",
		Supports:        levelRows(n.SupportLevels, 0, "Suporte "),
		ResistanceTitle: "Níveis de Resistência:",
		Resistances:     levelRows(n.ResistanceLevels, 0, "Resistência "),
		TrendTitle:      "Tendência:",
		PatternsTitle:   "Padrões Visuais Detectados:",
		Patterns:        patterns(n.VisualPatterns),
	}
	for i := range d.Supports {
		d.Supports[i].Label += ":"
	}
	for i := range d.Resistances {
		d.Resistances[i].Label += ":"
	}
	if n.TrendDirection != "" {
		d.Trend, _ = trendOrUnknown(n.Trend())
	}
	return d
}

func trendOrUnknown(t domain.TrendDirection) (string, Tone) {
	if label, tone, ok := TrendLabel(t); ok {
		return label, tone
	}
	return trendUnknown, ToneNeutral
}
