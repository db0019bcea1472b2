package view

import (
	"candle-lens/internal/domain"
	"candle-lens/internal/session"
)

const (
	AppTitle   = "CandleStick AI"
	AppTagline = "Análise inteligente de gráficos de candlestick com IA avançada para decisões de trading precisas"
)

// AnalyzeButton is the label and state of the analyze control.
type AnalyzeButton struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// BuildAnalyzeButton picks the label by priority: in flight, missing asset, missing
// timeframe, ready.
func BuildAnalyzeButton(s *session.Session) AnalyzeButton {
	switch {
	case s.Analyzing:
		return AnalyzeButton{Label: "Analisando..."}
	case s.Asset == nil:
		return AnalyzeButton{Label: "Selecione o Ativo"}
	case s.Timeframe == nil:
		return AnalyzeButton{Label: "Selecione o Timeframe"}
	default:
		return AnalyzeButton{Label: "Analisar " + s.Asset.Symbol, Enabled: s.CanAnalyze()}
	}
}

type UploadView struct {
	Title        string `json:"title"`
	Hint         string `json:"hint"`
	ButtonLabel  string `json:"buttonLabel"`
	Loaded       bool   `json:"loaded"`
	LoadedLabel  string `json:"loadedLabel,omitempty"`
	RemoveLabel  string `json:"removeLabel"`
	ImageName    string `json:"imageName,omitempty"`
	ImageDataURL string `json:"imageDataUrl,omitempty"`
}

func BuildUpload(s *session.Session) UploadView {
	v := UploadView{
		Title:       "Faça upload do seu gráfico",
		Hint:        "Arraste e solte ou clique para selecionar uma imagem de gráfico de candlestick",
		ButtonLabel: "Selecionar Arquivo",
		RemoveLabel: "Remover",
	}
	if s.Image != nil {
		v.Loaded = true
		v.LoadedLabel = "Imagem carregada com sucesso"
		v.ImageName = s.Image.Name
		v.ImageDataURL = s.Image.DataURL
	}
	return v
}

type AssetOption struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

type AssetGroup struct {
	Category domain.AssetCategory `json:"category"`
	Label    string               `json:"label"`
	Assets   []AssetOption        `json:"assets"`
}

type AssetSelectorView struct {
	Title         string       `json:"title"`
	Groups        []AssetGroup `json:"groups"`
	CustomLabel   string       `json:"customLabel"`
	Placeholder   string       `json:"placeholder"`
	AddLabel      string       `json:"addLabel"`
	SelectedLabel string       `json:"selectedLabel,omitempty"`
}

func BuildAssetSelector(s *session.Session) AssetSelectorView {
	v := AssetSelectorView{
		Title:       "Selecione o Ativo",
		CustomLabel: "Digite o símbolo do ativo",
		Placeholder: "Ex: BTCUSDT, PETR4, EURUSD...",
		AddLabel:    "Adicionar",
	}
	for _, c := range domain.AssetCategories {
		g := AssetGroup{Category: c, Label: domain.SelectorCategoryLabels[c]}
		for _, a := range domain.PopularAssets[c] {
			g.Assets = append(g.Assets, AssetOption{
				Symbol:   a.Symbol,
				Name:     a.Name,
				Selected: s.Asset != nil && s.Asset.Symbol == a.Symbol,
			})
		}
		v.Groups = append(v.Groups, g)
	}
	if s.Asset != nil {
		v.SelectedLabel = "Ativo selecionado: " + s.Asset.Symbol + " (" + s.Asset.Name + ")"
	}
	return v
}

type TimeframeOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

type TimeframeGroup struct {
	Category domain.TimeframeCategory `json:"category"`
	Title    string                   `json:"title"`
	Range    string                   `json:"range,omitempty"`
	Options  []TimeframeOption        `json:"options"`
}

type TimeframeSelectorView struct {
	Title  string           `json:"title"`
	Groups []TimeframeGroup `json:"groups"`
}

func BuildTimeframeSelector(s *session.Session) TimeframeSelectorView {
	build := func(c domain.TimeframeCategory, rng string, tfs []domain.Timeframe) TimeframeGroup {
		g := TimeframeGroup{Category: c, Title: domain.TimeframeGroupLabel(c), Range: rng}
		for _, tf := range tfs {
			g.Options = append(g.Options, TimeframeOption{
				Value:    tf.Value,
				Label:    tf.Label,
				Selected: s.Timeframe != nil && s.Timeframe.Value == tf.Value,
			})
		}
		return g
	}
	return TimeframeSelectorView{
		Title: "Selecione o Timeframe",
		Groups: []TimeframeGroup{
			build(domain.TimeframeScalp, "(1m - 30m)", domain.ScalpTimeframes),
			build(domain.TimeframeSwing, "", domain.SwingTimeframes),
		},
	}
}

type RiskOption struct {
	Type        domain.RiskProfileType `json:"type"`
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Active      bool                   `json:"active"`
	Badge       string                 `json:"badge,omitempty"`
}

type RiskManagerView struct {
	Title         string       `json:"title"`
	ProfileTitle  string       `json:"profileTitle"`
	Options       []RiskOption `json:"options"`
	SettingsTitle string       `json:"settingsTitle"`
	MaxRiskLabel  string       `json:"maxRiskLabel"`
	MaxRisk       string       `json:"maxRisk"`
	MaxRiskValue  float64      `json:"maxRiskValue"`
	PositionLabel string       `json:"positionLabel"`
	Position      string       `json:"position"`
	PositionValue float64      `json:"positionValue"`
	Summary       RiskSummary  `json:"summary"`
}

type RiskSummary struct {
	Title      string `json:"title"`
	Profile    Row    `json:"profile"`
	RiskPer    Row    `json:"riskPerTrade"`
	Multiplier Row    `json:"multiplier"`
}

func BuildRiskManager(p domain.RiskProfile) RiskManagerView {
	v := RiskManagerView{
		Title:         "Gerenciador de Risco",
		ProfileTitle:  "Perfil de Risco",
		SettingsTitle: "Configurações de Risco",
		MaxRiskLabel:  "Risco Máximo por Trade",
		MaxRisk:       Number(p.MaxRisk) + "%",
		MaxRiskValue:  p.MaxRisk,
		PositionLabel: "Tamanho da Posição",
		Position:      Number(p.PositionSize) + "x",
		PositionValue: p.PositionSize,
		Summary:       BuildRiskSummary(p),
	}
	for _, o := range domain.RiskProfileOptions {
		opt := RiskOption{Type: o.Type, Label: o.Label, Description: o.Description, Active: o.Type == p.Type}
		if opt.Active {
			opt.Badge = "Ativo"
		}
		v.Options = append(v.Options, opt)
	}
	return v
}

// BuildRiskSummary shows the raw profile type, as the risk summary always has.
func BuildRiskSummary(p domain.RiskProfile) RiskSummary {
	return RiskSummary{
		Title:      "Resumo de Risco",
		Profile:    Row{Label: "Perfil:", Value: string(p.Type)},
		RiskPer:    Row{Label: "Risco por trade:", Value: Number(p.MaxRisk) + "%"},
		Multiplier: Row{Label: "Multiplicador:", Value: Number(p.PositionSize) + "x"},
	}
}

type LoadingView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func Loading() LoadingView {
	return LoadingView{
		Title:       "Analisando gráfico...",
		Description: "A IA está processando os padrões de candlestick",
	}
}

// ModalView is the result dialog.
type ModalView struct {
	Open             bool         `json:"open"`
	Title            string       `json:"title"`
	Symbol           string       `json:"symbol,omitempty"`
	Category         string       `json:"category,omitempty"`
	CategoryLabel    string       `json:"categoryLabel,omitempty"`
	AssetName        string       `json:"assetName,omitempty"`
	NewAnalysisLabel string       `json:"newAnalysisLabel"`
	Loading          *LoadingView `json:"loading,omitempty"`
	Result           *ResultView  `json:"result,omitempty"`
}

func BuildModal(s *session.Session) ModalView {
	v := ModalView{
		Open:             s.ShowResult,
		Title:            "Resultado da Análise",
		NewAnalysisLabel: "Nova Análise",
	}
	if s.Asset != nil {
		v.Symbol = s.Asset.Symbol
		v.Category = string(s.Asset.Category)
		v.CategoryLabel = domain.CategoryLabel(s.Asset.Category)
		v.AssetName = s.Asset.Name
	}
	if s.Analyzing {
		l := Loading()
		v.Loading = &l
	}
	v.Result = BuildResult(s.Result)
	return v
}

// PageView is everything one render of the main screen needs.
type PageView struct {
	Title       string                `json:"title"`
	Tagline     string                `json:"tagline"`
	UploadTitle string                `json:"uploadTitle"`
	State       session.State         `json:"state"`
	Upload      UploadView            `json:"upload"`
	Assets      AssetSelectorView     `json:"assets"`
	Timeframes  TimeframeSelectorView `json:"timeframes"`
	Button      AnalyzeButton         `json:"button"`
	Risk        RiskManagerView       `json:"risk"`
	Modal       ModalView             `json:"modal"`
	Notices     []session.Notice      `json:"notices,omitempty"`
}

// BuildPage renders s. Pending notices are passed in by the caller after draining them.
func BuildPage(s *session.Session, notices []session.Notice) PageView {
	return PageView{
		Title:       AppTitle,
		Tagline:     AppTagline,
		UploadTitle: "Upload do Gráfico",
		State:       s.State(),
		Upload:      BuildUpload(s),
		Assets:      BuildAssetSelector(s),
		Timeframes:  BuildTimeframeSelector(s),
		Button:      BuildAnalyzeButton(s),
		Risk:        BuildRiskManager(s.RiskProfile),
		Modal:       BuildModal(s),
		Notices:     notices,
	}
}
