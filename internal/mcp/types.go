package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"candle-lens/internal/domain"
)

var (
	errImageSource      = errors.New("exactly one of image_path or image_data_url is required")
	errFilePathDisabled = errors.New("image_path is disabled: no chart directory configured")
)

type assetsListInput struct {
	Category string `json:"category,omitempty" jsonschema:"optional category: crypto, stocks, forex, indices"`
}

type assetsListOutput struct {
	Assets []domain.Asset `json:"assets"`
}

type timeframesListInput struct {
	Category string `json:"category,omitempty" jsonschema:"optional group: scalp or swing"`
}

type timeframesListOutput struct {
	Timeframes []domain.Timeframe `json:"timeframes"`
}

type riskProfileDefaultsInput struct {
	Type string `json:"type,omitempty" jsonschema:"optional profile: conservative, moderate, aggressive"`
}

type riskLimits struct {
	MinMaxRisk       float64 `json:"min_max_risk"`
	MaxMaxRisk       float64 `json:"max_max_risk"`
	MaxRiskStep      float64 `json:"max_risk_step"`
	MinPositionSize  float64 `json:"min_position_size"`
	MaxPositionSize  float64 `json:"max_position_size"`
	PositionSizeStep float64 `json:"position_size_step"`
}

type riskProfileDefaultsOutput struct {
	Profiles []domain.RiskProfileOption `json:"profiles"`
	Default  domain.RiskProfileType     `json:"default"`
	Limits   riskLimits                 `json:"limits"`
}

type chartAnalyzeInput struct {
	ImagePath    string   `json:"image_path,omitempty" jsonschema:"chart image path relative to the chart directory"`
	ImageDataURL string   `json:"image_data_url,omitempty" jsonschema:"chart image as a base64 data URL"`
	Symbol       string   `json:"symbol" jsonschema:"asset symbol (e.g. BTCUSDT, PETR4)"`
	Category     string   `json:"category,omitempty" jsonschema:"category for symbols outside the catalog"`
	Timeframe    string   `json:"timeframe" jsonschema:"timeframe: 1m, 3m, 5m, 15m, 30m, 1h, 4h, 1d, 1w"`
	RiskType     string   `json:"risk_type,omitempty" jsonschema:"risk profile, default moderate"`
	MaxRisk      *float64 `json:"max_risk,omitempty" jsonschema:"max risk per trade in percent, 0.5-10"`
	PositionSize *float64 `json:"position_size,omitempty" jsonschema:"position multiplier, 0.1-5"`
}

type chartAnalyzeOutput struct {
	Asset       domain.Asset       `json:"asset"`
	Timeframe   domain.Timeframe   `json:"timeframe"`
	RiskProfile domain.RiskProfile `json:"risk_profile"`
	Result      map[string]any     `json:"result"`
	Summary     string             `json:"summary"`
}

type analysisNormalizeInput struct {
	Analysis any `json:"analysis" jsonschema:"raw image analysis object as returned by the analysis service"`
}

type analysisNormalizeOutput struct {
	Present    bool                            `json:"present"`
	Normalized *domain.NormalizedImageAnalysis `json:"normalized"`
}

func filterAssets(category string) ([]domain.Asset, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return domain.AllAssets(), nil
	}
	c := domain.AssetCategory(category)
	if !c.IsValid() {
		return nil, fmt.Errorf("unsupported category: %s", category)
	}
	return append([]domain.Asset(nil), domain.PopularAssets[c]...), nil
}

func filterTimeframes(category string) ([]domain.Timeframe, error) {
	switch domain.TimeframeCategory(strings.ToLower(strings.TrimSpace(category))) {
	case "":
		return domain.AllTimeframes(), nil
	case domain.TimeframeScalp:
		return append([]domain.Timeframe(nil), domain.ScalpTimeframes...), nil
	case domain.TimeframeSwing:
		return append([]domain.Timeframe(nil), domain.SwingTimeframes...), nil
	default:
		return nil, fmt.Errorf("unsupported timeframe group: %s", category)
	}
}

func riskDefaults(riskType string) (riskProfileDefaultsOutput, error) {
	out := riskProfileDefaultsOutput{
		Profiles: append([]domain.RiskProfileOption(nil), domain.RiskProfileOptions...),
		Default:  domain.RiskModerate,
		Limits: riskLimits{
			MinMaxRisk:       domain.MinMaxRisk,
			MaxMaxRisk:       domain.MaxMaxRisk,
			MaxRiskStep:      domain.MaxRiskStep,
			MinPositionSize:  domain.MinPositionSize,
			MaxPositionSize:  domain.MaxPositionSize,
			PositionSizeStep: domain.PositionSizeStep,
		},
	}
	if riskType = strings.ToLower(strings.TrimSpace(riskType)); riskType != "" {
		o, ok := domain.LookupRiskProfileOption(domain.RiskProfileType(riskType))
		if !ok {
			return riskProfileDefaultsOutput{}, fmt.Errorf("unsupported risk type: %s", riskType)
		}
		out.Profiles = []domain.RiskProfileOption{o}
	}
	return out, nil
}

func normalizeAsset(symbol, category string) (domain.Asset, error) {
	if strings.TrimSpace(symbol) == "" {
		return domain.Asset{}, fmt.Errorf("symbol is required")
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return domain.ResolveAsset(symbol)
	}
	c := domain.AssetCategory(category)
	if !c.IsValid() {
		return domain.Asset{}, fmt.Errorf("unsupported category: %s", category)
	}
	if a, ok := domain.LookupAsset(symbol); ok && a.Category == c {
		return a, nil
	}
	a, err := domain.NewCustomAsset(symbol)
	if err != nil {
		return domain.Asset{}, err
	}
	a.Category = c
	return a, nil
}

func normalizeTimeframe(value string) (domain.Timeframe, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return domain.Timeframe{}, fmt.Errorf("timeframe is required")
	}
	tf, ok := domain.LookupTimeframe(value)
	if !ok {
		return domain.Timeframe{}, fmt.Errorf("unsupported timeframe: %s", value)
	}
	return tf, nil
}

// normalizeRiskProfile applies overrides verbatim; range checks happen in the service.
func normalizeRiskProfile(in chartAnalyzeInput) (domain.RiskProfile, error) {
	t := domain.RiskModerate
	if raw := strings.ToLower(strings.TrimSpace(in.RiskType)); raw != "" {
		t = domain.RiskProfileType(raw)
		if !t.IsValid() {
			return domain.RiskProfile{}, fmt.Errorf("unsupported risk type: %s", raw)
		}
	}
	p := domain.NewRiskProfile(t)
	if in.MaxRisk != nil {
		p.MaxRisk = *in.MaxRisk
	}
	if in.PositionSize != nil {
		p.PositionSize = *in.PositionSize
	}
	return p, nil
}

// resultMap renders res through its JSON form so the raw image analysis stays an object.
func resultMap(res *domain.AnalysisResult) (map[string]any, error) {
	body, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
