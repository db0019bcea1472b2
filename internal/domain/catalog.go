package domain

import (
	"errors"
	"strings"
)

var ErrEmptySymbol = errors.New("asset symbol is required")

// AssetCategories is the display order of the asset catalog.
var AssetCategories = []AssetCategory{CategoryCrypto, CategoryStocks, CategoryForex, CategoryIndices}

// PopularAssets is the fixed asset catalog offered by every selector.
var PopularAssets = map[AssetCategory][]Asset{
	CategoryCrypto: {
		{Symbol: "BTCUSDT", Name: "Bitcoin", Category: CategoryCrypto},
		{Symbol: "ETHUSDT", Name: "Ethereum", Category: CategoryCrypto},
		{Symbol: "BNBUSDT", Name: "Binance Coin", Category: CategoryCrypto},
		{Symbol: "ADAUSDT", Name: "Cardano", Category: CategoryCrypto},
	},
	CategoryStocks: {
		{Symbol: "PETR4", Name: "Petrobras", Category: CategoryStocks},
		{Symbol: "VALE3", Name: "Vale", Category: CategoryStocks},
		{Symbol: "ITUB4", Name: "Itaú", Category: CategoryStocks},
		{Symbol: "BBDC4", Name: "Bradesco", Category: CategoryStocks},
	},
	CategoryForex: {
		{Symbol: "EURUSD", Name: "Euro/Dólar", Category: CategoryForex},
		{Symbol: "GBPUSD", Name: "Libra/Dólar", Category: CategoryForex},
		{Symbol: "USDJPY", Name: "Dólar/Iene", Category: CategoryForex},
		{Symbol: "AUDUSD", Name: "Dólar Australiano/Dólar", Category: CategoryForex},
	},
	CategoryIndices: {
		{Symbol: "IBOV", Name: "Ibovespa", Category: CategoryIndices},
		{Symbol: "SPY", Name: "S&P 500", Category: CategoryIndices},
		{Symbol: "QQQ", Name: "Nasdaq 100", Category: CategoryIndices},
		{Symbol: "DXY", Name: "Índice do Dólar", Category: CategoryIndices},
	},
}

// SelectorCategoryLabels are the group titles of the asset selector.
var SelectorCategoryLabels = map[AssetCategory]string{
	CategoryCrypto:  "Criptomoedas",
	CategoryStocks:  "Ações BR",
	CategoryForex:   "Forex",
	CategoryIndices: "Índices",
}

// CategoryLabel is the badge shown next to an asset in the result modal.
func CategoryLabel(c AssetCategory) string {
	switch c {
	case CategoryCrypto:
		return "Criptomoedas"
	case CategoryStocks:
		return "Ações"
	case CategoryForex:
		return "Forex"
	case CategoryIndices:
		return "Índices"
	default:
		return "Outros"
	}
}

// AllAssets returns the catalog flattened in display order.
func AllAssets() []Asset {
	out := make([]Asset, 0, 16)
	for _, c := range AssetCategories {
		out = append(out, PopularAssets[c]...)
	}
	return out
}

// LookupAsset finds a catalog asset by symbol, case-insensitively.
func LookupAsset(symbol string) (Asset, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, a := range AllAssets() {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return Asset{}, false
}

// NewCustomAsset builds an asset from free text. Free text always lands in crypto with the
// symbol doubling as the name.
func NewCustomAsset(text string) (Asset, error) {
	symbol := strings.ToUpper(strings.TrimSpace(text))
	if symbol == "" {
		return Asset{}, ErrEmptySymbol
	}
	return Asset{Symbol: symbol, Name: symbol, Category: CategoryCrypto}, nil
}

// ResolveAsset prefers the catalog entry and falls back to a custom asset.
func ResolveAsset(text string) (Asset, error) {
	if a, ok := LookupAsset(text); ok {
		return a, nil
	}
	return NewCustomAsset(text)
}

var ScalpTimeframes = []Timeframe{
	{Category: TimeframeScalp, Value: "1m", Label: "1 Minuto"},
	{Category: TimeframeScalp, Value: "3m", Label: "3 Minutos"},
	{Category: TimeframeScalp, Value: "5m", Label: "5 Minutos"},
	{Category: TimeframeScalp, Value: "15m", Label: "15 Minutos"},
	{Category: TimeframeScalp, Value: "30m", Label: "30 Minutos"},
}

var SwingTimeframes = []Timeframe{
	{Category: TimeframeSwing, Value: "1h", Label: "1 Hora"},
	{Category: TimeframeSwing, Value: "4h", Label: "4 Horas"},
	{Category: TimeframeSwing, Value: "1d", Label: "1 Dia"},
	{Category: TimeframeSwing, Value: "1w", Label: "1 Semana"},
}

// AllTimeframes returns scalp then swing timeframes.
func AllTimeframes() []Timeframe {
	out := make([]Timeframe, 0, len(ScalpTimeframes)+len(SwingTimeframes))
	out = append(out, ScalpTimeframes...)
	return append(out, SwingTimeframes...)
}

// LookupTimeframe finds a timeframe by its interval code.
func LookupTimeframe(value string) (Timeframe, bool) {
	value = strings.TrimSpace(value)
	for _, tf := range AllTimeframes() {
		if tf.Value == value {
			return tf, true
		}
	}
	return Timeframe{}, false
}

// TimeframeGroupLabel is the title of a timeframe group.
func TimeframeGroupLabel(c TimeframeCategory) string {
	if c == TimeframeScalp {
		return "Scalp Trading"
	}
	return "Swing Trading"
}

type RiskProfileOption struct {
	Type         RiskProfileType `json:"type"`
	Label        string          `json:"label"`
	Description  string          `json:"description"`
	MaxRisk      float64         `json:"maxRisk"`
	PositionSize float64         `json:"positionSize"`
}

var RiskProfileOptions = []RiskProfileOption{
	{Type: RiskConservative, Label: "Conservador", Description: "Baixo risco, retornos estáveis", MaxRisk: 1, PositionSize: 0.5},
	{Type: RiskModerate, Label: "Moderado", Description: "Risco equilibrado", MaxRisk: 2, PositionSize: 1},
	{Type: RiskAggressive, Label: "Agressivo", Description: "Alto risco, alto retorno", MaxRisk: 5, PositionSize: 2},
}

// LookupRiskProfileOption returns the option for t.
func LookupRiskProfileOption(t RiskProfileType) (RiskProfileOption, bool) {
	for _, o := range RiskProfileOptions {
		if o.Type == t {
			return o, true
		}
	}
	return RiskProfileOption{}, false
}

// NewRiskProfile returns the defaults of t. Unknown types yield the moderate profile.
func NewRiskProfile(t RiskProfileType) RiskProfile {
	o, ok := LookupRiskProfileOption(t)
	if !ok {
		o, _ = LookupRiskProfileOption(RiskModerate)
	}
	return RiskProfile{Type: o.Type, MaxRisk: o.MaxRisk, PositionSize: o.PositionSize}
}

func DefaultRiskProfile() RiskProfile {
	return NewRiskProfile(RiskModerate)
}
