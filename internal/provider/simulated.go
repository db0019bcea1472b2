package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"candle-lens/internal/config"
	"candle-lens/internal/domain"
)

var basePrices = map[domain.AssetCategory]float64{
	domain.CategoryCrypto:  45000,
	domain.CategoryStocks:  32.5,
	domain.CategoryForex:   1.085,
	domain.CategoryIndices: 5000,
}

var categoryVolatility = map[domain.AssetCategory]float64{
	domain.CategoryCrypto:  0.05,
	domain.CategoryStocks:  0.03,
	domain.CategoryForex:   0.01,
	domain.CategoryIndices: 0.02,
}

var timeframeMultiplier = map[domain.TimeframeCategory]float64{
	domain.TimeframeScalp: 1.5,
	domain.TimeframeSwing: 0.8,
}

var riskMultiplier = map[domain.RiskProfileType]float64{
	domain.RiskAggressive:   1.3,
	domain.RiskModerate:     1.0,
	domain.RiskConservative: 0.7,
}

type scenario struct {
	recommendation domain.Recommendation
	confidenceBase int
	confidenceSpan int
	stopSign       float64
	targets        [3]float64
	targetSign     float64
	trend          domain.TrendDirection
	patterns       []string
	reasoning      string
}

var scenarios = [3]scenario{
	{
		recommendation: domain.RecommendationBuy,
		confidenceBase: 75, confidenceSpan: 20,
		stopSign: -1, targets: [3]float64{1.5, 2.5, 4}, targetSign: 1,
		trend:    domain.TrendUp,
		patterns: []string{"Rompimento de resistência", "Martelo"},
		reasoning: "Padrão de alta identificado em %s no gráfico de %s (%s) com rompimento de resistência. " +
			"Volume crescente confirma o movimento. Indicadores técnicos mostram momentum positivo com RSI em 65 e MACD cruzando para cima.",
	},
	{
		recommendation: domain.RecommendationSell,
		confidenceBase: 70, confidenceSpan: 15,
		stopSign: 1, targets: [3]float64{1.5, 2.5, 4}, targetSign: -1,
		trend:    domain.TrendDown,
		patterns: []string{"Topo duplo", "Divergência bearish"},
		reasoning: "Formação de topo duplo identificada em %s no gráfico de %s (%s) com divergência bearish no RSI. " +
			"Volume de venda aumentando. Rompimento da linha de suporte principal indica continuação da tendência de baixa.",
	},
	{
		recommendation: domain.RecommendationHold,
		confidenceBase: 60, confidenceSpan: 15,
		stopSign: -1, targets: [3]float64{0.8, 1.2, 2}, targetSign: 1,
		trend:    domain.TrendSideways,
		patterns: []string{"Consolidação lateral"},
		reasoning: "Mercado em consolidação lateral em %s no gráfico de %s (%s). Padrões conflitantes identificados. " +
			"Aguardar rompimento claro da faixa de trading atual entre suporte e resistência para definir direção.",
	},
}

// SimulatedAnalyzer fabricates a plausible result from per-category constants and a random
// scenario. It is a demo backend and never talks to a model.
type SimulatedAnalyzer struct {
	delay time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedAnalyzer creates a simulated backend. A zero seed picks a random one.
func NewSimulatedAnalyzer(delay time.Duration, seed uint64) *SimulatedAnalyzer {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &SimulatedAnalyzer{
		delay: delay,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *SimulatedAnalyzer) Name() string {
	return config.BackendSimulated
}

func (s *SimulatedAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	pick := s.rng.IntN(len(scenarios))
	sc := scenarios[pick]
	confidence := sc.confidenceBase + s.rng.IntN(sc.confidenceSpan)
	s.mu.Unlock()

	return simulate(req, sc, confidence), nil
}

func simulate(req domain.AnalysisRequest, sc scenario, confidence int) *domain.AnalysisResult {
	category := req.Asset.Category
	base, ok := basePrices[category]
	if !ok {
		category = domain.CategoryCrypto
		base = basePrices[category]
	}
	vol := categoryVolatility[category] * multiplier(timeframeMultiplier[req.Timeframe.Category]) *
		multiplier(riskMultiplier[req.RiskProfile.Type])

	stop := base * (1 + sc.stopSign*vol*req.RiskProfile.MaxRisk/100)

	scale := 1 - (req.RiskProfile.PositionSize-1)*0.1
	if sc.recommendation == domain.RecommendationBuy {
		scale = 1 + (req.RiskProfile.PositionSize-1)*0.1
	}
	var tps [3]float64
	for i, k := range sc.targets {
		tps[i] = base * (1 + sc.targetSign*vol*k) * scale
	}

	label := req.Timeframe.Label
	if label == "" {
		label = req.Timeframe.Value
	}

	res := &domain.AnalysisResult{
		Recommendation: sc.recommendation,
		Confidence:     float64(confidence),
		EntryPrice:     base,
		StopLoss:       stop,
		TakeProfits:    tps,
		Reasoning:      fmt.Sprintf(sc.reasoning, req.Asset.Symbol, label, domain.CategoryLabel(category)),
	}
	res.ImageAnalysis = imageAnalysisFor(sc, confidence, stop, base, tps)
	return res
}

func imageAnalysisFor(sc scenario, confidence int, stop, base float64, tps [3]float64) domain.ImageAnalysis {
	support := []float64{stop, base}
	resistance := []float64{tps[0], tps[1]}
	if sc.recommendation == domain.RecommendationSell {
		support = []float64{tps[0], tps[1]}
		resistance = []float64{base, stop}
	}
	bag := map[string]interface{}{
		"action":           string(sc.recommendation),
		"confidence":       confidence - 5,
		"reasoning":        "Leitura visual dos candles alinhada com a análise de preço.",
		"supportLevels":    support,
		"resistanceLevels": resistance,
		"trendDirection":   string(sc.trend),
		"visualPatterns":   sc.patterns,
	}
	b, err := json.Marshal(bag)
	if err != nil {
		return nil
	}
	return domain.ImageAnalysis(b)
}

func multiplier(m float64) float64 {
	if m == 0 {
		return 1
	}
	return m
}
