package domain

import (
	"bytes"
	"errors"
	"math"
	"strings"
)

type AssetCategory string

const (
	CategoryCrypto  AssetCategory = "crypto"
	CategoryStocks  AssetCategory = "stocks"
	CategoryForex   AssetCategory = "forex"
	CategoryIndices AssetCategory = "indices"
)

func (c AssetCategory) IsValid() bool {
	switch c {
	case CategoryCrypto, CategoryStocks, CategoryForex, CategoryIndices:
		return true
	}
	return false
}

type Asset struct {
	Symbol   string        `json:"symbol" validate:"required"`
	Name     string        `json:"name"`
	Category AssetCategory `json:"category" validate:"required,oneof=crypto stocks forex indices"`
}

type TimeframeCategory string

const (
	TimeframeScalp TimeframeCategory = "scalp"
	TimeframeSwing TimeframeCategory = "swing"
)

type Timeframe struct {
	Category TimeframeCategory `json:"category" validate:"required,oneof=scalp swing"`
	Value    string            `json:"value" validate:"required,oneof=1m 3m 5m 15m 30m 1h 4h 1d 1w"`
	Label    string            `json:"label"`
}

type RiskProfileType string

const (
	RiskConservative RiskProfileType = "conservative"
	RiskModerate     RiskProfileType = "moderate"
	RiskAggressive   RiskProfileType = "aggressive"
)

func (t RiskProfileType) IsValid() bool {
	switch t {
	case RiskConservative, RiskModerate, RiskAggressive:
		return true
	}
	return false
}

const (
	MinMaxRisk       = 0.5
	MaxMaxRisk       = 10.0
	MaxRiskStep      = 0.5
	MinPositionSize  = 0.1
	MaxPositionSize  = 5.0
	PositionSizeStep = 0.1
)

type RiskProfile struct {
	Type         RiskProfileType `json:"type" validate:"required,oneof=conservative moderate aggressive"`
	MaxRisk      float64         `json:"maxRisk" validate:"gte=0.5,lte=10"`
	PositionSize float64         `json:"positionSize" validate:"gte=0.1,lte=5"`
}

var ErrInvalidRiskProfile = errors.New("invalid risk profile")

// WithMaxRisk returns a copy with maxRisk clamped to [0.5, 10] and snapped to 0.5 steps.
// The profile type is left untouched.
func (r RiskProfile) WithMaxRisk(v float64) RiskProfile {
	r.MaxRisk = snap(v, MinMaxRisk, MaxMaxRisk, MaxRiskStep)
	return r
}

// WithPositionSize returns a copy with positionSize clamped to [0.1, 5] and snapped to 0.1 steps.
func (r RiskProfile) WithPositionSize(v float64) RiskProfile {
	r.PositionSize = snap(v, MinPositionSize, MaxPositionSize, PositionSizeStep)
	return r
}

func (r RiskProfile) Validate() error {
	if !r.Type.IsValid() {
		return ErrInvalidRiskProfile
	}
	if !(r.MaxRisk >= MinMaxRisk && r.MaxRisk <= MaxMaxRisk) {
		return ErrInvalidRiskProfile
	}
	if !(r.PositionSize >= MinPositionSize && r.PositionSize <= MaxPositionSize) {
		return ErrInvalidRiskProfile
	}
	return nil
}

func snap(v, lo, hi, step float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	v = math.Round(v/step) * step
	v = math.Round(v*10) / 10
	return math.Min(hi, math.Max(lo, v))
}

type Recommendation string

const (
	RecommendationBuy  Recommendation = "buy"
	RecommendationSell Recommendation = "sell"
	RecommendationHold Recommendation = "hold"
)

// ParseRecommendation lowercases s; anything other than buy/sell is hold.
func ParseRecommendation(s string) Recommendation {
	switch Recommendation(strings.ToLower(strings.TrimSpace(s))) {
	case RecommendationBuy:
		return RecommendationBuy
	case RecommendationSell:
		return RecommendationSell
	}
	return RecommendationHold
}

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

type TrendDirection string

const (
	TrendUp       TrendDirection = "UP"
	TrendDown     TrendDirection = "DOWN"
	TrendSideways TrendDirection = "SIDEWAYS"
)

// Renderable reports whether the trend is one of the three values the UI knows how to show.
func (t TrendDirection) Renderable() bool {
	switch t {
	case TrendUp, TrendDown, TrendSideways:
		return true
	}
	return false
}

// ImageAnalysis is the raw image-analysis bag exactly as the analysis service sent it.
// Its fields may use snake_case or camelCase keys; read it through analysis.Normalize.
type ImageAnalysis []byte

var jsonNull = []byte("null")

func (a ImageAnalysis) IsZero() bool {
	trimmed := bytes.TrimSpace(a)
	return len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull)
}

func (a ImageAnalysis) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return jsonNull, nil
	}
	return a, nil
}

func (a *ImageAnalysis) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*a = nil
		return nil
	}
	*a = append((*a)[0:0], data...)
	return nil
}

// NormalizedImageAnalysis is the canonical form of ImageAnalysis.
type NormalizedImageAnalysis struct {
	Action           string    `json:"action"`
	Confidence       float64   `json:"confidence"`
	Reasoning        string    `json:"reasoning"`
	SupportLevels    []float64 `json:"support_levels"`
	ResistanceLevels []float64 `json:"resistance_levels"`
	TrendDirection   string    `json:"trend_direction"`
	VisualPatterns   []string  `json:"visual_patterns"`
}

// Trend returns the trend as a TrendDirection; check Renderable before showing it.
func (n NormalizedImageAnalysis) Trend() TrendDirection {
	return TrendDirection(n.TrendDirection)
}

type AnalysisResult struct {
	Recommendation           Recommendation `json:"recommendation"`
	Confidence               float64        `json:"confidence"`
	EntryPrice               float64        `json:"entryPrice"`
	StopLoss                 float64        `json:"stopLoss"`
	TakeProfits              [3]float64     `json:"takeProfits"`
	Reasoning                string         `json:"reasoning"`
	DiscrepancyWarning       string         `json:"discrepancyWarning,omitempty"`
	ImageAnalysis            ImageAnalysis  `json:"imageAnalysis,omitempty"`
	ImageAnalysisDiscrepancy ImageAnalysis  `json:"imageAnalysisDiscrepancy,omitempty"`
}

// AnalysisRequest is everything one analysis needs. ImageURL is a data URL.
type AnalysisRequest struct {
	ImageURL    string      `json:"imageUrl" validate:"required,startswith=data:image/"`
	RiskProfile RiskProfile `json:"riskProfile"`
	Timeframe   Timeframe   `json:"timeframe"`
	Asset       Asset       `json:"asset"`
}

// Image is an accepted chart upload. DataURL carries the bytes as a base64 data URL.
type Image struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	DataURL   string `json:"dataUrl"`
}
