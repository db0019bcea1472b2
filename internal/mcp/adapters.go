package mcp

import (
	"context"

	"candle-lens/internal/domain"
)

// ChartAnalyzer exposes image preparation, analysis and normalization to MCP clients.
type ChartAnalyzer interface {
	PrepareImage(ctx context.Context, name string, data []byte, declared string) (*domain.Image, error)
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
	NormalizeImageAnalysis(ctx context.Context, raw domain.ImageAnalysis) *domain.NormalizedImageAnalysis
}
