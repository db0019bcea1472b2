package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"candle-lens/internal/analysis"
	"candle-lens/internal/domain"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubAnalyzer struct {
	result     *domain.AnalysisResult
	analyzeErr error
	lastReq    domain.AnalysisRequest
	lastName   string
	lastType   string
}

func (s *stubAnalyzer) PrepareImage(ctx context.Context, name string, data []byte, declared string) (*domain.Image, error) {
	s.lastName = name
	s.lastType = declared
	return &domain.Image{Name: name, MediaType: "image/png", DataURL: "data:image/png;base64,iVBORw0KGgo="}, nil
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	s.lastReq = req
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	return s.result, nil
}

func (s *stubAnalyzer) NormalizeImageAnalysis(ctx context.Context, raw domain.ImageAnalysis) *domain.NormalizedImageAnalysis {
	return analysis.Normalize(raw)
}

func testServer(chartDir string) (*sdkmcp.Server, *stubAnalyzer) {
	analyzer := &stubAnalyzer{result: &domain.AnalysisResult{
		Recommendation: domain.RecommendationBuy,
		Confidence:     82,
		EntryPrice:     45000,
		StopLoss:       44000,
		TakeProfits:    [3]float64{46000, 47000, 48000},
		Reasoning:      "Rompimento",
		ImageAnalysis:  domain.ImageAnalysis(`{"action":"BUY","confidence":0.7}`),
	}}

	srv := NewServer(nil, analyzer, ServerConfig{RequestTimeout: time.Second, ChartDir: chartDir})
	return srv, analyzer
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

type authRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.token)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func decodeStructured(result *sdkmcp.CallToolResult, out any) error {
	body, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
