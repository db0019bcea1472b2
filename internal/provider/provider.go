package provider

import (
	"context"
	"fmt"
	"time"

	"candle-lens/internal/config"
	"candle-lens/internal/domain"
	"candle-lens/pkg/httpclient"
	"candle-lens/pkg/logger"
)

// Analyzer turns one analysis request into one result. Implementations make exactly one
// attempt per call and never retry.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
	Name() string
}

// New builds the backend selected by cfg.AnalysisBackend.
func New(cfg *config.Config, log *logger.Logger) (Analyzer, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch cfg.AnalysisBackend {
	case config.BackendSimulated:
		log.Warn("using simulated analysis backend; results are random placeholders")
		return NewSimulatedAnalyzer(time.Duration(cfg.SimulationDelayMillis)*time.Millisecond, cfg.SimulationSeed), nil
	case config.BackendRemote:
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		client := httpclient.New(cfg.AnalysisBaseURL, time.Duration(cfg.AnalysisTimeoutSecs)*time.Second)
		return NewRemoteAnalyzer(client, cfg.AnalysisRequestContract, log), nil
	default:
		return nil, fmt.Errorf("unknown analysis backend %q", cfg.AnalysisBackend)
	}
}
