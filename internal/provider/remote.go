package provider

import (
	"context"
	"fmt"
	"strings"

	"candle-lens/internal/analysis"
	"candle-lens/internal/config"
	"candle-lens/internal/domain"
	"candle-lens/pkg/httpclient"
	"candle-lens/pkg/logger"

	"github.com/tidwall/gjson"
)

const (
	predictEndpoint = "/predict"
	legacyLimit     = 100
)

// ServiceError is a non-2xx answer from the analysis service. Error returns the message
// verbatim so it can be shown to the user as is.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

type RemoteAnalyzer struct {
	client   httpclient.HTTPClient
	contract string
	log      *logger.Logger
}

// NewRemoteAnalyzer posts requests to {base}/predict using the given body contract.
func NewRemoteAnalyzer(client httpclient.HTTPClient, contract string, log *logger.Logger) *RemoteAnalyzer {
	if log == nil {
		log = logger.Nop()
	}
	if contract != config.ContractLegacy {
		contract = config.ContractStructured
	}
	if contract == config.ContractLegacy {
		log.Warn("ANALYSIS_REQUEST_CONTRACT=legacy is deprecated; the structured contract is canonical")
	}
	return &RemoteAnalyzer{client: client, contract: contract, log: log}
}

func (r *RemoteAnalyzer) Name() string {
	return config.BackendRemote
}

type legacyRequest struct {
	Symbol    string `json:"symbol"`
	Interval  string `json:"interval"`
	Limit     int    `json:"limit"`
	ImageData string `json:"image_data"`
}

func (r *RemoteAnalyzer) body(req domain.AnalysisRequest) interface{} {
	if r.contract == config.ContractLegacy {
		return legacyRequest{
			Symbol:    req.Asset.Symbol,
			Interval:  req.Timeframe.Value,
			Limit:     legacyLimit,
			ImageData: bareBase64(req.ImageURL),
		}
	}
	return req
}

func (r *RemoteAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	resp, err := r.client.Post(ctx, predictEndpoint, r.body(req), nil)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}

	if !resp.IsSuccess() {
		msg := gjson.GetBytes(resp.Body, "error")
		if msg.Type == gjson.String && msg.Str != "" {
			return nil, &ServiceError{StatusCode: resp.StatusCode, Message: msg.Str}
		}
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("analysis service returned status %d", resp.StatusCode),
		}
	}

	result, err := analysis.DecodeResult(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	return result, nil
}

// bareBase64 strips the "data:<type>;base64," prefix of a data URL.
func bareBase64(dataURL string) string {
	if !strings.HasPrefix(dataURL, "data:") {
		return dataURL
	}
	if i := strings.Index(dataURL, ","); i >= 0 {
		return dataURL[i+1:]
	}
	return dataURL
}
