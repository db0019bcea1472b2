package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"candle-lens/internal/chartimage"
	"candle-lens/internal/domain"
	"candle-lens/internal/view"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, analyzer ChartAnalyzer, images imageLoader) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "assets_list",
		Description: "List the popular assets offered by the selector, optionally for one category",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in assetsListInput) (*mcp.CallToolResult, assetsListOutput, error) {
		assets, err := filterAssets(in.Category)
		if err != nil {
			return nil, assetsListOutput{}, err
		}
		return nil, assetsListOutput{Assets: assets}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "timeframes_list",
		Description: "List the scalp and swing timeframes accepted by chart_analyze",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in timeframesListInput) (*mcp.CallToolResult, timeframesListOutput, error) {
		tfs, err := filterTimeframes(in.Category)
		if err != nil {
			return nil, timeframesListOutput{}, err
		}
		return nil, timeframesListOutput{Timeframes: tfs}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "risk_profile_defaults",
		Description: "Get risk profile presets and the allowed slider ranges",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in riskProfileDefaultsInput) (*mcp.CallToolResult, riskProfileDefaultsOutput, error) {
		out, err := riskDefaults(in.Type)
		if err != nil {
			return nil, riskProfileDefaultsOutput{}, err
		}
		return nil, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        analyzeTool,
		Description: "Analyze a candlestick chart image and return a trade recommendation with entry, stop and take-profit levels",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in chartAnalyzeInput) (*mcp.CallToolResult, chartAnalyzeOutput, error) {
		if analyzer == nil {
			return nil, chartAnalyzeOutput{}, fmt.Errorf("analysis service unavailable")
		}
		asset, err := normalizeAsset(in.Symbol, in.Category)
		if err != nil {
			return nil, chartAnalyzeOutput{}, err
		}
		tf, err := normalizeTimeframe(in.Timeframe)
		if err != nil {
			return nil, chartAnalyzeOutput{}, err
		}
		risk, err := normalizeRiskProfile(in)
		if err != nil {
			return nil, chartAnalyzeOutput{}, err
		}
		img, err := images.load(ctx, in)
		if err != nil {
			return nil, chartAnalyzeOutput{}, err
		}

		res, err := analyzer.Analyze(ctx, domain.AnalysisRequest{
			ImageURL:    img.DataURL,
			RiskProfile: risk,
			Timeframe:   tf,
			Asset:       asset,
		})
		if err != nil {
			return nil, chartAnalyzeOutput{}, err
		}
		result, err := resultMap(res)
		if err != nil {
			return nil, chartAnalyzeOutput{}, err
		}
		return nil, chartAnalyzeOutput{
			Asset:       asset,
			Timeframe:   tf,
			RiskProfile: risk,
			Result:      result,
			Summary:     view.Text(view.BuildResult(res)),
		}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analysis_normalize",
		Description: "Normalize a raw image analysis object into action, confidence, levels, trend and patterns",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in analysisNormalizeInput) (*mcp.CallToolResult, analysisNormalizeOutput, error) {
		if analyzer == nil {
			return nil, analysisNormalizeOutput{}, fmt.Errorf("analysis service unavailable")
		}
		var raw domain.ImageAnalysis
		if in.Analysis != nil {
			body, err := json.Marshal(in.Analysis)
			if err != nil {
				return nil, analysisNormalizeOutput{}, err
			}
			raw = body
		}
		n := analyzer.NormalizeImageAnalysis(ctx, raw)
		return nil, analysisNormalizeOutput{Present: n != nil, Normalized: n}, nil
	})
}

// imageLoader turns chart_analyze's image arguments into a prepared image.
type imageLoader struct {
	analyzer ChartAnalyzer
	dir      string
	limit    int64
}

func (l imageLoader) load(ctx context.Context, in chartAnalyzeInput) (*domain.Image, error) {
	path := strings.TrimSpace(in.ImagePath)
	dataURL := strings.TrimSpace(in.ImageDataURL)
	if (path == "") == (dataURL == "") {
		return nil, errImageSource
	}

	if dataURL != "" {
		mediaType, data, err := chartimage.DecodeDataURL(dataURL, l.limit)
		if err != nil {
			return nil, fmt.Errorf("image_data_url: %w", err)
		}
		return l.analyzer.PrepareImage(ctx, "chart", data, mediaType)
	}

	if strings.TrimSpace(l.dir) == "" {
		return nil, errFilePathDisabled
	}
	full, err := chartimage.Confine(l.dir, path)
	if err != nil {
		return nil, fmt.Errorf("image_path: %w", err)
	}
	data, err := chartimage.ReadFile(full, l.limit)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return l.analyzer.PrepareImage(ctx, filepath.Base(full), data, "")
}
