package mcp

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"candle-lens/internal/domain"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         "catalog://assets",
		Name:        "assets",
		Description: "Popular assets grouped in selector order",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, assetsListOutput{Assets: domain.AllAssets()})
	})

	server.AddResource(&mcp.Resource{
		URI:         "catalog://timeframes",
		Name:        "timeframes",
		Description: "Scalp and swing timeframes",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return jsonResource(req.Params.URI, timeframesListOutput{Timeframes: domain.AllTimeframes()})
	})

	server.AddResource(&mcp.Resource{
		URI:         "catalog://risk-profiles",
		Name:        "risk-profiles",
		Description: "Risk profile presets and slider limits",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		out, err := riskDefaults("")
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, out)
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "catalog://assets/{symbol}",
		Name:        "asset-by-symbol",
		Description: "One catalog asset by symbol",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		parsed, err := url.Parse(req.Params.URI)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if parsed.Scheme != "catalog" || parsed.Host != "assets" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		symbol := strings.Trim(strings.TrimSpace(parsed.Path), "/")
		asset, ok := domain.LookupAsset(symbol)
		if !ok {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return jsonResource(req.Params.URI, asset)
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}
