package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"candle-lens/pkg/logger"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serverName    = "candle-lens-mcp"
	serverVersion = "1.0.0"

	defaultAnalyzeTimeout = 30 * time.Second
	catalogTimeout        = 5 * time.Second

	analyzeTool = "chart_analyze"
)

// ServerConfig tunes the tool surface. Zero values fall back to defaults.
type ServerConfig struct {
	// RequestTimeout bounds chart_analyze. Catalog lookups never wait longer than
	// catalogTimeout.
	RequestTimeout time.Duration
	// ChartDir is the root for chart_analyze image paths. Empty disables file paths.
	ChartDir string
	// MaxImageBytes caps images read from ChartDir or decoded from data URLs.
	MaxImageBytes int64
	Logger        *logger.Logger
}

// NewServer exposes the chart catalog and the analysis pipeline as MCP tools and resources.
func NewServer(tracer trace.Tracer, analyzer ChartAnalyzer, cfg ServerConfig) *sdkmcp.Server {
	srv := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &sdkmcp.ServerOptions{
		Instructions: "Browse the asset and timeframe catalog, then call chart_analyze with a candlestick chart image for a trade recommendation.",
		Logger:       slog.Default(),
	})

	registerTools(srv, analyzer, imageLoader{
		analyzer: analyzer,
		dir:      cfg.ChartDir,
		limit:    cfg.MaxImageBytes,
	})
	registerResources(srv)
	srv.AddReceivingMiddleware(instrument(tracer, cfg))
	return srv
}

// NewHTTPTransportHandler serves server over streamable HTTP behind the auth, rate and body limits in cfg.
func NewHTTPTransportHandler(server *sdkmcp.Server, cfg HTTPHandlerConfig) http.Handler {
	base := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{})
	return wrapHTTPHandler(base, cfg)
}

// instrument gives every request its deadline, a span when tracing is on and a log
// line when it fails.
func instrument(tracer trace.Tracer, cfg ServerConfig) sdkmcp.Middleware {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	analyzeTimeout := cfg.RequestTimeout
	if analyzeTimeout <= 0 {
		analyzeTimeout = defaultAnalyzeTimeout
	}

	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			target := requestTarget(req)
			ctx, cancel := context.WithTimeout(ctx, deadlineFor(method, target, analyzeTimeout))
			defer cancel()

			var span trace.Span
			if tracer != nil {
				ctx, span = tracer.Start(ctx, spanName(method, target))
				span.SetAttributes(
					attribute.String("mcp.method", method),
					attribute.String("mcp.target", target),
				)
				defer span.End()
			}

			start := time.Now()
			result, err := next(ctx, method, req)
			switch {
			case err != nil:
				if span != nil {
					span.RecordError(err)
				}
				log.WarnContext(ctx, "mcp request failed",
					logger.StringField("method", method),
					logger.StringField("target", target),
					logger.DurationField("elapsed", time.Since(start)),
					logger.ErrorField(err),
				)
			case isToolError(result):
				log.InfoContext(ctx, "mcp tool returned an error",
					logger.StringField("tool", target),
					logger.DurationField("elapsed", time.Since(start)),
				)
			}
			return result, err
		}
	}
}

// requestTarget names what a request acts on: the tool for calls, the URI for reads.
func requestTarget(req sdkmcp.Request) string {
	switch r := req.(type) {
	case *sdkmcp.CallToolRequest:
		return strings.TrimSpace(r.Params.Name)
	case *sdkmcp.ReadResourceRequest:
		return strings.TrimSpace(r.Params.URI)
	}
	return ""
}

func deadlineFor(method, target string, analyzeTimeout time.Duration) time.Duration {
	if method == "tools/call" && target == analyzeTool {
		return analyzeTimeout
	}
	return min(analyzeTimeout, catalogTimeout)
}

func spanName(method, target string) string {
	switch {
	case method == "tools/call" && target != "":
		return "mcp.tool." + strings.ReplaceAll(target, "/", ".")
	case method == "resources/read":
		return "mcp.resource.read"
	}
	return "mcp." + strings.ReplaceAll(method, "/", ".")
}

func isToolError(result sdkmcp.Result) bool {
	r, ok := result.(*sdkmcp.CallToolResult)
	return ok && r != nil && r.IsError
}
