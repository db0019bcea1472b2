package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"candle-lens/internal/config"
	mcpserver "candle-lens/internal/mcp"
	"candle-lens/internal/provider"
	"candle-lens/internal/service"
	"candle-lens/pkg/logger"
	"candle-lens/pkg/metrics"
	"candle-lens/pkg/tracing"

	"github.com/joho/godotenv"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	newLoggerFunc          = logger.New
	initTracerFunc         = tracing.InitTracer
	newAnalyzerFunc        = provider.New
	newAnalysisServiceFunc = service.NewAnalysisService
	newMCPServerFunc       = mcpserver.NewServer
	newMCPHandlerFunc      = mcpserver.NewHTTPTransportHandler
	runStdioFunc           = func(ctx context.Context, server *sdkmcp.Server) error {
		return server.Run(ctx, &sdkmcp.StdioTransport{})
	}
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFn = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify    = ossignal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()

	// zap writes to stderr, which keeps stdout free for the stdio transport.
	appLog, err := newLoggerFunc(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			appLog.Error("error shutting down tracer provider", logger.ErrorField(err))
		}
	}()

	analyzer, err := newAnalyzerFunc(cfg, appLog)
	if err != nil {
		log.Fatalf("failed to initialize analysis backend: %v", err)
	}
	analysisService := newAnalysisServiceFunc(tracer, analyzer, metrics.New(), appLog, cfg.MaxUploadBytes)

	mcpSrv := newMCPServerFunc(tracer, analysisService, mcpserver.ServerConfig{
		RequestTimeout: time.Duration(cfg.MCPRequestTimeoutSecs) * time.Second,
		ChartDir:       cfg.TUIChartDir,
		MaxImageBytes:  cfg.MaxUploadBytes,
		Logger:         appLog,
	})

	transport := strings.ToLower(strings.TrimSpace(cfg.MCPTransport))
	switch transport {
	case "", "stdio":
		appLog.Info("MCP server running on stdio", logger.StringField("backend", analysisService.Backend()))
		if err := runStdioFunc(ctx, mcpSrv); err != nil {
			log.Fatalf("mcp stdio server failed: %v", err)
		}
	case "http":
		if err := runHTTPMode(ctx, cancel, cfg, mcpSrv, appLog); err != nil {
			log.Fatalf("mcp http server failed: %v", err)
		}
	default:
		log.Fatalf("unsupported MCP_TRANSPORT: %s", cfg.MCPTransport)
	}
}

func runHTTPMode(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, mcpSrv *sdkmcp.Server, appLog *logger.Logger) error {
	if !cfg.MCPHTTPEnabled {
		return fmt.Errorf("MCP_HTTP_ENABLED must be true when MCP_TRANSPORT=http")
	}
	if strings.TrimSpace(cfg.MCPAuthToken) == "" {
		return fmt.Errorf("MCP_AUTH_TOKEN is required when MCP_TRANSPORT=http")
	}
	if appLog == nil {
		appLog = logger.Nop()
	}

	handler := newMCPHandlerFunc(mcpSrv, mcpserver.HTTPHandlerConfig{
		AuthToken:       cfg.MCPAuthToken,
		RateLimitPerMin: cfg.MCPRateLimitPerMin,
		MaxBodyBytes:    cfg.MCPMaxBodyBytes,
	})

	addr := net.JoinHostPort(cfg.MCPHTTPBind, fmt.Sprintf("%d", cfg.MCPHTTPPort))
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		appLog.Info("MCP HTTP server listening", logger.StringField("addr", addr))
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			appLog.Error("mcp http server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFn(srv, shutdownCtx); err != nil {
		return fmt.Errorf("mcp server forced to shutdown: %w", err)
	}
	return nil
}
