package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"candle-lens/internal/config"
	"candle-lens/internal/provider"
	"candle-lens/internal/service"
	"candle-lens/internal/tui"
	"candle-lens/pkg/logger"
	"candle-lens/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initTracerFunc         = tracing.InitTracer
	newAnalyzerFunc        = provider.New
	newAnalysisServiceFunc = service.NewAnalysisService
	runProgramFunc         = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		backend  string
		image    string
		chartDir string
	)
	cmd := &cobra.Command{
		Use:   "candle-lens-tui",
		Short: "Analyze candlestick charts from the terminal",
		Example: `  candle-lens-tui
  candle-lens-tui --image ~/charts/btc-1h.png
  candle-lens-tui --backend simulated --chart-dir ./charts`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = loadEnvFunc()
			cfg := loadConfigFunc()
			if b := strings.ToLower(strings.TrimSpace(backend)); b != "" {
				if b != config.BackendRemote && b != config.BackendSimulated {
					return fmt.Errorf("unsupported backend %q", backend)
				}
				cfg.AnalysisBackend = b
			}
			return run(cmd.Context(), cfg, tui.Services{InitialImage: image, ChartDir: chartDir, MaxImageBytes: cfg.MaxUploadBytes, Username: os.Getenv("USER")})
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "analysis backend (remote or simulated); defaults to ANALYSIS_BACKEND")
	cmd.Flags().StringVar(&image, "image", "", "chart image to load on start")
	cmd.Flags().StringVar(&chartDir, "chart-dir", "", "confine image paths to this directory")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, svc tui.Services) error {
	if ctx == nil {
		ctx = context.Background()
	}
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Log lines would corrupt the alternate screen.
	appLog := logger.Nop()
	analyzer, err := newAnalyzerFunc(cfg, appLog)
	if err != nil {
		return fmt.Errorf("initialize analysis backend: %w", err)
	}
	svc.Analysis = newAnalysisServiceFunc(tracer, analyzer, nil, appLog, cfg.MaxUploadBytes)

	return runProgramFunc(tui.NewAppModel(svc))
}
