package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"candle-lens/internal/config"
	"candle-lens/internal/provider"
	"candle-lens/internal/service"
	"candle-lens/internal/tui"
	"candle-lens/pkg/logger"
	"candle-lens/pkg/metrics"
	"candle-lens/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	newLoggerFunc          = logger.New
	initTracerFunc         = tracing.InitTracer
	newAnalyzerFunc        = provider.New
	newAnalysisServiceFunc = service.NewAnalysisService
	startSSHServerFunc     = func(srv *ssh.Server) error { return srv.ListenAndServe() }
	shutdownSSHServerFunc  = func(srv *ssh.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()

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

	chartDir, err := filepath.Abs(cfg.TUIChartDir)
	if err != nil {
		log.Fatalf("invalid chart directory %q: %v", cfg.TUIChartDir, err)
	}
	if dir := filepath.Dir(cfg.SSHHostKeyPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			log.Fatalf("failed to create host key directory: %v", err)
		}
	}

	addr := net.JoinHostPort(cfg.SSHHost, strconv.Itoa(cfg.SSHPort))
	srv, err := wish.NewServer(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithMiddleware(
			bm.Middleware(teaHandler(tui.Services{Analysis: analysisService, ChartDir: chartDir, MaxImageBytes: cfg.MaxUploadBytes})),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create ssh server: %v", err)
	}

	go func() {
		appLog.Info("SSH server listening",
			logger.StringField("addr", addr),
			logger.StringField("chart_dir", chartDir),
		)
		if err := startSSHServerFunc(srv); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			log.Fatalf("ssh listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	appLog.Info("Shutting down SSH server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownSSHServerFunc(srv, shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Fatal("SSH server forced to shutdown:", err)
	}
}

// teaHandler gives every SSH session its own app model and analysis session.
func teaHandler(base tui.Services) bm.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, _ := s.Pty()
		return newSessionModel(base, s.User(), pty.Window.Width, pty.Window.Height), []tea.ProgramOption{tea.WithAltScreen()}
	}
}

func newSessionModel(base tui.Services, user string, width, height int) tui.AppModel {
	svc := base
	svc.Username = user
	svc.InitialImage = ""
	m := tui.NewAppModel(svc)
	if width > 0 && height > 0 {
		m.SetSize(width, height)
	}
	return m
}
