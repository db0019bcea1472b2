package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"candle-lens/internal/bot"
	"candle-lens/internal/config"
	"candle-lens/internal/session"
	"candle-lens/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps(t)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func TestHTTPAddrFromEnv(t *testing.T) {
	t.Setenv("PORT", "")
	if got := httpAddrFromEnv(); got != ":8080" {
		t.Fatalf("expected default :8080, got %s", got)
	}

	t.Setenv("PORT", "9090")
	if got := httpAddrFromEnv(); got != ":9090" {
		t.Fatalf("expected :9090, got %s", got)
	}

	t.Setenv("PORT", ":7070")
	if got := httpAddrFromEnv(); got != ":7070" {
		t.Fatalf("expected :7070, got %s", got)
	}
}

func TestNewSessionStore(t *testing.T) {
	ctx := context.Background()

	store, closeStore, err := newSessionStore(ctx, &config.Config{SessionStore: config.SessionStoreMemory, SessionTTLMins: 5})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	closeStore()
	if _, ok := store.(*session.MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}

	mr := miniredis.RunT(t)
	store, closeStore, err = newSessionStore(ctx, &config.Config{SessionStore: config.SessionStoreRedis, SessionTTLMins: 5, RedisURL: mr.Addr()})
	if err != nil {
		t.Fatalf("redis store: %v", err)
	}
	defer closeStore()
	if _, ok := store.(*session.RedisStore); !ok {
		t.Fatalf("expected redis store, got %T", store)
	}

	addr := mr.Addr()
	mr.Close()
	if _, _, err := newSessionStore(ctx, &config.Config{SessionStore: config.SessionStoreRedis, RedisURL: addr}); err == nil {
		t.Fatal("expected redis connection error")
	}
}

func stubServerDeps(t *testing.T) func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origNewLogger := newLoggerFunc
	origInitTracer := initTracerFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			LogLevel:           "info",
			LogEncoding:        "json",
			AnalysisBackend:    config.BackendSimulated,
			MaxUploadBytes:     1 << 20,
			SessionStore:       config.SessionStoreMemory,
			SessionTTLMins:     5,
			CORSAllowedOrigins: []string{"*"},
		}
	}
	newLoggerFunc = func(string, string) (*logger.Logger, error) { return logger.Nop(), nil }
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	startTelegramBotFunc = func(_ bot.ChartAnalyzer, _ *logger.Logger, maxImageBytes int64) *tele.Bot {
		if maxImageBytes != 1<<20 {
			t.Errorf("expected telegram bot to get the upload limit, got %d", maxImageBytes)
		}
		return nil
	}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		newLoggerFunc = origNewLogger
		initTracerFunc = origInitTracer
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}
