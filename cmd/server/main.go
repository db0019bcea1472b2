package main

import (
	"context"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"candle-lens/internal/bot"
	"candle-lens/internal/cache"
	"candle-lens/internal/config"
	"candle-lens/internal/handler"
	"candle-lens/internal/provider"
	"candle-lens/internal/service"
	"candle-lens/internal/session"
	"candle-lens/pkg/logger"
	"candle-lens/pkg/metrics"
	"candle-lens/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "candle-lens/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	newLoggerFunc          = logger.New
	initTracerFunc         = tracing.InitTracer
	newMetricsFunc         = metrics.New
	newAnalyzerFunc        = provider.New
	newSessionStoreFunc    = newSessionStore
	newAnalysisServiceFunc = service.NewAnalysisService
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Candle Lens API
// @version         1.0
// @description     Candlestick chart analysis with AI trade recommendations.

// @host      localhost:8080
// @BasePath  /
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

	recorder := newMetricsFunc()

	analyzer, err := newAnalyzerFunc(cfg, appLog)
	if err != nil {
		log.Fatalf("failed to initialize analysis backend: %v", err)
	}
	analysisService := newAnalysisServiceFunc(tracer, analyzer, recorder, appLog, cfg.MaxUploadBytes)

	store, closeStore, err := newSessionStoreFunc(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize session store: %v", err)
	}
	defer closeStore()
	sessions := session.NewManager(store)

	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	telegram := startTelegramBotFunc(analysisService, appLog, cfg.MaxUploadBytes)

	h := newHandlerFunc(tracer, analysisService, sessions, recorder, appLog, cfg.MaxUploadBytes)
	h.AllowOrigins(cfg.CORSAllowedOrigins)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))
	r.Use(handler.CORS(cfg.CORSAllowedOrigins))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    httpAddrFromEnv(),
		Handler: r,
	}

	go func() {
		appLog.Info("HTTP server listening",
			logger.StringField("addr", srv.Addr),
			logger.StringField("backend", analysisService.Backend()),
		)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	appLog.Info("Shutting down server...")

	if telegram != nil {
		telegram.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	h.Wait()

	appLog.Info("Server exiting")
}

func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	ttl := time.Duration(cfg.SessionTTLMins) * time.Minute
	if cfg.SessionStore != config.SessionStoreRedis {
		return session.NewMemoryStore(ttl), func() {}, nil
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisStore(client, ttl), func() { _ = client.Close() }, nil
}

func httpAddrFromEnv() string {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
