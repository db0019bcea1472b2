package handler

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"candle-lens/internal/domain"
	"candle-lens/internal/service"
	"candle-lens/internal/session"
	"candle-lens/pkg/logger"
	"candle-lens/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"
)

//go:embed templates/*.html
var templatesFS embed.FS

const sessionCookie = "candle_lens_session"

var errMissingImage = errors.New("image file is required")

var templateFuncs = template.FuncMap{
	// imageURL trusts only image data URLs produced by the upload path.
	"imageURL": func(s string) template.URL {
		if strings.HasPrefix(s, "data:image/") {
			return template.URL(s)
		}
		return ""
	},
}

type Handler struct {
	tracer         trace.Tracer
	analysis       *service.AnalysisService
	sessions       *session.Manager
	metrics        *metrics.Recorder
	log            *logger.Logger
	templates      *template.Template
	upgrader       websocket.Upgrader
	maxUploadBytes int64
	inflight       sync.WaitGroup
}

func New(
	tracer trace.Tracer,
	analysisService *service.AnalysisService,
	sessions *session.Manager,
	recorder *metrics.Recorder,
	log *logger.Logger,
	maxUploadBytes int64,
) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		tracer:         tracer,
		analysis:       analysisService,
		sessions:       sessions,
		metrics:        recorder,
		log:            log,
		templates:      template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")),
		maxUploadBytes: maxUploadBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(h.templates)

	r.GET("/health", h.Health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	r.GET("/", h.Page)
	r.POST("/upload", h.Upload)
	r.POST("/image/remove", h.RemoveImage)
	r.POST("/asset", h.SelectAsset)
	r.POST("/timeframe", h.SelectTimeframe)
	r.POST("/risk", h.UpdateRisk)
	r.POST("/analyze", h.StartAnalysis)
	r.POST("/result/close", h.CloseResult)
	r.POST("/new-analysis", h.NewAnalysis)
	r.POST("/reset", h.Reset)

	r.GET("/api/assets", h.ListAssets)
	r.GET("/api/timeframes", h.ListTimeframes)
	r.GET("/api/risk-profiles", h.ListRiskProfiles)
	r.GET("/api/session", h.GetSession)
	r.POST("/api/analyze", h.Analyze)
	r.POST("/api/normalize", h.Normalize)
	r.GET("/api/ws/analyze", h.AnalyzeStream)
}

// CORS allows the JSON API to be called from the given origins. "*" allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	cfg.ExposeHeaders = []string{"Content-Length"}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// AllowOrigins applies the CORS origin list to websocket upgrades. Until it is called
// only same-origin upgrades are accepted.
func (h *Handler) AllowOrigins(origins []string) {
	h.upgrader.CheckOrigin = originChecker(origins)
}

// originChecker accepts origins from the list, the server's own origin and clients
// that send no Origin at all. An empty list or "*" accepts everything, as CORS does.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
		if o == "*" {
			allowed = nil
			break
		}
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := allowed[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Wait blocks until analyses started by the HTML surface have settled.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

// Health godoc
// @Summary      Health check
// @Description  Reports liveness and the configured analysis backend
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": h.analysis.Backend()})
}

// statusFor maps an error from the analysis path onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotAnImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, service.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errMissingImage),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, session.ErrCannotAnalyze),
		errors.Is(err, domain.ErrInvalidRiskProfile),
		errors.Is(err, domain.ErrEmptySymbol):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrAnalysisInFlight):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// detachedContext keeps the request's span as parent for work that outlives the request.
func detachedContext(ctx context.Context) context.Context {
	return trace.ContextWithSpanContext(context.Background(), trace.SpanContextFromContext(ctx))
}
