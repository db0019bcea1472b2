package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"candle-lens/internal/domain"
	"candle-lens/internal/service"
	"candle-lens/internal/session"
	"candle-lens/internal/view"
	"candle-lens/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type stubAnalyzer struct {
	mu      sync.Mutex
	result  *domain.AnalysisResult
	err     error
	block   chan struct{}
	lastReq domain.AnalysisRequest
	calls   int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	s.mu.Lock()
	s.lastReq = req
	s.calls++
	block := s.block
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubAnalyzer) Name() string { return "stub" }

func (s *stubAnalyzer) request() domain.AnalysisRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq
}

func buyResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		Recommendation: domain.RecommendationBuy,
		Confidence:     82,
		EntryPrice:     45000,
		StopLoss:       44000,
		TakeProfits:    [3]float64{46000, 47000, 48000},
		Reasoning:      "Rompimento confirmado",
	}
}

func newTestHandler(analyzer service.Analyzer) (*Handler, *gin.Engine) {
	return newTestHandlerWith(analyzer, session.NewMemoryStore(time.Hour), 1<<20)
}

func newTestHandlerWith(analyzer service.Analyzer, store session.Store, maxUploadBytes int64) (*Handler, *gin.Engine) {
	tracer := trace.NewNoopTracerProvider().Tracer("handler-test")
	recorder := metrics.New()
	svc := service.NewAnalysisService(tracer, analyzer, recorder, nil, maxUploadBytes)
	mgr := session.NewManager(store)
	h := New(tracer, svc, mgr, recorder, nil, maxUploadBytes)

	router := gin.New()
	h.RegisterRoutes(router)
	return h, router
}

// flakyStore fails the next failSaves writes.
type flakyStore struct {
	session.Store
	mu        sync.Mutex
	failSaves int
}

func (f *flakyStore) failNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSaves = n
}

func (f *flakyStore) Save(ctx context.Context, s *session.Session) error {
	f.mu.Lock()
	if f.failSaves > 0 {
		f.failSaves--
		f.mu.Unlock()
		return errors.New("store unavailable")
	}
	f.mu.Unlock()
	return f.Store.Save(ctx, s)
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "chart.png")
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		part.Write(image)
	}
	w.Close()
	return body, w.FormDataContentType()
}

type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	if cks := w.Result().Cookies(); len(cks) > 0 {
		c.cookies = cks
	}
	return w
}

func (c *client) form(path string, values map[string]string) *httptest.ResponseRecorder {
	var parts []string
	for k, v := range values {
		parts = append(parts, k+"="+v)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(strings.Join(parts, "&")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) upload(image []byte) *httptest.ResponseRecorder {
	body, ct := multipartBody(c.t, nil, image)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	return c.do(req)
}

func (c *client) page() *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestHealth(t *testing.T) {
	_, router := newTestHandler(&stubAnalyzer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"backend":"stub"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, router := newTestHandler(&stubAnalyzer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	_, router := newTestHandler(&stubAnalyzer{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assets", nil))
	var assets struct {
		Assets []domain.Asset `json:"assets"`
		Groups []assetGroup   `json:"groups"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &assets); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(assets.Assets) != 16 || len(assets.Groups) != 4 || assets.Groups[1].Label != "Ações BR" {
		t.Fatalf("unexpected assets payload: %+v", assets)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/timeframes", nil))
	var tfs struct {
		Scalp      []domain.Timeframe `json:"scalp"`
		Timeframes []domain.Timeframe `json:"timeframes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tfs); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(tfs.Scalp) != 5 || len(tfs.Timeframes) != 9 {
		t.Fatalf("unexpected timeframes payload: %+v", tfs)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/risk-profiles", nil))
	var risk struct {
		Default domain.RiskProfile `json:"default"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &risk); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if risk.Default.Type != domain.RiskModerate || risk.Default.MaxRisk != 2 {
		t.Fatalf("unexpected default profile %+v", risk.Default)
	}
}

func postAnalyze(router *gin.Engine, t *testing.T, fields map[string]string, image []byte) *httptest.ResponseRecorder {
	body, ct := multipartBody(t, fields, image)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeAPISuccess(t *testing.T) {
	stub := &stubAnalyzer{result: buyResult()}
	_, router := newTestHandler(stub)

	w := postAnalyze(router, t, map[string]string{
		"symbol":    "btcusdt",
		"timeframe": "1h",
		"riskType":  "aggressive",
	}, pngHeader)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Result domain.AnalysisResult `json:"result"`
		View   view.ResultView       `json:"view"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if resp.View.Recommendation != "COMPRAR" || resp.View.Confidence != "82.00%" {
		t.Fatalf("unexpected view %+v", resp.View)
	}

	req := stub.request()
	if req.Asset.Symbol != "BTCUSDT" || req.Asset.Name != "Bitcoin" || req.Asset.Category != domain.CategoryCrypto {
		t.Fatalf("unexpected asset %+v", req.Asset)
	}
	if req.Timeframe.Category != domain.TimeframeSwing || req.RiskProfile.MaxRisk != 5 || req.RiskProfile.PositionSize != 2 {
		t.Fatalf("unexpected request %+v", req)
	}
	if !strings.HasPrefix(req.ImageURL, "data:image/png;base64,") {
		t.Fatalf("unexpected image url %q", req.ImageURL)
	}
}

func TestAnalyzeAPICustomAsset(t *testing.T) {
	stub := &stubAnalyzer{result: buyResult()}
	_, router := newTestHandler(stub)

	w := postAnalyze(router, t, map[string]string{
		"symbol":    "mglu3",
		"name":      "Magazine Luiza",
		"category":  "stocks",
		"timeframe": "1d",
	}, pngHeader)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	req := stub.request()
	if req.Asset.Symbol != "MGLU3" || req.Asset.Name != "Magazine Luiza" || req.Asset.Category != domain.CategoryStocks {
		t.Fatalf("unexpected asset %+v", req.Asset)
	}
	if req.RiskProfile.Type != domain.RiskModerate {
		t.Fatalf("expected moderate default, got %s", req.RiskProfile.Type)
	}
}

func TestAnalyzeAPIErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		image  []byte
		err    error
		status int
		body   string
	}{
		{"missing image", map[string]string{"symbol": "BTCUSDT", "timeframe": "1h"}, nil, nil, http.StatusBadRequest, "image file is required"},
		{"not an image", map[string]string{"symbol": "BTCUSDT", "timeframe": "1h"}, []byte("just some text"), nil, http.StatusUnsupportedMediaType, "file is not an image"},
		{"unknown timeframe", map[string]string{"symbol": "BTCUSDT", "timeframe": "2h"}, pngHeader, nil, http.StatusBadRequest, "unsupported timeframe"},
		{"empty symbol", map[string]string{"symbol": " ", "timeframe": "1h"}, pngHeader, nil, http.StatusBadRequest, "asset symbol is required"},
		{"bad category", map[string]string{"symbol": "X", "category": "bonds", "timeframe": "1h"}, pngHeader, nil, http.StatusBadRequest, "unsupported category"},
		{"bad risk type", map[string]string{"symbol": "BTCUSDT", "timeframe": "1h", "riskType": "yolo"}, pngHeader, nil, http.StatusBadRequest, "unsupported risk type"},
		{"risk out of range", map[string]string{"symbol": "BTCUSDT", "timeframe": "1h", "maxRisk": "20"}, pngHeader, nil, http.StatusBadRequest, "invalid analysis request"},
		{"risk not a number", map[string]string{"symbol": "BTCUSDT", "timeframe": "1h", "positionSize": "big"}, pngHeader, nil, http.StatusBadRequest, "positionSize must be a number"},
		{"backend failure", map[string]string{"symbol": "BTCUSDT", "timeframe": "1h"}, pngHeader, errors.New("Imagem ilegível"), http.StatusBadGateway, `"error":"Imagem ilegível"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, router := newTestHandler(&stubAnalyzer{result: buyResult(), err: tc.err})
			w := postAnalyze(router, t, tc.fields, tc.image)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tc.body) {
				t.Fatalf("expected body to contain %q, got %s", tc.body, w.Body.String())
			}
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	_, router := newTestHandler(&stubAnalyzer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/normalize",
		strings.NewReader(`{"Action":"buy","supportLevels":["1.5",null,2],"trendDirection":" up "}`))
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Normalized domain.NormalizedImageAnalysis `json:"normalized"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	n := resp.Normalized
	if n.Action != "BUY" || n.TrendDirection != "UP" || len(n.SupportLevels) != 2 || n.SupportLevels[0] != 1.5 {
		t.Fatalf("unexpected normalized payload %+v", n)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/normalize", strings.NewReader(`{"action":`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWebFlowCompletesAnalysis(t *testing.T) {
	stub := &stubAnalyzer{result: buyResult()}
	h, router := newTestHandler(stub)
	c := &client{t: t, router: router}

	if w := c.page(); w.Code != http.StatusOK || len(c.cookies) == 0 || c.cookies[0].Name != sessionCookie {
		t.Fatalf("expected page with session cookie, got %d %v", w.Code, c.cookies)
	}
	if w := c.upload(pngHeader); w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after upload, got %d: %s", w.Code, w.Body.String())
	}
	if body := c.page().Body.String(); !strings.Contains(body, "Imagem carregada com sucesso!") {
		t.Fatal("expected upload notice on next render")
	}
	if body := c.page().Body.String(); strings.Contains(body, "Imagem carregada com sucesso!") {
		t.Fatal("notices are shown once")
	}

	if w := c.form("/asset", map[string]string{"symbol": "ETHUSDT"}); w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if w := c.form("/timeframe", map[string]string{"timeframe": "4h"}); w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if w := c.form("/risk", map[string]string{"maxRisk": "7.3"}); w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if body := c.page().Body.String(); !strings.Contains(body, "Analisar ETHUSDT") || !strings.Contains(body, "7.5%") {
		t.Fatal("expected ready button and snapped risk")
	}

	if w := c.form("/analyze", nil); w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d: %s", w.Code, w.Body.String())
	}
	h.Wait()

	body := c.page().Body.String()
	for _, want := range []string{"Resultado da Análise", "COMPRAR", "$45000.00", "2.2%", "Análise Concluída", "A IA analisou o gráfico de ETHUSDT com sucesso!"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}
	if req := stub.request(); req.RiskProfile.MaxRisk != 7.5 || req.Asset.Symbol != "ETHUSDT" {
		t.Fatalf("unexpected request %+v", req)
	}

	if w := c.form("/new-analysis", nil); w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}
	if body := c.page().Body.String(); !strings.Contains(body, "Selecione o Ativo") || strings.Contains(body, "Resultado da Análise") {
		t.Fatal("expected a cleared selection after new analysis")
	}
}

func TestWebFlowFailureShowsServiceMessage(t *testing.T) {
	stub := &stubAnalyzer{err: errors.New("Imagem ilegível")}
	h, router := newTestHandler(stub)
	c := &client{t: t, router: router}

	c.upload(pngHeader)
	c.form("/asset", map[string]string{"custom": "solusdt"})
	c.form("/timeframe", map[string]string{"timeframe": "1m"})
	c.form("/analyze", nil)
	h.Wait()

	body := c.page().Body.String()
	if !strings.Contains(body, "Erro na Análise") || !strings.Contains(body, "Imagem ilegível") {
		t.Fatalf("expected failure notice, got %s", body)
	}
	if strings.Contains(body, "Resultado da Análise") {
		t.Fatal("a failed analysis opens no result")
	}
}

func TestWebRejectsMutationsWhileAnalyzing(t *testing.T) {
	stub := &stubAnalyzer{result: buyResult(), block: make(chan struct{})}
	h, router := newTestHandler(stub)
	c := &client{t: t, router: router}

	c.upload(pngHeader)
	c.form("/asset", map[string]string{"symbol": "PETR4"})
	c.form("/timeframe", map[string]string{"timeframe": "1d"})
	if w := c.form("/analyze", nil); w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}

	if body := c.page().Body.String(); !strings.Contains(body, "Analisando gráfico...") || !strings.Contains(body, `http-equiv="refresh"`) {
		t.Fatal("expected loading state while analyzing")
	}
	if w := c.form("/asset", map[string]string{"symbol": "VALE3"}); w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if w := c.form("/analyze", nil); w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	close(stub.block)
	h.Wait()

	if stub.calls != 1 {
		t.Fatalf("expected a single backend call, got %d", stub.calls)
	}
	if body := c.page().Body.String(); !strings.Contains(body, "PETR4") || !strings.Contains(body, "COMPRAR") {
		t.Fatal("expected the first analysis to settle")
	}
}

func TestWebSettleSurvivesStoreFailure(t *testing.T) {
	stub := &stubAnalyzer{result: buyResult(), block: make(chan struct{})}
	store := &flakyStore{Store: session.NewMemoryStore(time.Hour)}
	h, router := newTestHandlerWith(stub, store, 1<<20)
	c := &client{t: t, router: router}

	c.upload(pngHeader)
	c.form("/asset", map[string]string{"symbol": "BTCUSDT"})
	c.form("/timeframe", map[string]string{"timeframe": "1h"})
	if w := c.form("/analyze", nil); w.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", w.Code)
	}

	store.failNext(settleAttempts - 1)
	close(stub.block)
	h.Wait()

	body := c.page().Body.String()
	if !strings.Contains(body, "COMPRAR") || strings.Contains(body, `http-equiv="refresh"`) {
		t.Fatal("expected the analysis to settle after the store recovered")
	}
	if w := c.form("/reset", nil); w.Code != http.StatusSeeOther {
		t.Fatalf("expected reset to be accepted, got %d", w.Code)
	}
}

func TestWebExpiresStaleAnalysis(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	_, router := newTestHandlerWith(&stubAnalyzer{result: buyResult()}, store, 1<<20)

	const id = "6f1c2e6e-8a43-4c1b-9f51-0d7a3d9b8e11"
	stuck := session.New(id)
	stuck.Analyzing = true
	stuck.AnalysisStartedAt = time.Now().Add(-session.StaleAnalysisAfter - time.Minute)
	if err := store.Save(context.Background(), stuck); err != nil {
		t.Fatalf("save: %v", err)
	}

	c := &client{t: t, router: router, cookies: []*http.Cookie{{Name: sessionCookie, Value: id}}}
	body := c.page().Body.String()
	if strings.Contains(body, `http-equiv="refresh"`) || !strings.Contains(body, "Erro na Análise") {
		t.Fatalf("expected a stuck analysis to be reported as failed, got %s", body)
	}
	if w := c.form("/reset", nil); w.Code != http.StatusSeeOther {
		t.Fatalf("expected reset to be accepted, got %d", w.Code)
	}
}

func TestWebUploadRejectsNonImage(t *testing.T) {
	_, router := newTestHandler(&stubAnalyzer{})
	c := &client{t: t, router: router}

	w := c.upload([]byte("hello world"))
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Por favor, selecione apenas arquivos de imagem.") {
		t.Fatal("expected the invalid image notice")
	}
}

func TestWebAnalyzeRequiresSelection(t *testing.T) {
	_, router := newTestHandler(&stubAnalyzer{})
	c := &client{t: t, router: router}

	c.upload(pngHeader)
	if w := c.form("/analyze", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := c.form("/timeframe", map[string]string{"timeframe": "2h"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := c.form("/asset", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWebRiskTypeResetsSliders(t *testing.T) {
	_, router := newTestHandler(&stubAnalyzer{})
	c := &client{t: t, router: router}

	c.form("/risk", map[string]string{"positionSize": "3.33"})
	c.form("/risk", map[string]string{"type": "conservative"})

	w := c.do(httptest.NewRequest(http.MethodGet, "/api/session", nil))
	var page view.PageView
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if page.Risk.MaxRisk != "1%" || page.Risk.Position != "0.5x" || page.Risk.Summary.Profile.Value != "conservative" {
		t.Fatalf("unexpected risk view %+v", page.Risk)
	}
}

func TestAnalyzeStream(t *testing.T) {
	stub := &stubAnalyzer{result: buyResult()}
	_, router := newTestHandler(stub)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws/analyze", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	err = conn.WriteJSON(map[string]any{
		"imageUrl":  "data:image/png;base64,iVBORw0KGgo=",
		"asset":     map[string]string{"symbol": "ETHUSDT"},
		"timeframe": map[string]string{"value": "4h"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	var msg streamMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Status != streamAnalyzing {
		t.Fatalf("expected analyzing, got %+v (%v)", msg, err)
	}
	msg = streamMessage{}
	if err := conn.ReadJSON(&msg); err != nil || msg.Status != streamResult {
		t.Fatalf("expected result, got %+v (%v)", msg, err)
	}
	if msg.View == nil || msg.View.Recommendation != "COMPRAR" {
		t.Fatalf("unexpected view %+v", msg.View)
	}

	req := stub.request()
	if req.Asset.Name != "Ethereum" || req.Timeframe.Label != "4 Horas" || req.RiskProfile.Type != domain.RiskModerate {
		t.Fatalf("expected catalog data to be filled in, got %+v", req)
	}
}

func TestAnalyzeStreamFailure(t *testing.T) {
	_, router := newTestHandler(&stubAnalyzer{err: errors.New("serviço indisponível")})
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws/analyze", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.WriteJSON(map[string]any{
		"imageUrl":  "data:image/png;base64,iVBORw0KGgo=",
		"asset":     map[string]string{"symbol": "BTCUSDT"},
		"timeframe": map[string]string{"value": "1h"},
	})

	var msg streamMessage
	conn.ReadJSON(&msg)
	msg = streamMessage{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Status != streamFailed || msg.Error != "serviço indisponível" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func streamURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/analyze"
}

func TestAnalyzeStreamRejectsOversizedFrame(t *testing.T) {
	stub := &stubAnalyzer{result: buyResult()}
	_, router := newTestHandlerWith(stub, session.NewMemoryStore(time.Hour), 1<<10)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(streamURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	payload := "data:image/png;base64," + strings.Repeat("A", 1<<20)
	_ = conn.WriteJSON(map[string]any{
		"imageUrl":  payload,
		"asset":     map[string]string{"symbol": "BTCUSDT"},
		"timeframe": map[string]string{"value": "1h"},
	})

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg streamMessage
	if err := conn.ReadJSON(&msg); err == nil && msg.Status != streamFailed {
		t.Fatalf("expected the frame to be refused, got %+v", msg)
	}
	if stub.calls != 0 {
		t.Fatal("an oversized frame must not reach the backend")
	}
}

func TestAnalyzeStreamRejectsOversizedImage(t *testing.T) {
	stub := &stubAnalyzer{result: buyResult()}
	_, router := newTestHandlerWith(stub, session.NewMemoryStore(time.Hour), 1<<10)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(streamURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	image := append(append([]byte{}, pngHeader...), make([]byte, 4<<10)...)
	err = conn.WriteJSON(map[string]any{
		"imageUrl":  "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
		"asset":     map[string]string{"symbol": "BTCUSDT"},
		"timeframe": map[string]string{"value": "1h"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	var msg streamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Status != streamFailed || msg.Error != service.ErrImageTooLarge.Error() {
		t.Fatalf("expected the image to be refused, got %+v", msg)
	}
	if stub.calls != 0 {
		t.Fatal("an oversized image must not reach the backend")
	}
}

func TestAnalyzeStreamRejectsNonImage(t *testing.T) {
	stub := &stubAnalyzer{result: buyResult()}
	_, router := newTestHandler(stub)
	srv := httptest.NewServer(router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(streamURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.WriteJSON(map[string]any{
		"imageUrl":  "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello world")),
		"asset":     map[string]string{"symbol": "BTCUSDT"},
		"timeframe": map[string]string{"value": "1h"},
	})

	var msg streamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Status != streamFailed || msg.Error != service.ErrNotAnImage.Error() {
		t.Fatalf("expected a non-image to be refused, got %+v", msg)
	}
}

func TestAnalyzeStreamChecksOrigin(t *testing.T) {
	serve := func(allow bool, origins ...string) *httptest.Server {
		h, router := newTestHandler(&stubAnalyzer{result: buyResult()})
		if allow {
			h.AllowOrigins(origins)
		}
		srv := httptest.NewServer(router)
		t.Cleanup(srv.Close)
		return srv
	}
	dial := func(srv *httptest.Server, origin string) (*http.Response, error) {
		header := http.Header{}
		if origin != "" {
			header.Set("Origin", origin)
		}
		conn, resp, err := websocket.DefaultDialer.Dial(streamURL(srv), header)
		if err == nil {
			conn.Close()
		}
		return resp, err
	}

	srv := serve(false)
	if _, err := dial(srv, "https://evil.example.com"); err == nil {
		t.Fatal("expected a cross-origin upgrade to be refused by default")
	}
	if _, err := dial(srv, srv.URL); err != nil {
		t.Fatalf("expected same-origin upgrade, got %v", err)
	}

	srv = serve(true, "https://app.example.com/")
	if _, err := dial(srv, "https://app.example.com"); err != nil {
		t.Fatalf("expected listed origin to upgrade, got %v", err)
	}
	resp, err := dial(srv, "https://evil.example.com")
	if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for an unlisted origin, got %v", err)
	}
	if _, err := dial(srv, ""); err != nil {
		t.Fatalf("expected clients without an Origin to upgrade, got %v", err)
	}

	srv = serve(true, "*")
	if _, err := dial(srv, "https://evil.example.com"); err != nil {
		t.Fatalf("expected wildcard to accept any origin, got %v", err)
	}
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://app.example.com"}))
	router.GET("/api/assets", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/assets", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}
