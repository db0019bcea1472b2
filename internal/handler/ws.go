package handler

import (
	"time"

	"candle-lens/internal/chartimage"
	"candle-lens/internal/domain"
	"candle-lens/internal/view"
	"candle-lens/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamAnalyzing = "analyzing"
	streamResult    = "result"
	streamFailed    = "failed"

	streamWriteWait = 10 * time.Second
	streamReadWait  = 60 * time.Second

	// streamEnvelope covers the JSON around the image payload.
	streamEnvelope = 64 << 10
)

type streamMessage struct {
	Status string                 `json:"status"`
	Result *domain.AnalysisResult `json:"result,omitempty"`
	View   *view.ResultView       `json:"view,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// AnalyzeStream godoc
// @Summary      Analyze over a websocket
// @Description  Reads one analysis request and streams its progress: analyzing, then result or failed
// @Tags         analysis
// @Router       /api/ws/analyze [get]
func (h *Handler) AnalyzeStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WarnContext(c.Request.Context(), "websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze-stream")
	defer span.End()

	send := func(msg streamMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(msg); err != nil {
			h.log.WarnContext(ctx, "websocket write failed", logger.ErrorField(err))
			return false
		}
		return true
	}

	if h.maxUploadBytes > 0 {
		conn.SetReadLimit(h.maxUploadBytes/3*4 + 4 + streamEnvelope)
	}
	_ = conn.SetReadDeadline(time.Now().Add(streamReadWait))
	var req domain.AnalysisRequest
	if err := conn.ReadJSON(&req); err != nil {
		send(streamMessage{Status: streamFailed, Error: "invalid analysis request: " + err.Error()})
		return
	}
	completeRequest(&req)

	// The image is checked the same way as an upload, then re-encoded from what was sniffed.
	mediaType, data, err := chartimage.DecodeDataURL(req.ImageURL, h.maxUploadBytes)
	if err != nil {
		send(streamMessage{Status: streamFailed, Error: err.Error()})
		return
	}
	img, err := h.analysis.PrepareImage(ctx, "chart", data, mediaType)
	if err != nil {
		send(streamMessage{Status: streamFailed, Error: err.Error()})
		return
	}
	req.ImageURL = img.DataURL

	if !send(streamMessage{Status: streamAnalyzing}) {
		return
	}

	result, err := h.analysis.Analyze(ctx, req)
	if err != nil {
		send(streamMessage{Status: streamFailed, Error: err.Error()})
		return
	}
	if send(streamMessage{Status: streamResult, Result: result, View: view.BuildResult(result)}) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(streamWriteWait))
	}
}

// completeRequest fills catalog data a client may leave out: the timeframe from its value,
// the asset from its symbol and the risk profile from its type.
func completeRequest(req *domain.AnalysisRequest) {
	if tf, ok := domain.LookupTimeframe(req.Timeframe.Value); ok && req.Timeframe.Category == "" {
		req.Timeframe = tf
	}
	if req.Asset.Category == "" {
		if a, err := domain.ResolveAsset(req.Asset.Symbol); err == nil {
			req.Asset = a
		}
	}
	if req.RiskProfile.Type == "" {
		req.RiskProfile.Type = domain.RiskModerate
	}
	if req.RiskProfile.MaxRisk == 0 && req.RiskProfile.PositionSize == 0 {
		req.RiskProfile = domain.NewRiskProfile(req.RiskProfile.Type)
	}
}
