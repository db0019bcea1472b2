package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"candle-lens/internal/domain"
	"candle-lens/internal/service"
	"candle-lens/internal/session"
	"candle-lens/internal/view"
	"candle-lens/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	sessionCookieMaxAge = 7 * 24 * 60 * 60
	sessionKey          = "session_id"

	settleAttempts = 3
	settleBackoff  = 50 * time.Millisecond
)

type pageData struct {
	view.PageView
	Refresh bool
}

// currentSession loads the caller's session, issuing a new cookie when needed.
func (h *Handler) currentSession(c *gin.Context) (*session.Session, error) {
	id := c.GetString(sessionKey)
	if id == "" {
		id, _ = c.Cookie(sessionCookie)
	}
	s, err := h.sessions.Load(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if s.ID != id {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, s.ID, sessionCookieMaxAge, "/", "", false, true)
	}
	c.Set(sessionKey, s.ID)
	return s, nil
}

// Page renders the main screen and consumes pending notifications.
func (h *Handler) Page(c *gin.Context) {
	h.render(c, http.StatusOK, nil)
}

func (h *Handler) render(c *gin.Context, status int, extra *session.Notice) {
	ctx := c.Request.Context()
	s, err := h.currentSession(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var notices []session.Notice
	s, err = h.sessions.Update(ctx, s.ID, func(s *session.Session) error {
		if s.ExpireStaleAnalysis(time.Now()) {
			s.Notify(view.AnalysisFailed(s.Error))
		}
		notices = s.DrainNotices()
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if extra != nil {
		notices = append(notices, *extra)
	}

	c.HTML(status, "page.html", pageData{
		PageView: view.BuildPage(s, notices),
		Refresh:  s.Analyzing,
	})
}

// mutate applies fn to the caller's session and redirects back to the page. Rejected
// transitions re-render the page with the matching status.
func (h *Handler) mutate(c *gin.Context, span string, fn func(*session.Session) error) {
	ctx, sp := h.tracer.Start(c.Request.Context(), span)
	defer sp.End()

	s, err := h.currentSession(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.sessions.Update(ctx, s.ID, fn); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusBadGateway {
		status = http.StatusInternalServerError
	}
	notice := session.Notice{Level: session.NoticeError, Title: "Erro", Description: err.Error()}
	h.render(c, status, &notice)
}

func (h *Handler) Upload(c *gin.Context) {
	img, err := h.readImage(c)
	if err != nil {
		if errors.Is(err, errMissingImage) || statusFor(err) == http.StatusUnsupportedMediaType {
			notice := view.InvalidImage()
			h.render(c, statusFor(err), &notice)
			return
		}
		h.fail(c, err)
		return
	}
	h.mutate(c, "handler.upload", func(s *session.Session) error {
		if err := s.LoadImage(*img); err != nil {
			return err
		}
		s.Notify(view.ImageLoaded())
		return nil
	})
}

func (h *Handler) RemoveImage(c *gin.Context) {
	h.mutate(c, "handler.remove-image", (*session.Session).RemoveImage)
}

// SelectAsset accepts a catalog "symbol" or free "custom" text.
func (h *Handler) SelectAsset(c *gin.Context) {
	var (
		asset domain.Asset
		err   error
	)
	if custom := strings.TrimSpace(c.PostForm("custom")); custom != "" {
		asset, err = domain.NewCustomAsset(custom)
	} else {
		var ok bool
		asset, ok = domain.LookupAsset(c.PostForm("symbol"))
		if !ok {
			err = domain.ErrEmptySymbol
			if strings.TrimSpace(c.PostForm("symbol")) != "" {
				asset, err = domain.NewCustomAsset(c.PostForm("symbol"))
			}
		}
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	h.mutate(c, "handler.select-asset", func(s *session.Session) error {
		return s.SelectAsset(asset)
	})
}

func (h *Handler) SelectTimeframe(c *gin.Context) {
	tf, ok := domain.LookupTimeframe(c.PostForm("timeframe"))
	if !ok {
		h.fail(c, fmt.Errorf("%w: unsupported timeframe %s", service.ErrInvalidRequest, c.PostForm("timeframe")))
		return
	}
	h.mutate(c, "handler.select-timeframe", func(s *session.Session) error {
		return s.SelectTimeframe(tf)
	})
}

// UpdateRisk switches the preset when "type" is posted, otherwise moves the sliders.
func (h *Handler) UpdateRisk(c *gin.Context) {
	if t := strings.TrimSpace(c.PostForm("type")); t != "" {
		h.mutate(c, "handler.select-risk-type", func(s *session.Session) error {
			return s.SelectRiskType(domain.RiskProfileType(t))
		})
		return
	}

	maxRisk, hasRisk, err := parseOptionalFloat(c.PostForm("maxRisk"))
	if err != nil {
		h.fail(c, domain.ErrInvalidRiskProfile)
		return
	}
	position, hasPosition, err := parseOptionalFloat(c.PostForm("positionSize"))
	if err != nil {
		h.fail(c, domain.ErrInvalidRiskProfile)
		return
	}
	h.mutate(c, "handler.adjust-risk", func(s *session.Session) error {
		p := s.RiskProfile
		if hasRisk {
			p = p.WithMaxRisk(maxRisk)
		}
		if hasPosition {
			p = p.WithPositionSize(position)
		}
		return s.SetRiskProfile(p)
	})
}

// StartAnalysis moves the session into analyzing and runs the backend in the background.
// The page polls until the session settles.
func (h *Handler) StartAnalysis(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.start-analysis")
	defer span.End()

	s, err := h.currentSession(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req domain.AnalysisRequest
	_, err = h.sessions.Update(ctx, s.ID, func(s *session.Session) error {
		var err error
		req, err = s.StartAnalysis()
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	span.SetAttributes(attribute.String("symbol", req.Asset.Symbol))

	h.inflight.Add(1)
	go h.runAnalysis(detachedContext(ctx), s.ID, req)

	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) runAnalysis(ctx context.Context, id string, req domain.AnalysisRequest) {
	defer h.inflight.Done()

	result, err := h.analysis.Analyze(ctx, req)
	settle := func(s *session.Session) error {
		if err != nil {
			s.Notify(view.AnalysisFailed(err.Error()))
			return s.FailAnalysis(err.Error())
		}
		s.Notify(view.AnalysisCompleted(req.Asset.Symbol))
		return s.CompleteAnalysis(result)
	}

	// A nil session means the store failed, so the run is retried. Anything else
	// is a rejected transition and retrying cannot help.
	var uerr error
	for attempt := 1; attempt <= settleAttempts; attempt++ {
		var s *session.Session
		s, uerr = h.sessions.Update(ctx, id, settle)
		if uerr == nil || s != nil {
			break
		}
		h.log.WarnContext(ctx, "retrying analysis settle",
			logger.StringField("session", id),
			logger.IntField("attempt", attempt),
			logger.ErrorField(uerr),
		)
		time.Sleep(time.Duration(attempt) * settleBackoff)
	}
	if uerr != nil {
		h.log.ErrorContext(ctx, "failed to settle analysis",
			logger.StringField("session", id),
			logger.ErrorField(uerr),
		)
	}
}

func (h *Handler) CloseResult(c *gin.Context) {
	h.mutate(c, "handler.close-result", (*session.Session).CloseResult)
}

func (h *Handler) NewAnalysis(c *gin.Context) {
	h.mutate(c, "handler.new-analysis", (*session.Session).NewAnalysis)
}

func (h *Handler) Reset(c *gin.Context) {
	h.mutate(c, "handler.reset", (*session.Session).Reset)
}
