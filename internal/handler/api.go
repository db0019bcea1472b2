package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"candle-lens/internal/domain"
	"candle-lens/internal/service"
	"candle-lens/internal/view"
	"candle-lens/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
)

type assetGroup struct {
	Category domain.AssetCategory `json:"category"`
	Label    string               `json:"label"`
	Assets   []domain.Asset       `json:"assets"`
}

type analyzeResponse struct {
	Result *domain.AnalysisResult `json:"result"`
	View   *view.ResultView       `json:"view"`
}

// ListAssets godoc
// @Summary      List the asset catalog
// @Description  Returns the popular assets grouped by category
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/assets [get]
func (h *Handler) ListAssets(c *gin.Context) {
	groups := make([]assetGroup, 0, len(domain.AssetCategories))
	for _, cat := range domain.AssetCategories {
		groups = append(groups, assetGroup{
			Category: cat,
			Label:    domain.SelectorCategoryLabels[cat],
			Assets:   domain.PopularAssets[cat],
		})
	}
	c.JSON(http.StatusOK, gin.H{"assets": domain.AllAssets(), "groups": groups})
}

// ListTimeframes godoc
// @Summary      List timeframes
// @Description  Returns the scalp and swing timeframes
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/timeframes [get]
func (h *Handler) ListTimeframes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scalp":      domain.ScalpTimeframes,
		"swing":      domain.SwingTimeframes,
		"timeframes": domain.AllTimeframes(),
	})
}

// ListRiskProfiles godoc
// @Summary      List risk profiles
// @Description  Returns the risk profile presets and the default profile
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/risk-profiles [get]
func (h *Handler) ListRiskProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"profiles": domain.RiskProfileOptions,
		"default":  domain.DefaultRiskProfile(),
		"limits": gin.H{
			"maxRisk":      gin.H{"min": domain.MinMaxRisk, "max": domain.MaxMaxRisk, "step": domain.MaxRiskStep},
			"positionSize": gin.H{"min": domain.MinPositionSize, "max": domain.MaxPositionSize, "step": domain.PositionSizeStep},
		},
	})
}

// GetSession godoc
// @Summary      Current session view
// @Description  Returns the page view of the caller's session without consuming notifications
// @Tags         session
// @Produce      json
// @Success      200  {object}  view.PageView
// @Router       /api/session [get]
func (h *Handler) GetSession(c *gin.Context) {
	s, err := h.currentSession(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view.BuildPage(s, nil))
}

// Analyze godoc
// @Summary      Analyze a chart image
// @Description  Uploads a candlestick chart and returns the recommendation with its rendered view
// @Tags         analysis
// @Accept       multipart/form-data
// @Produce      json
// @Param        image         formData  file    true   "Chart image"
// @Param        symbol        formData  string  true   "Asset symbol (catalog or custom)"
// @Param        name          formData  string  false  "Asset name for custom symbols"
// @Param        category      formData  string  false  "Asset category (crypto, stocks, forex, indices)"
// @Param        timeframe     formData  string  true   "Timeframe (1m, 3m, 5m, 15m, 30m, 1h, 4h, 1d, 1w)"
// @Param        riskType      formData  string  false  "Risk profile (conservative, moderate, aggressive)"
// @Param        maxRisk       formData  number  false  "Max risk per trade in percent"
// @Param        positionSize  formData  number  false  "Position size multiplier"
// @Success      200  {object}  handler.analyzeResponse
// @Failure      400  {object}  map[string]string
// @Failure      415  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/analyze [post]
func (h *Handler) Analyze(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze")
	defer span.End()

	img, err := h.readImage(c)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	asset, err := assetFromForm(c.PostForm("symbol"), c.PostForm("name"), c.PostForm("category"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.String("symbol", asset.Symbol))

	tf, ok := domain.LookupTimeframe(c.PostForm("timeframe"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported timeframe: " + c.PostForm("timeframe")})
		return
	}

	risk, err := riskFromForm(c.PostForm("riskType"), c.PostForm("maxRisk"), c.PostForm("positionSize"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	req := domain.AnalysisRequest{ImageURL: img.DataURL, RiskProfile: risk, Timeframe: tf, Asset: asset}
	result, err := h.analysis.Analyze(ctx, req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analyzeResponse{Result: result, View: view.BuildResult(result)})
}

// Normalize godoc
// @Summary      Normalize an image analysis
// @Description  Maps an arbitrary image-analysis object onto the canonical structure
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/normalize [post]
func (h *Handler) Normalize(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !gjson.ValidBytes(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be valid JSON"})
		return
	}
	normalized := h.analysis.NormalizeImageAnalysis(c.Request.Context(), domain.ImageAnalysis(body))
	c.JSON(http.StatusOK, gin.H{"normalized": normalized})
}

// readImage reads the multipart "image" field and turns it into a data URL.
func (h *Handler) readImage(c *gin.Context) (*domain.Image, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, errMissingImage
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxUploadBytes > 0 {
		r = io.LimitReader(f, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	img, err := h.analysis.PrepareImage(c.Request.Context(), fh.Filename, data, fh.Header.Get("Content-Type"))
	if err != nil {
		h.log.InfoContext(c.Request.Context(), "upload rejected",
			logger.StringField("name", fh.Filename),
			logger.ErrorField(err),
		)
		return nil, err
	}
	return img, nil
}

// assetFromForm resolves a catalog symbol, or builds a custom asset when a category is given.
func assetFromForm(symbol, name, category string) (domain.Asset, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return domain.ResolveAsset(symbol)
	}
	cat := domain.AssetCategory(category)
	if !cat.IsValid() {
		return domain.Asset{}, fmt.Errorf("%w: unsupported category %s", service.ErrInvalidRequest, category)
	}
	asset, err := domain.NewCustomAsset(symbol)
	if err != nil {
		return domain.Asset{}, err
	}
	asset.Category = cat
	if name = strings.TrimSpace(name); name != "" {
		asset.Name = name
	}
	return asset, nil
}

// riskFromForm starts from the preset of riskType and applies explicit overrides verbatim,
// leaving range checks to the service.
func riskFromForm(riskType, maxRisk, positionSize string) (domain.RiskProfile, error) {
	t := domain.RiskModerate
	if riskType = strings.ToLower(strings.TrimSpace(riskType)); riskType != "" {
		t = domain.RiskProfileType(riskType)
		if !t.IsValid() {
			return domain.RiskProfile{}, fmt.Errorf("%w: unsupported risk type %s", service.ErrInvalidRequest, riskType)
		}
	}
	p := domain.NewRiskProfile(t)
	if v, ok, err := parseOptionalFloat(maxRisk); err != nil {
		return p, fmt.Errorf("%w: maxRisk must be a number", service.ErrInvalidRequest)
	} else if ok {
		p.MaxRisk = v
	}
	if v, ok, err := parseOptionalFloat(positionSize); err != nil {
		return p, fmt.Errorf("%w: positionSize must be a number", service.ErrInvalidRequest)
	} else if ok {
		p.PositionSize = v
	}
	return p, nil
}

func parseOptionalFloat(raw string) (float64, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
