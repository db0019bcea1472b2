package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"candle-lens/internal/analysis"
	"candle-lens/internal/chartimage"
	"candle-lens/internal/domain"
	"candle-lens/pkg/logger"
	"candle-lens/pkg/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotAnImage     = errors.New("file is not an image")
	ErrImageTooLarge  = chartimage.ErrTooLarge
	ErrInvalidRequest = errors.New("invalid analysis request")
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Analyzer is the backend the service delegates to.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
	Name() string
}

type AnalysisService struct {
	tracer         trace.Tracer
	analyzer       Analyzer
	validate       *validator.Validate
	metrics        *metrics.Recorder
	log            *logger.Logger
	maxUploadBytes int64
}

func NewAnalysisService(
	tracer trace.Tracer,
	analyzer Analyzer,
	recorder *metrics.Recorder,
	log *logger.Logger,
	maxUploadBytes int64,
) *AnalysisService {
	if log == nil {
		log = logger.Nop()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &AnalysisService{
		tracer:         tracer,
		analyzer:       analyzer,
		validate:       v,
		metrics:        recorder,
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
}

// Backend returns the name of the configured analysis backend.
func (s *AnalysisService) Backend() string {
	if s.analyzer == nil {
		return ""
	}
	return s.analyzer.Name()
}

// PrepareImage checks that data is an image and turns it into a data URL. The media type
// is sniffed from the content; declared is only used when sniffing is inconclusive.
func (s *AnalysisService) PrepareImage(ctx context.Context, name string, data []byte, declared string) (*domain.Image, error) {
	_, span := s.tracer.Start(ctx, "analysis-service.prepare-image")
	defer span.End()

	if len(data) == 0 {
		s.metrics.RecordRejectedUpload("empty")
		return nil, ErrNotAnImage
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		s.metrics.RecordRejectedUpload("too_large")
		return nil, ErrImageTooLarge
	}

	mediaType := baseMediaType(mimetype.Detect(data).String())
	if mediaType == "application/octet-stream" && declared != "" {
		mediaType = baseMediaType(declared)
	}
	span.SetAttributes(attribute.String("media_type", mediaType))
	if !strings.HasPrefix(mediaType, "image/") {
		s.metrics.RecordRejectedUpload("not_image")
		s.log.Info("rejected non-image upload",
			logger.StringField("name", name),
			logger.StringField("media_type", mediaType),
		)
		return nil, ErrNotAnImage
	}

	return &domain.Image{
		Name:      name,
		MediaType: mediaType,
		DataURL:   "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Analyze validates req and runs it through the backend once.
func (s *AnalysisService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze")
	defer span.End()

	if s.analyzer == nil {
		return nil, fmt.Errorf("analysis service is not fully initialized")
	}

	req, err := s.normalizeRequest(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("asset.symbol", req.Asset.Symbol),
		attribute.String("timeframe", req.Timeframe.Value),
		attribute.String("risk_profile", string(req.RiskProfile.Type)),
		attribute.String("backend", s.analyzer.Name()),
	)

	log := s.log.FromContext(ctx).With(
		logger.StringField("symbol", req.Asset.Symbol),
		logger.StringField("timeframe", req.Timeframe.Value),
		logger.StringField("backend", s.analyzer.Name()),
	)

	start := time.Now()
	result, err := s.analyzer.Analyze(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.RecordAnalysis(s.analyzer.Name(), outcomeFailure, elapsed.Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("analysis failed", logger.ErrorField(err), logger.DurationField("elapsed", elapsed))
		return nil, err
	}

	s.metrics.RecordAnalysis(s.analyzer.Name(), outcomeSuccess, elapsed.Seconds())
	log.Info("analysis completed",
		logger.StringField("recommendation", string(result.Recommendation)),
		logger.FloatField("confidence", result.Confidence),
		logger.DurationField("elapsed", elapsed),
	)
	return result, nil
}

// NormalizeImageAnalysis exposes the normalizer to the outer surfaces.
func (s *AnalysisService) NormalizeImageAnalysis(ctx context.Context, raw domain.ImageAnalysis) *domain.NormalizedImageAnalysis {
	_, span := s.tracer.Start(ctx, "analysis-service.normalize-image-analysis")
	defer span.End()

	return analysis.Normalize(raw)
}

func (s *AnalysisService) normalizeRequest(req domain.AnalysisRequest) (domain.AnalysisRequest, error) {
	req.Asset.Symbol = strings.ToUpper(strings.TrimSpace(req.Asset.Symbol))
	if req.Asset.Name == "" {
		req.Asset.Name = req.Asset.Symbol
	}

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return req, fmt.Errorf("%w: %s", ErrInvalidRequest, describe(verrs[0]))
		}
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	tf, ok := domain.LookupTimeframe(req.Timeframe.Value)
	if !ok || tf.Category != req.Timeframe.Category {
		return req, fmt.Errorf("%w: timeframe %s is not in the catalog", ErrInvalidRequest, req.Timeframe.Value)
	}
	req.Timeframe = tf

	if err := req.RiskProfile.Validate(); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return req, nil
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

func baseMediaType(mt string) string {
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
