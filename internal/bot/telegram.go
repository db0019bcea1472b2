package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"candle-lens/internal/chartimage"
	"candle-lens/internal/domain"
	"candle-lens/internal/service"
	"candle-lens/internal/session"
	"candle-lens/internal/view"
	"candle-lens/pkg/logger"

	tele "gopkg.in/telebot.v3"
)

const (
	maxMessageLen = 4000
	usage         = "Envie a imagem do gráfico com a legenda: SÍMBOLO TIMEFRAME [PERFIL]\n" +
		"Exemplo: BTCUSDT 1h moderate"
)

var (
	errUsage            = errors.New("usage")
	errUnknownTimeframe = errors.New("unknown timeframe")
	errUnknownRisk      = errors.New("unknown risk profile")
)

// ChartAnalyzer is the part of the analysis service the bot needs.
type ChartAnalyzer interface {
	PrepareImage(ctx context.Context, name string, data []byte, declared string) (*domain.Image, error)
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
}

// StartTelegramBot starts long polling when TELEGRAM_BOT_TOKEN is set and returns the bot,
// or nil when the token is absent. Charts above maxImageBytes are refused.
func StartTelegramBot(analyzer ChartAnalyzer, log *logger.Logger, maxImageBytes int64) *tele.Bot {
	if log == nil {
		log = logger.Nop()
	}
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Error("failed to create Telegram bot", logger.ErrorField(err))
		return nil
	}

	b.Handle("/start", func(c tele.Context) error {
		return c.Send(view.AppTitle + "\n" + view.AppTagline + "\n\n" + usage)
	})
	b.Handle("/assets", func(c tele.Context) error {
		return c.Send(formatAssets())
	})
	b.Handle("/timeframes", func(c tele.Context) error {
		return c.Send(formatTimeframes())
	})
	b.Handle("/risk", func(c tele.Context) error {
		return c.Send(formatRiskProfiles())
	})
	b.Handle("/analyze", func(c tele.Context) error {
		return c.Send(usage)
	})

	b.Handle(tele.OnPhoto, func(c tele.Context) error {
		photo := c.Message().Photo
		return handleChart(c, b, analyzer, log, maxImageBytes, &photo.File, "chart.jpg", "image/jpeg")
	})
	b.Handle(tele.OnDocument, func(c tele.Context) error {
		doc := c.Message().Document
		return handleChart(c, b, analyzer, log, maxImageBytes, &doc.File, doc.FileName, doc.MIME)
	})

	log.Info("Telegram bot started")
	go b.Start()
	return b
}

type fileOpener interface {
	File(file *tele.File) (io.ReadCloser, error)
}

func handleChart(c tele.Context, b fileOpener, analyzer ChartAnalyzer, log *logger.Logger, limit int64, file *tele.File, name, mime string) error {
	args, err := parseCaption(c.Message().Caption)
	if err != nil {
		return c.Send(captionError(err))
	}
	_ = c.Notify(tele.Typing)

	data, err := downloadChart(b, file, limit)
	if err != nil {
		log.Error("failed to download chart", logger.ErrorField(err))
		return c.Send(formatNotice(view.AnalysisFailed(err.Error())))
	}

	return c.Send(analyzeChart(context.Background(), analyzer, name, mime, data, args))
}

// downloadChart fetches file, refusing it up front when Telegram reports a size above
// limit and cutting the read off there otherwise.
func downloadChart(b fileOpener, file *tele.File, limit int64) ([]byte, error) {
	if limit > 0 && int64(file.FileSize) > limit {
		return nil, service.ErrImageTooLarge
	}
	rc, err := b.File(file)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return chartimage.ReadAll(rc, limit)
}

type chartCaption struct {
	Asset     domain.Asset
	Timeframe domain.Timeframe
	Risk      domain.RiskProfile
}

// parseCaption reads "SYMBOL TIMEFRAME [RISK]", optionally prefixed by /analyze.
func parseCaption(caption string) (chartCaption, error) {
	fields := strings.Fields(caption)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "/analyze") {
		fields = fields[1:]
	}
	if len(fields) < 2 || len(fields) > 3 {
		return chartCaption{}, errUsage
	}

	asset, err := domain.ResolveAsset(fields[0])
	if err != nil {
		return chartCaption{}, errUsage
	}
	tf, ok := domain.LookupTimeframe(strings.ToLower(fields[1]))
	if !ok {
		return chartCaption{}, fmt.Errorf("%w: %s", errUnknownTimeframe, fields[1])
	}

	risk := domain.DefaultRiskProfile()
	if len(fields) == 3 {
		t, ok := riskType(fields[2])
		if !ok {
			return chartCaption{}, fmt.Errorf("%w: %s", errUnknownRisk, fields[2])
		}
		risk = domain.NewRiskProfile(t)
	}
	return chartCaption{Asset: asset, Timeframe: tf, Risk: risk}, nil
}

// riskType accepts the profile id or its Portuguese label.
func riskType(s string) (domain.RiskProfileType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, o := range domain.RiskProfileOptions {
		if string(o.Type) == s || strings.ToLower(o.Label) == s {
			return o.Type, true
		}
	}
	return "", false
}

func captionError(err error) string {
	switch {
	case errors.Is(err, errUnknownTimeframe):
		return "Timeframe desconhecido. Use /timeframes para ver as opções.\n\n" + usage
	case errors.Is(err, errUnknownRisk):
		return "Perfil de risco desconhecido. Use /risk para ver as opções.\n\n" + usage
	default:
		return usage
	}
}

// analyzeChart runs one chart through the analyzer and renders the reply text.
func analyzeChart(ctx context.Context, analyzer ChartAnalyzer, name, mime string, data []byte, args chartCaption) string {
	img, err := analyzer.PrepareImage(ctx, name, data, mime)
	if err != nil {
		if errors.Is(err, service.ErrNotAnImage) {
			return formatNotice(view.InvalidImage())
		}
		return formatNotice(view.AnalysisFailed(err.Error()))
	}

	res, err := analyzer.Analyze(ctx, domain.AnalysisRequest{
		ImageURL:    img.DataURL,
		RiskProfile: args.Risk,
		Timeframe:   args.Timeframe,
		Asset:       args.Asset,
	})
	if err != nil {
		return formatNotice(view.AnalysisFailed(err.Error()))
	}

	header := fmt.Sprintf("%s (%s) · %s · %s",
		args.Asset.Symbol, args.Asset.Name, args.Timeframe.Label, domain.CategoryLabel(args.Asset.Category))
	return truncate(header + "\n\n" + view.Text(view.BuildResult(res)))
}

func formatNotice(n session.Notice) string {
	msg := n.Title + "\n" + n.Description
	if n.Detail != "" {
		msg += "\n" + n.Detail
	}
	return truncate(msg)
}

func formatAssets() string {
	var b strings.Builder
	for i, c := range domain.AssetCategories {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(domain.SelectorCategoryLabels[c] + "\n")
		for _, a := range domain.PopularAssets[c] {
			b.WriteString("  " + a.Symbol + " - " + a.Name + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTimeframes() string {
	var b strings.Builder
	for _, group := range [][]domain.Timeframe{domain.ScalpTimeframes, domain.SwingTimeframes} {
		b.WriteString(domain.TimeframeGroupLabel(group[0].Category) + "\n")
		for _, tf := range group {
			b.WriteString("  " + tf.Value + " - " + tf.Label + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRiskProfiles() string {
	var b strings.Builder
	for _, o := range domain.RiskProfileOptions {
		fmt.Fprintf(&b, "%s (%s): %s, risco %s%%, posição %sx\n",
			o.Label, o.Type, o.Description, view.Number(o.MaxRisk), view.Number(o.PositionSize))
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string) string {
	if len(s) > maxMessageLen {
		return s[:maxMessageLen] + "\n\n[truncado]"
	}
	return s
}
