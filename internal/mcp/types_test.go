package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"candle-lens/internal/chartimage"
	"candle-lens/internal/domain"
)

func TestNormalizeAsset(t *testing.T) {
	a, err := normalizeAsset(" petr4 ", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Symbol != "PETR4" || a.Name != "Petrobras" || a.Category != domain.CategoryStocks {
		t.Fatalf("unexpected catalog asset %+v", a)
	}

	a, err = normalizeAsset("aapl", "stocks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Symbol != "AAPL" || a.Category != domain.CategoryStocks {
		t.Fatalf("unexpected custom asset %+v", a)
	}

	if _, err := normalizeAsset("", ""); err == nil {
		t.Fatal("expected missing symbol error")
	}
	if _, err := normalizeAsset("AAPL", "bonds"); err == nil {
		t.Fatal("expected unsupported category error")
	}
}

func TestNormalizeTimeframe(t *testing.T) {
	tf, err := normalizeTimeframe("4H")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tf.Label != "4 Horas" || tf.Category != domain.TimeframeSwing {
		t.Fatalf("unexpected timeframe %+v", tf)
	}

	if _, err := normalizeTimeframe("2h"); err == nil {
		t.Fatal("expected unsupported timeframe error")
	}
}

func TestNormalizeRiskProfile(t *testing.T) {
	p, err := normalizeRiskProfile(chartAnalyzeInput{})
	if err != nil || p != domain.DefaultRiskProfile() {
		t.Fatalf("expected moderate defaults, got %+v err %v", p, err)
	}

	maxRisk := 3.5
	p, err = normalizeRiskProfile(chartAnalyzeInput{RiskType: "Conservative", MaxRisk: &maxRisk})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Type != domain.RiskConservative || p.MaxRisk != 3.5 || p.PositionSize != 0.5 {
		t.Fatalf("unexpected profile %+v", p)
	}

	if _, err := normalizeRiskProfile(chartAnalyzeInput{RiskType: "yolo"}); err == nil {
		t.Fatal("expected unsupported risk type error")
	}
}

func TestImageLoaderSources(t *testing.T) {
	ctx := context.Background()
	analyzer := &stubAnalyzer{}

	if _, err := (imageLoader{analyzer: analyzer}).load(ctx, chartAnalyzeInput{}); !errors.Is(err, errImageSource) {
		t.Fatalf("expected source error, got %v", err)
	}
	if _, err := (imageLoader{analyzer: analyzer}).load(ctx, chartAnalyzeInput{ImagePath: "a.png"}); !errors.Is(err, errFilePathDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}

	img, err := (imageLoader{analyzer: analyzer}).load(ctx, chartAnalyzeInput{ImageDataURL: "data:image/png;base64,iVBORw0KGgo="})
	if err != nil || img == nil || analyzer.lastType != "image/png" || analyzer.lastName != "chart" {
		t.Fatalf("unexpected data url load %+v %v", img, err)
	}
	for _, raw := range []string{"image/png;base64,AA", "data:image/png,AA", "data:image/png;base64,%%%"} {
		if _, err := (imageLoader{analyzer: analyzer}).load(ctx, chartAnalyzeInput{ImageDataURL: raw}); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestImageLoaderLimits(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "big.png"), make([]byte, 64), 0o600); err != nil {
		t.Fatalf("write chart: %v", err)
	}
	loader := imageLoader{analyzer: &stubAnalyzer{}, dir: dir, limit: 32}

	if _, err := loader.load(ctx, chartAnalyzeInput{ImagePath: "big.png"}); !errors.Is(err, chartimage.ErrTooLarge) {
		t.Fatalf("expected oversized file to be rejected, got %v", err)
	}
	big := "data:image/png;base64," + base64.StdEncoding.EncodeToString(make([]byte, 64))
	if _, err := loader.load(ctx, chartAnalyzeInput{ImageDataURL: big}); !errors.Is(err, chartimage.ErrTooLarge) {
		t.Fatalf("expected oversized data url to be rejected, got %v", err)
	}
}

func TestImageLoaderStaysInChartDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.png"), []byte("\x89PNG\r\n\x1a\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.png"), filepath.Join(dir, "leak.png")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	loader := imageLoader{analyzer: &stubAnalyzer{}, dir: dir}

	for _, p := range []string{"../secret.png", "leak.png", filepath.Join(outside, "secret.png")} {
		if _, err := loader.load(ctx, chartAnalyzeInput{ImagePath: p}); !errors.Is(err, chartimage.ErrOutsideDir) {
			t.Fatalf("expected %q to be rejected, got %v", p, err)
		}
	}
}

func TestRiskDefaults(t *testing.T) {
	out, err := riskDefaults("")
	if err != nil || len(out.Profiles) != 3 || out.Default != domain.RiskModerate {
		t.Fatalf("unexpected defaults %+v err %v", out, err)
	}
	if out.Limits.MaxMaxRisk != 10 || out.Limits.MinPositionSize != 0.1 {
		t.Fatalf("unexpected limits %+v", out.Limits)
	}

	out, err = riskDefaults("aggressive")
	if err != nil || len(out.Profiles) != 1 || out.Profiles[0].MaxRisk != 5 {
		t.Fatalf("unexpected aggressive defaults %+v err %v", out, err)
	}
}
