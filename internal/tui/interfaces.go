package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"candle-lens/internal/chartimage"
	"candle-lens/internal/domain"
)

// ChartAnalyzer provides image preparation and analysis to the TUI.
type ChartAnalyzer interface {
	PrepareImage(ctx context.Context, name string, data []byte, declared string) (*domain.Image, error)
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
	Backend() string
}

// Services bundles all service dependencies injected into the TUI.
type Services struct {
	Analysis ChartAnalyzer
	// ChartDir confines image paths when set. SSH sessions always set it.
	ChartDir string
	// InitialImage is loaded on start when non-empty.
	InitialImage string
	Username     string
	// MaxImageBytes stops reading a chart past this size. Zero reads it whole.
	MaxImageBytes int64
	// ReadFile replaces the filesystem read when set.
	ReadFile func(name string) ([]byte, error)
}

var errOutsideChartDir = chartimage.ErrOutsideDir

func (s Services) readFile(name string) ([]byte, error) {
	if s.ReadFile == nil {
		return chartimage.ReadFile(name, s.MaxImageBytes)
	}
	data, err := s.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if s.MaxImageBytes > 0 && int64(len(data)) > s.MaxImageBytes {
		return nil, chartimage.ErrTooLarge
	}
	return data, nil
}

// resolveChartPath maps a user-typed path onto the filesystem, confined to ChartDir when set.
func (s Services) resolveChartPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil && s.ChartDir == "" {
			p = filepath.Join(home, p[2:])
		}
	}
	if s.ChartDir == "" {
		return filepath.Clean(p), nil
	}
	return chartimage.Confine(s.ChartDir, p)
}
