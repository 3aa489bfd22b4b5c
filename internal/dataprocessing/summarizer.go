package dataprocessing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"labpulse/pkg/contracts/domain"
)

// Summarizer computes every view for one selection. The views are
// independent so they run concurrently over the same dataset.
type Summarizer struct {
	logger *slog.Logger
}

// Report bundles every view of one selection. Empty is set when the
// selection matched no record; all views are nil in that case.
type Report struct {
	Version     string                   `json:"version"`
	Profile     string                   `json:"profile"`
	Lab         string                   `json:"lab"`
	GeneratedAt time.Time                `json:"generated_at"`
	Empty       bool                     `json:"empty"`
	Overall     *domain.ProfileOverall   `json:"overall,omitempty"`
	Labs        domain.LabSummaryTable   `json:"labs,omitempty"`
	Lots        domain.LotSummaryTable   `json:"lots,omitempty"`
	TopLots     domain.LotSummaryTable   `json:"top_lots,omitempty"`
	Monthly     domain.MonthlyTrendTable `json:"monthly,omitempty"`
	Weekly      domain.WeeklyTrendTable  `json:"weekly,omitempty"`
	WeeklyByLab domain.WeeklyLabTable    `json:"weekly_by_lab,omitempty"`
}

// NewSummarizer creates a summarizer. A nil logger falls back to slog.Default().
func NewSummarizer(logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger.With(slog.String("component", "summarizer"))}
}

// Summarize computes all views for f.
func (s *Summarizer) Summarize(ctx context.Context, ds *Dataset, f domain.Filter) (*Report, error) {
	f = f.Normalize()
	report := &Report{
		Version:     ds.Version(),
		Profile:     f.Profile,
		Lab:         f.Lab,
		GeneratedAt: time.Now(),
	}

	var okProfile, okLots, okTrend, okWeekly bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Overall, report.Labs, okProfile = ProfileSummary(ds, f)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Lots, report.TopLots, okLots = LotSummary(ds, f)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Monthly, report.Weekly, okTrend = TrendAnalysis(ds, f)
		return gctx.Err()
	})
	g.Go(func() error {
		report.WeeklyByLab, okWeekly = WeeklyByLab(ds, f)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Empty = !okProfile && !okLots && !okTrend && !okWeekly

	s.logger.InfoContext(ctx, "Report generated",
		slog.String("version", report.Version),
		slog.String("profile", f.Profile),
		slog.String("lab", f.Lab),
		slog.Bool("empty", report.Empty))

	return report, nil
}

// WriteJSON writes a report as indented JSON, creating the directory.
func (s *Summarizer) WriteJSON(ctx context.Context, path string, report *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	s.logger.InfoContext(ctx, "Wrote report", slog.String("path", path))
	return nil
}
