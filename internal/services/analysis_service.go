package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"labpulse/internal/config"
	"labpulse/internal/dataprocessing"
	"labpulse/internal/files"
	"labpulse/internal/infrastructure"
	"labpulse/pkg/contracts/domain"
)

// ProfileSummaryResult is the profile summary view.
type ProfileSummaryResult struct {
	Overall *domain.ProfileOverall `json:"overall"`
	Labs    domain.LabSummaryTable `json:"labs"`
}

// LotSummaryResult is the lot summary view with its top-20 cut.
type LotSummaryResult struct {
	Lots    domain.LotSummaryTable `json:"lots"`
	TopLots domain.LotSummaryTable `json:"top_lots"`
}

// TrendResult is the monthly and weekly trend view.
type TrendResult struct {
	Monthly domain.MonthlyTrendTable `json:"monthly"`
	Weekly  domain.WeeklyTrendTable  `json:"weekly"`
}

// DatasetStatus describes the loaded dataset.
type DatasetStatus struct {
	Loaded   bool                       `json:"loaded"`
	Version  string                     `json:"version,omitempty"`
	Records  int                        `json:"records"`
	Dropped  int                        `json:"dropped"`
	Files    int                        `json:"files"`
	Failed   []dataprocessing.FileError `json:"failed,omitempty"`
	Profiles int                        `json:"profiles"`
	Labs     int                        `json:"labs"`
	LoadedAt time.Time                  `json:"loaded_at,omitempty"`
	Cache    dataprocessing.CacheStats  `json:"cache"`
}

// viewResult is what the cache holds for a view, so that empty selections
// are cached as well.
type viewResult[T any] struct {
	value T
	ok    bool
}

// AnalysisService owns the current dataset and serves cached views of it.
// A load builds a complete new dataset and swaps it in, so readers never
// see a partial one.
type AnalysisService struct {
	mu       sync.RWMutex
	dataset  *dataprocessing.Dataset
	report   *dataprocessing.ParseReport
	loadedAt time.Time

	// loadMu serializes loads.
	loadMu sync.Mutex

	inputDir   string
	discovery  *files.Discovery
	parser     *dataprocessing.Parser
	builder    *dataprocessing.Builder
	summarizer *dataprocessing.Summarizer
	cache      *dataprocessing.ResultCache
	ownsCache  bool
	tracer     trace.Tracer
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// Option configures an AnalysisService.
type Option func(*AnalysisService)

// WithTracer wraps loads and views in spans of tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *AnalysisService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMetrics records load and view metrics.
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(s *AnalysisService) { s.metrics = m }
}

// WithCache replaces the service's own result cache. The caller keeps
// ownership and must stop it.
func WithCache(c *dataprocessing.ResultCache) Option {
	return func(s *AnalysisService) {
		if c != nil {
			s.cache = c
			s.ownsCache = false
		}
	}
}

// NewAnalysisService creates a service over cfg.InputDir. Nothing is
// loaded until Load or Reload is called.
func NewAnalysisService(cfg config.AnalysisConfig, logger *slog.Logger, opts ...Option) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}

	parserOpts := dataprocessing.DefaultParserOptions()
	if cfg.Workers > 0 {
		parserOpts.Workers = cfg.Workers
	}

	s := &AnalysisService{
		inputDir:   cfg.InputDir,
		discovery:  files.NewDiscovery(""),
		parser:     dataprocessing.NewParser(logger, parserOpts),
		builder:    dataprocessing.NewBuilder(logger),
		summarizer: dataprocessing.NewSummarizer(logger),
		tracer:     noop.NewTracerProvider().Tracer(infrastructure.MeterName),
		logger:     logger.With(slog.String("component", "analysis_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = dataprocessing.NewResultCache(cfg.CacheTTL, cfg.CacheSize)
		s.ownsCache = true
	}

	s.logger.Info("AnalysisService initialized",
		slog.String("input_dir", cfg.InputDir),
		slog.Int("workers", parserOpts.Workers),
		slog.Int("cache_size", cfg.CacheSize))
	return s
}

// InputDir is the directory Reload scans.
func (s *AnalysisService) InputDir() string { return s.inputDir }

// Reload rescans the input directory. It waits for a running load.
func (s *AnalysisService) Reload(ctx context.Context) error {
	_, err := s.Load(ctx, s.inputDir)
	return err
}

// TryReload rescans the input directory unless a load is already running.
func (s *AnalysisService) TryReload(ctx context.Context) (DatasetStatus, error) {
	if !s.loadMu.TryLock() {
		return s.Status(), ErrReloadInProgress
	}
	defer s.loadMu.Unlock()
	return s.loadDir(ctx, s.inputDir)
}

// Load parses every input file of dir and replaces the dataset.
func (s *AnalysisService) Load(ctx context.Context, dir string) (DatasetStatus, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.loadDir(ctx, dir)
}

// LoadFiles parses paths in order and replaces the dataset.
func (s *AnalysisService) LoadFiles(ctx context.Context, paths []string) (DatasetStatus, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.load(ctx, paths)
}

func (s *AnalysisService) loadDir(ctx context.Context, dir string) (DatasetStatus, error) {
	paths, err := s.discovery.FindInputPaths(dir)
	if err != nil {
		return s.Status(), fmt.Errorf("failed to list input files: %w", err)
	}
	if len(paths) == 0 {
		return s.Status(), fmt.Errorf("%w in %s", ErrNoInputFiles, dir)
	}
	return s.load(ctx, paths)
}

func (s *AnalysisService) load(ctx context.Context, paths []string) (status DatasetStatus, err error) {
	ctx, span := s.tracer.Start(ctx, "analysis.load", trace.WithAttributes(attribute.Int("files", len(paths))))
	defer span.End()

	start := time.Now()
	var ds *dataprocessing.Dataset
	var report *dataprocessing.ParseReport
	defer func() {
		records, failed := 0, 0
		if ds != nil {
			records = ds.Len()
		}
		if report != nil {
			failed = len(report.Failed)
		}
		s.metrics.RecordDatasetLoad(ctx, time.Since(start), records, ds.Dropped(), failed, err)
		infrastructure.RecordError(ctx, err)
	}()

	sets, report, err := s.parser.ParseFiles(ctx, paths)
	if err != nil {
		return s.Status(), fmt.Errorf("failed to parse input files: %w", err)
	}
	if report.Files > 0 && report.Parsed == 0 {
		s.logger.ErrorContext(ctx, "No input file could be read, keeping current dataset",
			slog.Int("files", report.Files))
		return s.Status(), fmt.Errorf("%w: %d of %d failed", ErrNoReadableFiles, len(report.Failed), report.Files)
	}

	ds = s.builder.Build(sets...)

	s.mu.Lock()
	previous := s.dataset
	s.dataset = ds
	s.report = report
	s.loadedAt = time.Now()
	s.mu.Unlock()

	if previous != nil {
		s.cache.InvalidateVersion(previous.Version())
	}

	span.SetAttributes(
		attribute.String("dataset.version", ds.Version()),
		attribute.Int("dataset.records", ds.Len()),
		attribute.Int("dataset.dropped", ds.Dropped()),
	)
	s.logger.InfoContext(ctx, "Dataset loaded",
		slog.String("version", ds.Version()),
		slog.Int("records", ds.Len()),
		slog.Int("dropped", ds.Dropped()),
		slog.Int("files", report.Parsed),
		slog.Int("failed", len(report.Failed)),
		slog.Duration("duration", time.Since(start)))

	return s.Status(), nil
}

// Dataset returns the current dataset.
func (s *AnalysisService) Dataset() (*dataprocessing.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return nil, ErrNoDataset
	}
	return s.dataset, nil
}

// Ready reports whether a dataset is loaded.
func (s *AnalysisService) Ready() bool {
	_, err := s.Dataset()
	return err == nil
}

// Status describes the current dataset.
func (s *AnalysisService) Status() DatasetStatus {
	s.mu.RLock()
	ds, report, loadedAt := s.dataset, s.report, s.loadedAt
	s.mu.RUnlock()

	status := DatasetStatus{Cache: s.cache.Stats()}
	if ds == nil {
		return status
	}

	status.Loaded = true
	status.Version = ds.Version()
	status.Records = ds.Len()
	status.Dropped = ds.Dropped()
	status.Profiles = len(ds.ProfileIDs())
	status.Labs = len(ds.LabNames())
	status.LoadedAt = loadedAt
	if report != nil {
		status.Files = report.Parsed
		status.Failed = report.Failed
	}
	return status
}

// Profiles lists the distinct profile ids, sorted.
func (s *AnalysisService) Profiles(ctx context.Context) ([]string, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.ProfileIDs(), nil
}

// Labs lists the distinct lab names, sorted.
func (s *AnalysisService) Labs(ctx context.Context) ([]string, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	return ds.LabNames(), nil
}

// ProfileSummary returns the profile summary. The bool is false when the
// selection matched no record.
func (s *AnalysisService) ProfileSummary(ctx context.Context, f domain.Filter) (*ProfileSummaryResult, bool, error) {
	return cachedView(ctx, s, dataprocessing.ViewProfileSummary, f.ProfileOnly(),
		func(ds *dataprocessing.Dataset, f domain.Filter) (*ProfileSummaryResult, bool) {
			overall, labs, ok := dataprocessing.ProfileSummary(ds, f)
			if !ok {
				return nil, false
			}
			return &ProfileSummaryResult{Overall: overall, Labs: labs}, true
		})
}

// LotSummary returns every lot of the profile and the top-20 by runs.
func (s *AnalysisService) LotSummary(ctx context.Context, f domain.Filter) (*LotSummaryResult, bool, error) {
	return cachedView(ctx, s, dataprocessing.ViewLotSummary, f.ProfileOnly(),
		func(ds *dataprocessing.Dataset, f domain.Filter) (*LotSummaryResult, bool) {
			lots, top, ok := dataprocessing.LotSummary(ds, f)
			if !ok {
				return nil, false
			}
			return &LotSummaryResult{Lots: lots, TopLots: top}, true
		})
}

// Trend returns the monthly and weekly trend of the selection.
func (s *AnalysisService) Trend(ctx context.Context, f domain.Filter) (*TrendResult, bool, error) {
	return cachedView(ctx, s, dataprocessing.ViewTrend, f,
		func(ds *dataprocessing.Dataset, f domain.Filter) (*TrendResult, bool) {
			monthly, weekly, ok := dataprocessing.TrendAnalysis(ds, f)
			if !ok {
				return nil, false
			}
			return &TrendResult{Monthly: monthly, Weekly: weekly}, true
		})
}

// WeeklyByLab returns the weekly per-lab analysis of the selection.
func (s *AnalysisService) WeeklyByLab(ctx context.Context, f domain.Filter) (domain.WeeklyLabTable, bool, error) {
	return cachedView(ctx, s, dataprocessing.ViewWeeklyByLab, f, dataprocessing.WeeklyByLab)
}

// Report computes every view of the selection at once.
func (s *AnalysisService) Report(ctx context.Context, f domain.Filter) (*dataprocessing.Report, error) {
	ds, err := s.Dataset()
	if err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "analysis.report")
	defer span.End()
	return s.summarizer.Summarize(ctx, ds, f)
}

// Close stops the result cache if the service created it.
func (s *AnalysisService) Close() {
	if s.ownsCache {
		s.cache.Stop()
	}
}

func cachedView[T any](
	ctx context.Context,
	s *AnalysisService,
	view dataprocessing.View,
	f domain.Filter,
	compute func(*dataprocessing.Dataset, domain.Filter) (T, bool),
) (T, bool, error) {
	var zero T

	ds, err := s.Dataset()
	if err != nil {
		return zero, false, err
	}

	f = f.Normalize()
	ctx, span := s.tracer.Start(ctx, "analysis."+string(view), trace.WithAttributes(
		attribute.String("filter.profile", f.Profile),
		attribute.String("filter.lab", f.Lab),
		attribute.String("dataset.version", ds.Version()),
	))
	defer span.End()

	key := dataprocessing.NewCacheKey(ds.Version(), view, f)
	if v, ok := s.cache.Get(ctx, key); ok {
		if res, ok := v.(viewResult[T]); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return res.value, res.ok, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	start := time.Now()
	value, ok := compute(ds, f)
	s.metrics.RecordViewCompute(ctx, string(view), time.Since(start))

	s.cache.Set(key, viewResult[T]{value: value, ok: ok})
	return value, ok, nil
}
