package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"labpulse/internal/files"
	"labpulse/pkg/contracts"
)

// DatasetProvider is what the health checks need from the analysis service.
type DatasetProvider interface {
	Status() DatasetStatus
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	inputDir  string
	dataset   DatasetProvider
	discovery *files.Discovery
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]any           `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds  float64 `json:"uptime_seconds"`
	InputFiles     int     `json:"input_files"`
	InputSizeBytes int64   `json:"input_size_bytes"`
	LatestInput    string  `json:"latest_input,omitempty"`
	Records        int     `json:"records"`
	GoVersion      string  `json:"go_version"`
	Goroutines     int     `json:"goroutines"`
	OS             string  `json:"os"`
	Arch           string  `json:"arch"`
}

// NewHealthService creates a health service over the dataset and its input
// directory. A nil dataset provider reports the dataset as not ready.
func NewHealthService(inputDir string, dataset DatasetProvider, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", contracts.Version),
		slog.String("input_dir", inputDir))

	return &HealthService{
		version:   contracts.Version,
		inputDir:  inputDir,
		dataset:   dataset,
		discovery: files.NewDiscovery(""),
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck is ready once the input directory exists and a dataset
// is loaded.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"input":   hs.checkInputHealth(),
			"dataset": hs.checkDatasetHealth(),
		},
	}

	for _, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]any{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]any {
	info := contracts.GetVersionInfo()
	return map[string]any{
		"version":       info.Version,
		"stage":         info.Stage,
		"build_time":    info.BuildTime,
		"git_commit":    info.GitCommit,
		"go_version":    info.GoVersion,
		"os":            info.OS,
		"arch":          info.Architecture,
		"report_format": info.ReportFormat,
		"api_version":   info.APIVersion,
		"uptime":        time.Since(hs.startTime).Seconds(),
		"start_time":    hs.startTime.Format(time.RFC3339),
		"current_time":  time.Now().Format(time.RFC3339),
	}
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	if hs.dataset != nil {
		stats.Records = hs.dataset.Status().Records
	}

	inputs, err := hs.discovery.FindInputFiles(hs.inputDir)
	if err != nil {
		return stats, fmt.Errorf("failed to list input files: %w", err)
	}
	stats.InputFiles = len(inputs)
	for _, f := range inputs {
		stats.InputSizeBytes += f.Size
	}
	if latest, ok := files.GetLatestFile(inputs); ok {
		stats.LatestInput = latest.Name
	}
	return stats, nil
}

func (hs *HealthService) checkInputHealth() ServiceHealth {
	info, err := os.Stat(hs.inputDir)
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Input directory not accessible: %s", hs.inputDir),
		}
	}
	if !info.IsDir() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Input path is not a directory: %s", hs.inputDir),
		}
	}
	return ServiceHealth{Status: "ready", Message: "Input directory is accessible"}
}

func (hs *HealthService) checkDatasetHealth() ServiceHealth {
	if hs.dataset == nil {
		return ServiceHealth{Status: "not_ready", Message: "analysis service not initialized"}
	}

	st := hs.dataset.Status()
	if !st.Loaded {
		return ServiceHealth{Status: "not_ready", Message: "no dataset loaded"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d records, version %s", st.Records, st.Version),
		Uptime:  time.Since(st.LoadedAt).Round(time.Second).String(),
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]any {
	stats, _ := hs.SystemStats(ctx)

	detail := map[string]any{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     stats,
	}
	if hs.dataset != nil {
		detail["dataset"] = hs.dataset.Status()
	}
	return detail
}
