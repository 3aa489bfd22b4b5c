package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths are the resolved directories the application reads and writes.
type Paths struct {
	BaseDir   string
	InputDir  string
	OutputDir string
	LogFile   string
}

// ResolvePaths makes the configured directories absolute. Relative paths are
// taken from baseDir, or the working directory when baseDir is empty.
func (c *Config) ResolvePaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}

	return &Paths{
		BaseDir:   baseDir,
		InputDir:  resolve(baseDir, c.Analysis.InputDir),
		OutputDir: resolve(baseDir, c.Analysis.OutputDir),
		LogFile:   resolve(baseDir, c.Logging.FilePath),
	}, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// EnsureDirectories creates the input and output directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.InputDir, p.OutputDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs the resolved paths for debugging.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("input_dir", p.InputDir),
		slog.String("output_dir", p.OutputDir),
		slog.String("log_file", p.LogFile))
}
