package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apierrors "labpulse/internal/errors"
	"labpulse/internal/files"
)

// FileValidator checks input and output locations before a load or an
// export touches them.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInputDirectory checks that dir is a readable directory and
// returns how many input files it holds. No input files is not an error.
func (v *FileValidator) ValidateInputDirectory(dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return 0, apierrors.NewNotFoundError("input directory "+dir).WithContext("path", dir)
	}
	if err != nil {
		v.logger.Error("Failed to stat input directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("input directory %s is not readable: %w", dir, err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && files.IsInputFile(entry.Name()) {
			count++
		}
	}

	if count == 0 {
		v.logger.Warn("No input files found",
			slog.String("directory", dir))
		return 0, nil
	}

	v.logger.Debug("Input directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", count))
	return count, nil
}

// ValidateOutputDirectory creates dir when missing and checks that it is
// writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	_ = os.Remove(probe)

	return nil
}

// ValidateInputFile checks that path is a non-empty, readable CSV or XLSX
// file.
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Warn("File does not exist",
			slog.String("file", path))
		return apierrors.NewNotFoundError("file "+path).WithContext("path", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if !files.IsInputFile(path) {
		v.logger.Warn("File is not an input file",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return fmt.Errorf("file %s is not a CSV or XLSX file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file %s is empty", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// FilterInputFiles splits paths into valid input files and the errors of
// the rest, keeping order.
func (v *FileValidator) FilterInputFiles(paths []string) ([]string, []error) {
	var (
		valid []string
		errs  []error
	)
	for _, p := range paths {
		if err := v.ValidateInputFile(p); err != nil {
			errs = append(errs, err)
			continue
		}
		valid = append(valid, p)
	}
	return valid, errs
}
