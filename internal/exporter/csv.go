package exporter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Table is any result that knows its own column order.
type Table interface {
	Headers() []string
	Rows() [][]any
}

// ErrEmptyCSV is returned when reading back a CSV without a header row.
var ErrEmptyCSV = errors.New("csv has no header row")

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	// BOMPrefix adds a UTF-8 BOM so spreadsheet tools detect the encoding.
	BOMPrefix bool
}

// WriteCSV writes the header row and then every data row of t. There is no
// index column.
func WriteCSV(w io.Writer, t Table, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if err := writer.Write(t.Headers()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range t.Rows() {
		if err := writer.Write(formatRow(row)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ToCSV serializes t to CSV bytes.
func ToCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t, WriteOptions{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseTable reads exported CSV back into its header and rows. A leading
// BOM is ignored.
func ParseTable(data []byte) ([]string, [][]string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, ErrEmptyCSV
	}
	return records[0], records[1:], nil
}

// FileWriter writes report files under one output directory.
type FileWriter struct {
	dir    string
	logger *slog.Logger
}

// NewFileWriter creates a writer rooted at dir. A nil logger falls back to
// slog.Default().
func NewFileWriter(dir string, logger *slog.Logger) *FileWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileWriter{dir: dir, logger: logger.With(slog.String("component", "file_writer"))}
}

// Dir returns the output directory.
func (w *FileWriter) Dir() string { return w.dir }

// Write stores data as name inside the output directory, creating the
// directory when needed. It returns the full path.
func (w *FileWriter) Write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	fullPath := filepath.Join(w.dir, filepath.Base(name))
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	w.logger.Info("Wrote report file",
		slog.String("file_path", name),
		slog.String("full_path", fullPath),
		slog.Int("bytes", len(data)))

	return fullPath, nil
}

// WriteTable encodes t in format and writes it as name.
func (w *FileWriter) WriteTable(name string, t Table, format Format) (string, error) {
	data, err := Encode(format, Sheet{Name: SheetName(name), Table: t})
	if err != nil {
		return "", err
	}
	return w.Write(name, data)
}
