package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	apperrors "labpulse/internal/errors"
	"labpulse/pkg/contracts/domain"
)

// Fixed source positions of the instrument export. Positions 2, 6 and 7 are
// not used. This is a property of the export format and is not configurable.
const (
	colTestTime  = 0
	colProfileID = 1
	colResult    = 3
	colStatus    = 4
	colLabName   = 5
	colDeviceID  = 8
	colLot       = 9

	// minMappedWidth is the narrowest row that holds every mapped position.
	minMappedWidth = colLot + 1
)

// ErrEmptyInput is returned for an input without a single row.
var ErrEmptyInput = errors.New("no columns to parse from input")

// FileResult is the outcome of parsing one input.
type FileResult struct {
	Path       string
	Records    []domain.RawRecord
	Headerless bool
	// Degraded is set when the input was narrower than the positional map
	// and some fields were filled with null placeholders.
	Degraded bool
	Err      error
}

// FileError names an input that was skipped.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ParseReport summarizes a multi-file parse.
type ParseReport struct {
	Files  int         `json:"files"`
	Parsed int         `json:"parsed"`
	Failed []FileError `json:"failed,omitempty"`
	Rows   int         `json:"rows"`
}

// Parser decodes instrument exports into raw positional records.
type Parser struct {
	logger *slog.Logger
	opts   ParserOptions
}

// NewParser creates a parser. A nil logger falls back to slog.Default().
func NewParser(logger *slog.Logger, opts ParserOptions) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultParserOptions().Workers
	}
	if opts.Comma == 0 {
		opts.Comma = ','
	}
	return &Parser{
		logger: logger.With(slog.String("component", "parser")),
		opts:   opts,
	}
}

// ParseReader reads one comma-delimited input. name is only used for logging.
func (p *Parser) ParseReader(name string, r io.Reader) (*FileResult, error) {
	reader := csv.NewReader(r)
	reader.Comma = p.opts.Comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read %s", name), err)
	}
	return p.mapRows(name, rows)
}

// ParseFile parses a .csv or .xlsx input.
func (p *Parser) ParseFile(path string) (*FileResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return p.parseWorkbook(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
		}
		defer f.Close()
		return p.ParseReader(path, f)
	}
}

func (p *Parser) parseWorkbook(path string) (*FileResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("workbook %s has no sheets", path), ErrEmptyInput)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q of %s", sheets[0], path), err)
	}
	return p.mapRows(path, rows)
}

// mapRows applies header detection and the positional map.
func (p *Parser) mapRows(name string, rows [][]string) (*FileResult, error) {
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError(name, ErrEmptyInput)
	}

	result := &FileResult{Path: name}

	data := rows
	if isHeaderless(rows[0]) {
		result.Headerless = true
	} else {
		data = rows[1:]
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	if width < minMappedWidth {
		result.Degraded = true
		p.logger.Warn("Input narrower than positional map, using null placeholders",
			slog.String("file", name),
			slog.Int("width", width),
			slog.Int("required_width", minMappedWidth))
	}

	result.Records = make([]domain.RawRecord, 0, len(data))
	for _, row := range data {
		result.Records = append(result.Records, mapRow(row))
	}

	p.logger.Debug("Parsed input",
		slog.String("file", name),
		slog.Int("rows", len(result.Records)),
		slog.Bool("headerless", result.Headerless))

	return result, nil
}

// ParseFiles parses inputs concurrently and merges them in input order.
// A failing input is reported and skipped; only cancellation is returned.
func (p *Parser) ParseFiles(ctx context.Context, paths []string) ([][]domain.RawRecord, *ParseReport, error) {
	results := make([]*FileResult, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = p.ParseFile(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	report := &ParseReport{Files: len(paths)}
	sets := make([][]domain.RawRecord, 0, len(paths))

	for i, path := range paths {
		if errs[i] != nil {
			p.logger.ErrorContext(ctx, "Error processing file, skipping",
				slog.String("file", path),
				slog.String("error", errs[i].Error()))
			report.Failed = append(report.Failed, FileError{Path: path, Error: errs[i].Error()})
			continue
		}
		report.Parsed++
		report.Rows += len(results[i].Records)
		sets = append(sets, results[i].Records)
	}

	p.logger.InfoContext(ctx, "Parsed input files",
		slog.Int("files", report.Files),
		slog.Int("parsed", report.Parsed),
		slog.Int("failed", len(report.Failed)),
		slog.Int("rows", report.Rows))

	return sets, report, nil
}

func mapRow(row []string) domain.RawRecord {
	cell := func(i int) *string {
		if i >= len(row) || row[i] == "" {
			return nil
		}
		v := row[i]
		return &v
	}

	return domain.RawRecord{
		TestTime:  cell(colTestTime),
		ProfileID: cell(colProfileID),
		Result:    cell(colResult),
		Status:    cell(colStatus),
		LabName:   cell(colLabName),
		DeviceID:  cell(colDeviceID),
		Lot:       cell(colLot),
	}
}

// isHeaderless reports whether the first row only holds auto-generated or
// positional column names, meaning it is data rather than a header.
func isHeaderless(first []string) bool {
	for _, name := range first {
		name = strings.TrimSpace(name)
		if name == "" || strings.HasPrefix(name, "Unnamed") {
			continue
		}
		if _, err := strconv.Atoi(name); err == nil {
			continue
		}
		return false
	}
	return true
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		blank := true
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}
