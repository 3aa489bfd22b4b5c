package exporter

import (
	"errors"
	"fmt"
	"strings"

	"labpulse/pkg/contracts/domain"
)

// Format is an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for a format Encode cannot produce.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat maps a user supplied value to a Format. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the HTTP media type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Encode serializes sheets. CSV holds a single table; XLSX holds one sheet
// per table.
func Encode(f Format, sheets ...Sheet) ([]byte, error) {
	switch f {
	case FormatCSV:
		if len(sheets) != 1 {
			return nil, fmt.Errorf("csv export needs exactly one table, got %d", len(sheets))
		}
		return ToCSV(sheets[0].Table)
	case FormatXLSX:
		return ToXLSX(sheets...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// Report names a downloadable view.
type Report string

const (
	ReportProfile      Report = "profile_id_analysis"
	ReportLots         Report = "lot_analysis"
	ReportMonthlyTrend Report = "monthly_trend"
	ReportWeeklyTrend  Report = "weekly_trend"
	ReportWeeklyByLab  Report = "weekly_analysis"
)

// FileName returns the download name of a report, for example
// "monthly_trend_P1_Lab_A.csv". Profile and lot reports only carry the
// profile. Spaces in the lab become underscores.
func FileName(r Report, f domain.Filter, format Format) string {
	f = f.Normalize()
	if format == "" {
		format = FormatCSV
	}

	name := string(r) + "_" + safeName(f.Profile)
	switch r {
	case ReportProfile, ReportLots:
	default:
		name += "_" + safeName(strings.ReplaceAll(f.Lab, " ", "_"))
	}
	return name + "." + string(format)
}

// safeName keeps a filter value usable as a single path element.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
