package exporter

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name spreadsheet tools accept.
const maxSheetName = 31

// Sheet is one table in a workbook.
type Sheet struct {
	Name  string
	Table Table
}

// ErrNoSheets is returned when a workbook would have no sheet.
var ErrNoSheets = errors.New("no sheets to export")

// ToXLSX builds a workbook with one sheet per table. Header cells are bold
// and values keep their type so numbers stay numeric.
func ToXLSX(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	used := make(map[string]int)
	for i, sheet := range sheets {
		name := uniqueSheetName(SheetName(sheet.Name), used)

		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("failed to name sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %q: %w", name, err)
		}

		if err := writeSheet(f, name, sheet.Table, headerStyle); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, t Table, headerStyle int) error {
	headers := t.Headers()
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers of %q: %w", name, err)
	}

	if len(headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style headers of %q: %w", name, err)
		}
	}

	for i, row := range t.Rows() {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := xlsxRow(row)
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i, name, err)
		}
	}
	return nil
}

// xlsxRow keeps numbers numeric and renders everything else as text.
func xlsxRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		switch v.(type) {
		case int, int64, float64, float32:
			out[i] = v
		default:
			out[i] = formatCell(v)
		}
	}
	return out
}

// SheetName derives a valid sheet name from a file name.
func SheetName(name string) string {
	if name != "" {
		name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Sheet1"
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}

func uniqueSheetName(name string, used map[string]int) string {
	key := strings.ToLower(name)
	n := used[key]
	used[key] = n + 1
	if n == 0 {
		return name
	}

	suffix := fmt.Sprintf(" (%d)", n+1)
	runes := []rune(name)
	if len(runes)+len(suffix) > maxSheetName {
		runes = runes[:maxSheetName-len(suffix)]
	}
	return string(runes) + suffix
}
