package exporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"labpulse/pkg/contracts/domain"
)

func TestToXLSX(t *testing.T) {
	lots := domain.LotSummaryTable{{Lot: "L1", TotalRuns: 2, TotalInvalidOrIndeterminate: 1, InvalidRatePct: 50}}

	data, err := ToXLSX(
		Sheet{Name: "profile_id_analysis_P1.xlsx", Table: sampleLabs()},
		Sheet{Name: "Lots", Table: lots},
	)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"profile_id_analysis_P1", "Lots"}, f.GetSheetList())

	rows, err := f.GetRows("profile_id_analysis_P1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.LabSummaryHeaders, rows[0])
	assert.Equal(t, "A", rows[1][0])
	assert.Equal(t, "D1, D2", rows[1][1])

	// numbers stay numeric
	cellType, err := f.GetCellType("Lots", "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType)
	value, err := f.GetCellValue("Lots", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", value)

	styleID, err := f.GetCellStyle("Lots", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestToXLSX_NoSheets(t *testing.T) {
	_, err := ToXLSX()
	assert.ErrorIs(t, err, ErrNoSheets)
}

func TestToXLSX_DuplicateNames(t *testing.T) {
	data, err := ToXLSX(
		Sheet{Name: "Trend", Table: domain.MonthlyTrendTable{}},
		Sheet{Name: "trend", Table: domain.WeeklyTrendTable{}},
	)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Trend", "trend (2)"}, f.GetSheetList())
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "lot_analysis_P1.csv", expected: "lot_analysis_P1"},
		{input: "a/b:c", expected: "b_c"},
		{input: "x[1]*?", expected: "x_1___"},
		{input: "", expected: "Sheet1"},
		{input: strings.Repeat("n", 40), expected: strings.Repeat("n", 31)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SheetName(tt.input))
		})
	}
}
