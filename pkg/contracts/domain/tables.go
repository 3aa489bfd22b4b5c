package domain

import "time"

// Tables are materialized aggregation results. Every table knows its own
// column order so that exporters never reorder columns. Row values are
// typed (int, float64, string) and formatted by the exporter.

// Column headers, exactly as the reports show them.
var (
	ProfileOverallHeaders = []string{
		"Total Runs", "Total Invalids", "Total Indeterminates", "Overall Invalid/Indeterminate %",
	}
	LabSummaryHeaders = []string{
		"Lab Name", "Truelab ID", "Total Tests", "Total Detected",
		"Total Invalid/Indeterminate", "Invalid/Indeterminate %", "Last 10 runs Invalid/Indeterminate %",
	}
	LotSummaryHeaders = []string{
		"Lot Number", "Total Runs", "Total Invalid/Indeterminate", "Invalid/Indeterminate %",
	}
	MonthlyTrendHeaders = []string{
		"Month", "Total_Runs", "Total_Invalid", "Total_Indeterminate", "Total_Invalid_Indeterminate",
	}
	WeeklyTrendHeaders = []string{
		"Week", "Total_Runs", "Total_Invalid", "Total_Indeterminate", "Total_Invalid_Indeterminate",
	}
	WeeklyLabHeaders = []string{
		"Week", "Date Range", "Lab Name", "Total Runs", "Total Invalid/Indeterminate", "Invalid/Indeterminate %",
	}
)

// PeriodLayout renders trend periods.
const PeriodLayout = "2006-01-02"

// ProfileOverall is the overall block of the profile summary.
type ProfileOverall struct {
	TotalRuns          int     `json:"total_runs"`
	TotalInvalid       int     `json:"total_invalid"`
	TotalIndeterminate int     `json:"total_indeterminate"`
	InvalidRatePct     float64 `json:"invalid_rate_pct"`
}

func (o ProfileOverall) Headers() []string { return ProfileOverallHeaders }

func (o ProfileOverall) Rows() [][]any {
	return [][]any{{o.TotalRuns, o.TotalInvalid, o.TotalIndeterminate, o.InvalidRatePct}}
}

// LabSummaryRow is one lab of the profile summary.
type LabSummaryRow struct {
	LabName                     string  `json:"lab_name"`
	TruelabIDs                  string  `json:"truelab_ids"`
	TotalTests                  int     `json:"total_tests"`
	TotalDetected               int     `json:"total_detected"`
	TotalInvalidOrIndeterminate int     `json:"total_invalid_or_indeterminate"`
	InvalidRatePct              float64 `json:"invalid_rate_pct"`
	Last10InvalidRatePct        float64 `json:"last_10_invalid_rate_pct"`
}

// LabSummaryTable is the per-lab table of the profile summary.
type LabSummaryTable []LabSummaryRow

func (t LabSummaryTable) Headers() []string { return LabSummaryHeaders }

func (t LabSummaryTable) Rows() [][]any {
	rows := make([][]any, 0, len(t))
	for _, r := range t {
		rows = append(rows, []any{
			r.LabName, r.TruelabIDs, r.TotalTests, r.TotalDetected,
			r.TotalInvalidOrIndeterminate, r.InvalidRatePct, r.Last10InvalidRatePct,
		})
	}
	return rows
}

// LotSummaryRow is one reagent lot.
type LotSummaryRow struct {
	Lot                         string  `json:"lot"`
	TotalRuns                   int     `json:"total_runs"`
	TotalInvalidOrIndeterminate int     `json:"total_invalid_or_indeterminate"`
	InvalidRatePct              float64 `json:"invalid_rate_pct"`
}

// LotSummaryTable is the lot summary, or its top-20 view.
type LotSummaryTable []LotSummaryRow

func (t LotSummaryTable) Headers() []string { return LotSummaryHeaders }

func (t LotSummaryTable) Rows() [][]any {
	rows := make([][]any, 0, len(t))
	for _, r := range t {
		rows = append(rows, []any{r.Lot, r.TotalRuns, r.TotalInvalidOrIndeterminate, r.InvalidRatePct})
	}
	return rows
}

// TrendRow is one month or week bucket.
type TrendRow struct {
	Period                    time.Time `json:"period"`
	TotalRuns                 int       `json:"total_runs"`
	TotalInvalid              int       `json:"total_invalid"`
	TotalIndeterminate        int       `json:"total_indeterminate"`
	TotalInvalidIndeterminate int       `json:"total_invalid_indeterminate"`
}

func (r TrendRow) values() []any {
	return []any{
		r.Period.Format(PeriodLayout), r.TotalRuns, r.TotalInvalid,
		r.TotalIndeterminate, r.TotalInvalidIndeterminate,
	}
}

// MonthlyTrendTable has one row per month, Period being the first of the month.
type MonthlyTrendTable []TrendRow

func (t MonthlyTrendTable) Headers() []string { return MonthlyTrendHeaders }

func (t MonthlyTrendTable) Rows() [][]any {
	rows := make([][]any, 0, len(t))
	for _, r := range t {
		rows = append(rows, r.values())
	}
	return rows
}

// WeeklyTrendTable has one row per week, Period being the week's Monday.
type WeeklyTrendTable []TrendRow

func (t WeeklyTrendTable) Headers() []string { return WeeklyTrendHeaders }

func (t WeeklyTrendTable) Rows() [][]any {
	rows := make([][]any, 0, len(t))
	for _, r := range t {
		rows = append(rows, r.values())
	}
	return rows
}

// WeeklyLabRow is one (week, lab) cell of the weekly-by-lab analysis.
type WeeklyLabRow struct {
	Week                        string  `json:"week"`
	DateRange                   string  `json:"date_range"`
	LabName                     string  `json:"lab_name"`
	TotalRuns                   int     `json:"total_runs"`
	TotalInvalidOrIndeterminate int     `json:"total_invalid_or_indeterminate"`
	InvalidRatePct              float64 `json:"invalid_rate_pct"`
}

// WeeklyLabTable is the weekly-by-lab analysis.
type WeeklyLabTable []WeeklyLabRow

func (t WeeklyLabTable) Headers() []string { return WeeklyLabHeaders }

func (t WeeklyLabTable) Rows() [][]any {
	rows := make([][]any, 0, len(t))
	for _, r := range t {
		rows = append(rows, []any{
			r.Week, r.DateRange, r.LabName, r.TotalRuns, r.TotalInvalidOrIndeterminate, r.InvalidRatePct,
		})
	}
	return rows
}
