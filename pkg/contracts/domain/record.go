package domain

import "time"

// Status and result values that drive every aggregation.
const (
	StatusInvalid       = "Invalid"
	StatusIndeterminate = "Indeterminate"
	ResultDetected      = "Detected"
)

// Record is one normalized test run.
//
// Records are produced once by the dataset builder and never mutated
// afterwards. MonthKey and WeekKey are pure functions of TestTime.
//
// Fields that were missing in the source row (a short row, or a column
// position beyond the file width) are empty strings.
type Record struct {
	TestTime  time.Time `json:"test_time"`
	ProfileID string    `json:"profile_id"`
	Result    string    `json:"result"`
	Status    string    `json:"status"`
	LabName   string    `json:"lab_name"`
	DeviceID  string    `json:"device_id"`
	Lot       string    `json:"lot"`

	// MonthKey is "YYYY-MM".
	MonthKey string `json:"month_key"`
	// WeekKey is "YYYY-WW" with a Sunday-first week number, see WeekKey in dataprocessing.
	WeekKey string `json:"week_key"`
}

// IsInvalid reports whether the run status is Invalid.
func (r Record) IsInvalid() bool { return r.Status == StatusInvalid }

// IsIndeterminate reports whether the run status is Indeterminate.
func (r Record) IsIndeterminate() bool { return r.Status == StatusIndeterminate }

// Failed reports whether the run counts towards the invalid/indeterminate rate.
func (r Record) Failed() bool { return r.IsInvalid() || r.IsIndeterminate() }

// IsDetected reports whether the run result is Detected.
func (r Record) IsDetected() bool { return r.Result == ResultDetected }

// RawRecord holds the seven positional fields of one input row before
// timestamp parsing. A nil field means the source cell was absent or empty.
type RawRecord struct {
	TestTime  *string
	ProfileID *string
	Result    *string
	Status    *string
	LabName   *string
	DeviceID  *string
	Lot       *string
}

// Str dereferences an optional cell value, returning "" for nil.
func Str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}
