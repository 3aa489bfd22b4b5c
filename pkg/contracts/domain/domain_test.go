package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Match(t *testing.T) {
	rec := Record{ProfileID: "P1", LabName: "Lab A"}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "zero filter matches everything", filter: Filter{}, want: true},
		{name: "sentinels match everything", filter: Filter{Profile: AllProfiles, Lab: AllLabs}, want: true},
		{name: "matching profile", filter: Filter{Profile: "P1"}, want: true},
		{name: "other profile", filter: Filter{Profile: "P2"}, want: false},
		{name: "matching profile and lab", filter: Filter{Profile: "P1", Lab: "Lab A"}, want: true},
		{name: "other lab", filter: Filter{Profile: "P1", Lab: "Lab B"}, want: false},
		{name: "lab only", filter: Filter{Lab: "Lab A"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(rec))
		})
	}
}

func TestFilter_Normalize(t *testing.T) {
	assert.Equal(t, Filter{Profile: AllProfiles, Lab: AllLabs}, Filter{}.Normalize())
	assert.Equal(t, NewFilter("", ""), NewFilter(AllProfiles, AllLabs))
	assert.Equal(t, Filter{Profile: "P1", Lab: AllLabs}, NewFilter("P1", "Lab A").ProfileOnly())
}

func TestRecord_StatusHelpers(t *testing.T) {
	assert.True(t, Record{Status: StatusInvalid}.Failed())
	assert.True(t, Record{Status: StatusIndeterminate}.Failed())
	assert.False(t, Record{Status: "Valid"}.Failed())
	assert.False(t, Record{Status: "invalid"}.Failed(), "status comparison is case sensitive")
	assert.True(t, Record{Result: ResultDetected}.IsDetected())
}

func TestStr(t *testing.T) {
	assert.Equal(t, "", Str(nil))
	assert.Equal(t, "x", Str(StrPtr("x")))
}

func TestTables_ColumnOrder(t *testing.T) {
	labs := LabSummaryTable{{LabName: "A", TruelabIDs: "D1, D2", TotalTests: 2, InvalidRatePct: 100}}
	require.Len(t, labs.Rows(), 1)
	assert.Len(t, labs.Rows()[0], len(labs.Headers()))
	assert.Equal(t, "Lab Name", labs.Headers()[0])
	assert.Equal(t, "D1, D2", labs.Rows()[0][1])

	monthly := MonthlyTrendTable{{Period: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), TotalRuns: 3}}
	assert.Equal(t, "Month", monthly.Headers()[0])
	assert.Equal(t, "2024-01-01", monthly.Rows()[0][0])

	weekly := WeeklyTrendTable{}
	assert.Equal(t, "Week", weekly.Headers()[0])
	assert.Empty(t, weekly.Rows())

	overall := ProfileOverall{TotalRuns: 3, TotalInvalid: 2, InvalidRatePct: 66.67}
	assert.Equal(t, [][]any{{3, 2, 0, 66.67}}, overall.Rows())

	lots := LotSummaryTable{{Lot: "L1", TotalRuns: 2}}
	assert.Equal(t, []any{"L1", 2, 0, 0.0}, lots.Rows()[0])

	weeklyLab := WeeklyLabTable{{Week: "2024 Week 01", LabName: "A"}}
	assert.Len(t, weeklyLab.Rows()[0], len(WeeklyLabHeaders))
}
