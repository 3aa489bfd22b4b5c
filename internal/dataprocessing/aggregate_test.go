package dataprocessing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labpulse/pkg/contracts/domain"
)

// threeRuns is two invalid runs in lab A and one valid run in lab B, all in
// January 2024.
func threeRuns(t *testing.T) *Dataset {
	t.Helper()
	return build(t, []domain.RawRecord{
		raw("10-01-2024 08:00:00", "P1", "Not Detected", "Invalid", "A", "D1", "L1"),
		raw("11-01-2024 08:00:00", "P1", "Detected", "Invalid", "A", "D2", "L1"),
		raw("12-01-2024 08:00:00", "P1", "Detected", "Valid", "B", "D3", "L2"),
	})
}

func TestRate(t *testing.T) {
	tests := []struct {
		part, total int
		want        float64
	}{
		{part: 2, total: 3, want: 66.67},
		{part: 1, total: 3, want: 33.33},
		{part: 1, total: 6, want: 16.67},
		{part: 1, total: 8, want: 12.5},
		{part: 1, total: 32, want: 3.12},
		{part: 5, total: 32, want: 15.62},
		{part: 3, total: 32, want: 9.38},
		{part: 1, total: 7, want: 14.29},
		{part: 3, total: 3, want: 100},
		{part: 0, total: 3, want: 0},
		{part: 0, total: 0, want: 0},
		{part: 5, total: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.part, tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, Rate(tt.part, tt.total))
		})
	}
}

func TestProfileSummary(t *testing.T) {
	ds := threeRuns(t)

	overall, labs, ok := ProfileSummary(ds, domain.NewFilter("P1", ""))
	require.True(t, ok)

	assert.Equal(t, &domain.ProfileOverall{
		TotalRuns:          3,
		TotalInvalid:       2,
		TotalIndeterminate: 0,
		InvalidRatePct:     66.67,
	}, overall)

	want := domain.LabSummaryTable{
		{
			LabName:                     "A",
			TruelabIDs:                  "D1, D2",
			TotalTests:                  2,
			TotalDetected:               1,
			TotalInvalidOrIndeterminate: 2,
			InvalidRatePct:              100,
			Last10InvalidRatePct:        100,
		},
		{
			LabName:                     "B",
			TruelabIDs:                  "D3",
			TotalTests:                  1,
			TotalDetected:               1,
			TotalInvalidOrIndeterminate: 0,
			InvalidRatePct:              0,
			Last10InvalidRatePct:        0,
		},
	}
	if diff := cmp.Diff(want, labs); diff != "" {
		t.Errorf("ProfileSummary() labs mismatch (-want +got):\n%s", diff)
	}
}

func TestProfileSummary_IgnoresLabFilter(t *testing.T) {
	ds := threeRuns(t)

	_, labs, ok := ProfileSummary(ds, domain.NewFilter("P1", "B"))
	require.True(t, ok)
	assert.Len(t, labs, 2)
}

func TestProfileSummary_Last10InDatasetOrder(t *testing.T) {
	var set []domain.RawRecord
	// two invalid runs first, then ten valid ones; rows are not time sorted
	for i := 0; i < 12; i++ {
		status := "Valid"
		if i < 2 {
			status = "Invalid"
		}
		day := 28 - i
		set = append(set, raw(fmt.Sprintf("%02d-01-2024 08:00:00", day), "P1", "", status, "A", "D1", "L1"))
	}
	ds := build(t, set)

	overall, labs, ok := ProfileSummary(ds, domain.Filter{})
	require.True(t, ok)

	assert.Equal(t, 16.67, overall.InvalidRatePct)
	require.Len(t, labs, 1)
	assert.Equal(t, 16.67, labs[0].InvalidRatePct)
	assert.Equal(t, 0.0, labs[0].Last10InvalidRatePct)
	assert.Equal(t, "D1", labs[0].TruelabIDs)
}

func TestProfileSummary_Indeterminate(t *testing.T) {
	ds := build(t, []domain.RawRecord{
		raw("10-01-2024 08:00:00", "P1", "", "Indeterminate", "A", "", "L1"),
		raw("11-01-2024 08:00:00", "P1", "", "Invalid", "A", "", "L1"),
		raw("12-01-2024 08:00:00", "P1", "", "Valid", "A", "", "L1"),
		raw("13-01-2024 08:00:00", "P1", "", "Valid", "A", "", "L1"),
	})

	overall, labs, ok := ProfileSummary(ds, domain.Filter{})
	require.True(t, ok)

	assert.Equal(t, 1, overall.TotalInvalid)
	assert.Equal(t, 1, overall.TotalIndeterminate)
	assert.Equal(t, 50.0, overall.InvalidRatePct)
	assert.Equal(t, "", labs[0].TruelabIDs)
}

func TestAggregations_EmptySignal(t *testing.T) {
	datasets := map[string]*Dataset{
		"empty dataset": build(t),
		"nil dataset":   nil,
		"unknown":       threeRuns(t),
	}

	for name, ds := range datasets {
		t.Run(name, func(t *testing.T) {
			f := domain.NewFilter("NOPE", "")

			overall, labs, ok := ProfileSummary(ds, f)
			assert.False(t, ok)
			assert.Nil(t, overall)
			assert.Nil(t, labs)

			lots, top, ok := LotSummary(ds, f)
			assert.False(t, ok)
			assert.Nil(t, lots)
			assert.Nil(t, top)

			monthly, weekly, ok := TrendAnalysis(ds, f)
			assert.False(t, ok)
			assert.Nil(t, monthly)
			assert.Nil(t, weekly)

			weeklyLab, ok := WeeklyByLab(ds, f)
			assert.False(t, ok)
			assert.Nil(t, weeklyLab)
		})
	}
}

func TestAggregations_UnknownLab(t *testing.T) {
	ds := threeRuns(t)
	f := domain.NewFilter("P1", "Z")

	_, _, ok := TrendAnalysis(ds, f)
	assert.False(t, ok)
	_, ok = WeeklyByLab(ds, f)
	assert.False(t, ok)

	// profile-only views still answer
	_, _, ok = LotSummary(ds, f)
	assert.True(t, ok)
}

func TestLotSummary(t *testing.T) {
	ds := threeRuns(t)

	lots, top, ok := LotSummary(ds, domain.NewFilter("P1", ""))
	require.True(t, ok)

	want := domain.LotSummaryTable{
		{Lot: "L1", TotalRuns: 2, TotalInvalidOrIndeterminate: 2, InvalidRatePct: 100},
		{Lot: "L2", TotalRuns: 1, TotalInvalidOrIndeterminate: 0, InvalidRatePct: 0},
	}
	if diff := cmp.Diff(want, lots); diff != "" {
		t.Errorf("LotSummary() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, top); diff != "" {
		t.Errorf("LotSummary() top mismatch (-want +got):\n%s", diff)
	}
}

func TestLotSummary_Top20(t *testing.T) {
	var set []domain.RawRecord
	// lot i gets i%5+1 runs
	for i := 0; i < 25; i++ {
		for j := 0; j <= i%5; j++ {
			set = append(set, raw("10-01-2024 08:00:00", "P1", "", "Valid", "A", "", fmt.Sprintf("L%02d", i)))
		}
	}
	ds := build(t, set)

	lots, top, ok := LotSummary(ds, domain.Filter{})
	require.True(t, ok)

	assert.Len(t, lots, 25)
	assert.Equal(t, "L00", lots[0].Lot)
	require.Len(t, top, 20)

	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].TotalRuns, top[i].TotalRuns)
	}

	// ties keep first appearance order
	var leaders []string
	for _, r := range top[:5] {
		leaders = append(leaders, r.Lot)
	}
	assert.Equal(t, []string{"L04", "L09", "L14", "L19", "L24"}, leaders)
	assert.Equal(t, "L03", top[5].Lot)
}

func TestTopLots(t *testing.T) {
	assert.Nil(t, TopLots(nil, 20))

	table := domain.LotSummaryTable{{Lot: "a", TotalRuns: 1}, {Lot: "b", TotalRuns: 3}}
	top := TopLots(table, 20)
	assert.Equal(t, "b", top[0].Lot)
	// input is untouched
	assert.Equal(t, "a", table[0].Lot)
}

func TestAggregations_RateBounds(t *testing.T) {
	ds := threeRuns(t)

	_, labs, _ := ProfileSummary(ds, domain.Filter{})
	for _, r := range labs {
		assert.GreaterOrEqual(t, r.InvalidRatePct, 0.0)
		assert.LessOrEqual(t, r.InvalidRatePct, 100.0)
	}
	lots, _, _ := LotSummary(ds, domain.Filter{})
	for _, r := range lots {
		assert.GreaterOrEqual(t, r.InvalidRatePct, 0.0)
		assert.LessOrEqual(t, r.InvalidRatePct, 100.0)
	}
}

func TestAggregations_Concurrent(t *testing.T) {
	ds := threeRuns(t)
	f := domain.NewFilter("P1", "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			overall, _, ok := ProfileSummary(ds, f)
			assert.True(t, ok)
			assert.Equal(t, 3, overall.TotalRuns)
			_, _, ok = TrendAnalysis(ds, f)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}
