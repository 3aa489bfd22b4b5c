package dataprocessing

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"labpulse/pkg/contracts/domain"
)

const dateRangeLayout = "02-01-2006"

// TrendAnalysis computes the monthly and weekly trend tables. Both profile and
// lab selections apply. The two tables are either both populated or both nil.
//
// Monthly periods are the first day of the month. Weekly periods are the
// Monday of the Sunday-first week (see WeekStart). Both are ascending.
func TrendAnalysis(ds *Dataset, f domain.Filter) (domain.MonthlyTrendTable, domain.WeeklyTrendTable, bool) {
	recs := ds.Filter(f)
	if len(recs) == 0 {
		return nil, nil, false
	}

	months, monthKeys := groupCounts(recs, func(r domain.Record) string { return r.MonthKey })
	weeks, weekKeys := groupCounts(recs, func(r domain.Record) string { return r.WeekKey })

	monthly := make(domain.MonthlyTrendTable, 0, len(monthKeys))
	for _, key := range monthKeys {
		period, _ := MonthStart(key)
		monthly = append(monthly, trendRow(period, months[key]))
	}

	weekly := make(domain.WeeklyTrendTable, 0, len(weekKeys))
	for _, key := range weekKeys {
		var period time.Time
		if year, week, ok := ParseWeekKey(key); ok {
			period = WeekStart(year, week)
		}
		weekly = append(weekly, trendRow(period, weeks[key]))
	}

	byPeriod := func(a, b domain.TrendRow) int { return a.Period.Compare(b.Period) }
	// keys are pre-sorted, so a stable sort keeps "2023-53" before "2024-00"
	// when both weeks start on the same Monday
	slices.SortStableFunc(monthly, byPeriod)
	slices.SortStableFunc(weekly, byPeriod)

	return monthly, weekly, true
}

func trendRow(period time.Time, c *counts) domain.TrendRow {
	return domain.TrendRow{
		Period:                    period,
		TotalRuns:                 c.runs,
		TotalInvalid:              c.invalid,
		TotalIndeterminate:        c.indeterminate,
		TotalInvalidIndeterminate: c.failed(),
	}
}

// groupCounts tallies records by key and returns the keys sorted.
func groupCounts(recs []domain.Record, key func(domain.Record) string) (map[string]*counts, []string) {
	groups := make(map[string]*counts)
	var keys []string
	for _, r := range recs {
		k := key(r)
		acc, ok := groups[k]
		if !ok {
			acc = &counts{}
			groups[k] = acc
			keys = append(keys, k)
		}
		acc.add(r)
	}
	slices.Sort(keys)
	return groups, keys
}

type weekGroup struct {
	labs  []string
	count map[string]*counts
}

// WeeklyByLab computes one row per (week, lab). Weeks are visited in raw key
// order and labs in first-appearance order within the week, then the result
// is stably sorted by lab name so each lab's weeks stay in week order.
func WeeklyByLab(ds *Dataset, f domain.Filter) (domain.WeeklyLabTable, bool) {
	recs := ds.Filter(f)
	if len(recs) == 0 {
		return nil, false
	}

	groups := make(map[string]*weekGroup)
	var keys []string
	for _, r := range recs {
		g, ok := groups[r.WeekKey]
		if !ok {
			g = &weekGroup{count: make(map[string]*counts)}
			groups[r.WeekKey] = g
			keys = append(keys, r.WeekKey)
		}
		acc, ok := g.count[r.LabName]
		if !ok {
			acc = &counts{}
			g.count[r.LabName] = acc
			g.labs = append(g.labs, r.LabName)
		}
		acc.add(r)
	}
	slices.Sort(keys)

	var table domain.WeeklyLabTable
	for _, key := range keys {
		label, dateRange := WeekLabel(key)
		g := groups[key]
		for _, lab := range g.labs {
			acc := g.count[lab]
			table = append(table, domain.WeeklyLabRow{
				Week:                        label,
				DateRange:                   dateRange,
				LabName:                     lab,
				TotalRuns:                   acc.runs,
				TotalInvalidOrIndeterminate: acc.failed(),
				InvalidRatePct:              acc.rate(),
			})
		}
	}

	slices.SortStableFunc(table, func(a, b domain.WeeklyLabRow) int {
		return strings.Compare(a.LabName, b.LabName)
	})

	return table, true
}

// WeekLabel renders a week key as "<year> Week <ww>" and its Monday to Sunday
// range as "DD-MM-YYYY to DD-MM-YYYY". A key that does not decompose into a
// year and week number is labelled "Week <key>" with no range.
func WeekLabel(key string) (label, dateRange string) {
	year, week, ok := ParseWeekKey(key)
	if !ok {
		return "Week " + key, ""
	}

	parts := strings.SplitN(key, "-", 3)
	label = fmt.Sprintf("%s Week %s", parts[0], parts[1])

	start := WeekStart(year, week)
	end := start.AddDate(0, 0, 6)
	dateRange = start.Format(dateRangeLayout) + " to " + end.Format(dateRangeLayout)
	return label, dateRange
}
