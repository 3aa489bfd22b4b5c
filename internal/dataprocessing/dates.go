package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// dayFirstLayouts match the day-month-year timestamps instrument exports
// write. Day, month and time fields may be unpadded.
var dayFirstLayouts = []string{
	"02-01-2006 15:04:05",
	"2-1-2006 15:04:05",
	"2-1-2006 15:4:5",
}

// isoLayouts are tried in order after the day-first layout.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTestTime parses a run timestamp. The day-first export layout wins,
// then ISO-like layouts, then a permissive parse. Ambiguous slash dates in
// the permissive step are read month-first.
func ParseTestTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	if t, err := dateparse.ParseAny(s); err == nil {
		return t, true
	}

	return time.Time{}, false
}

// MonthKey returns the "YYYY-MM" bucket of t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// WeekOfYear returns the Sunday-first week number of t (strftime %U).
// The first Sunday of the year starts week 1; days before it are week 0.
func WeekOfYear(t time.Time) int {
	yday := t.YearDay() - 1
	wday := int(t.Weekday())
	return (yday + 7 - wday) / 7
}

// WeekKey returns the "YYYY-WW" bucket of t using WeekOfYear.
func WeekKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), WeekOfYear(t))
}

// WeekStart returns the Monday of a Sunday-first week, matching strptime
// "%Y-%U-%w" with weekday 1. Week 0 may start in the previous year.
func WeekStart(year, week int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	firstWeekday := int(jan1.Weekday())

	var offset int
	if week == 0 {
		offset = 1 - firstWeekday
	} else {
		week0Len := (7 - firstWeekday) % 7
		offset = week0Len + 7*(week-1) + 1
	}
	return jan1.AddDate(0, 0, offset)
}

// ParseWeekKey splits a "YYYY-WW" key.
func ParseWeekKey(key string) (year, week int, ok bool) {
	parts := strings.Split(key, "-")
	if len(parts) < 2 {
		return 0, 0, false
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 || year > 9999 {
		return 0, 0, false
	}
	week, err = strconv.Atoi(parts[1])
	if err != nil || week < 0 || week > 53 {
		return 0, 0, false
	}
	return year, week, true
}

// MonthStart returns the first day of a "YYYY-MM" key.
func MonthStart(key string) (time.Time, bool) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
