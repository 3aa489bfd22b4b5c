package dataprocessing

import (
	"slices"
	"strconv"
	"strings"

	"labpulse/pkg/contracts/domain"
)

// Every aggregation below is a pure function of the dataset and the filter.
// An empty selection returns ok == false with nil tables; callers present
// that as "no data for selection", never as an error.

const (
	// recentRuns is the window of the per-lab "last 10 runs" rate.
	recentRuns = 10
	// topLots is the size of the top lots view.
	topLots = 20
	// deviceSeparator joins the distinct device ids of a lab.
	deviceSeparator = ", "
)

// Rate returns part/total as a percentage rounded to two decimals, or 0
// when total is 0. Rounding is on the exact binary value with ties to even,
// so 1 of 32 gives 3.12.
func Rate(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(part) / float64(total) * 100
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(pct, 'f', 2, 64), 64)
	if err != nil {
		return pct
	}
	return rounded
}

// counts accumulates the status tallies shared by every view.
type counts struct {
	runs          int
	invalid       int
	indeterminate int
}

func (c *counts) add(r domain.Record) {
	c.runs++
	switch {
	case r.IsInvalid():
		c.invalid++
	case r.IsIndeterminate():
		c.indeterminate++
	}
}

func (c counts) failed() int { return c.invalid + c.indeterminate }

func (c counts) rate() float64 { return Rate(c.failed(), c.runs) }

type labAcc struct {
	counts
	detected int
	devices  []string
	seen     map[string]struct{}
	outcomes []bool
}

// ProfileSummary computes the overall block and the per-lab table. Only the
// profile selection applies. Labs appear in first-appearance order.
//
// The last-10 rate uses each lab's last ten records in dataset order, which
// is file order and row order, not test time.
func ProfileSummary(ds *Dataset, f domain.Filter) (*domain.ProfileOverall, domain.LabSummaryTable, bool) {
	recs := ds.Filter(f.ProfileOnly())
	if len(recs) == 0 {
		return nil, nil, false
	}

	var total counts
	var order []string
	labs := make(map[string]*labAcc)

	for _, r := range recs {
		total.add(r)

		acc, ok := labs[r.LabName]
		if !ok {
			acc = &labAcc{seen: make(map[string]struct{})}
			labs[r.LabName] = acc
			order = append(order, r.LabName)
		}
		acc.add(r)
		if r.IsDetected() {
			acc.detected++
		}
		acc.outcomes = append(acc.outcomes, r.Failed())
		if r.DeviceID != "" {
			if _, dup := acc.seen[r.DeviceID]; !dup {
				acc.seen[r.DeviceID] = struct{}{}
				acc.devices = append(acc.devices, r.DeviceID)
			}
		}
	}

	overall := &domain.ProfileOverall{
		TotalRuns:          total.runs,
		TotalInvalid:       total.invalid,
		TotalIndeterminate: total.indeterminate,
		InvalidRatePct:     total.rate(),
	}

	table := make(domain.LabSummaryTable, 0, len(order))
	for _, name := range order {
		acc := labs[name]
		table = append(table, domain.LabSummaryRow{
			LabName:                     name,
			TruelabIDs:                  strings.Join(acc.devices, deviceSeparator),
			TotalTests:                  acc.runs,
			TotalDetected:               acc.detected,
			TotalInvalidOrIndeterminate: acc.failed(),
			InvalidRatePct:              acc.rate(),
			Last10InvalidRatePct:        recentRate(acc.outcomes),
		})
	}

	return overall, table, true
}

func recentRate(outcomes []bool) float64 {
	tail := outcomes[max(0, len(outcomes)-recentRuns):]
	failed := 0
	for _, f := range tail {
		if f {
			failed++
		}
	}
	return Rate(failed, len(tail))
}

// LotSummary computes one row per lot in first-appearance order and the top
// lots by run count. Only the profile selection applies. Ties in the top
// view keep first-appearance order.
func LotSummary(ds *Dataset, f domain.Filter) (domain.LotSummaryTable, domain.LotSummaryTable, bool) {
	recs := ds.Filter(f.ProfileOnly())
	if len(recs) == 0 {
		return nil, nil, false
	}

	var order []string
	lots := make(map[string]*counts)
	for _, r := range recs {
		acc, ok := lots[r.Lot]
		if !ok {
			acc = &counts{}
			lots[r.Lot] = acc
			order = append(order, r.Lot)
		}
		acc.add(r)
	}

	table := make(domain.LotSummaryTable, 0, len(order))
	for _, lot := range order {
		acc := lots[lot]
		table = append(table, domain.LotSummaryRow{
			Lot:                         lot,
			TotalRuns:                   acc.runs,
			TotalInvalidOrIndeterminate: acc.failed(),
			InvalidRatePct:              acc.rate(),
		})
	}

	return table, TopLots(table, topLots), true
}

// TopLots returns up to n lots with the most runs, descending. The sort is
// stable so equal run counts keep their input order.
func TopLots(table domain.LotSummaryTable, n int) domain.LotSummaryTable {
	if len(table) == 0 {
		return nil
	}
	top := slices.Clone(table)
	slices.SortStableFunc(top, func(a, b domain.LotSummaryRow) int {
		return b.TotalRuns - a.TotalRuns
	})
	return top[:min(n, len(top))]
}
