package dataprocessing

import (
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"labpulse/pkg/contracts/domain"
)

// Dataset is an immutable, ordered collection of records. Records keep file
// order, then row order within each file. Every record has a valid TestTime.
//
// A Dataset is safe for concurrent readers. A nil *Dataset behaves as empty.
type Dataset struct {
	version string
	builtAt time.Time
	records []domain.Record
	dropped int
}

// Version identifies this build. Two builds never share a version.
func (d *Dataset) Version() string {
	if d == nil {
		return ""
	}
	return d.version
}

// BuiltAt is when the dataset was built.
func (d *Dataset) BuiltAt() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.builtAt
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Empty reports whether the dataset has no records.
func (d *Dataset) Empty() bool { return d.Len() == 0 }

// Dropped is the number of rows discarded for an unparseable timestamp.
func (d *Dataset) Dropped() int {
	if d == nil {
		return 0
	}
	return d.dropped
}

// Records returns a copy of all records in dataset order.
func (d *Dataset) Records() []domain.Record {
	if d == nil {
		return nil
	}
	return slices.Clone(d.records)
}

// Filter returns the matching records in dataset order.
func (d *Dataset) Filter(f domain.Filter) []domain.Record {
	if d == nil {
		return nil
	}
	out := make([]domain.Record, 0, len(d.records))
	for _, r := range d.records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ProfileIDs returns the distinct non-empty profile ids, sorted.
func (d *Dataset) ProfileIDs() []string {
	return d.distinct(func(r domain.Record) string { return r.ProfileID })
}

// LabNames returns the distinct non-empty lab names, sorted.
func (d *Dataset) LabNames() []string {
	return d.distinct(func(r domain.Record) string { return r.LabName })
}

func (d *Dataset) distinct(field func(domain.Record) string) []string {
	if d == nil {
		return []string{}
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range d.records {
		v := field(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// Builder turns parsed record sets into a Dataset.
type Builder struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewBuilder creates a dataset builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		logger: logger.With(slog.String("component", "dataset_builder")),
		now:    time.Now,
	}
}

type parsedTime struct {
	t  time.Time
	ok bool
}

// Build concatenates sets in order, parses timestamps and derives the
// month and week keys. Rows without a parseable timestamp are dropped and
// counted. No input yields an empty dataset.
func (b *Builder) Build(sets ...[]domain.RawRecord) *Dataset {
	total := 0
	for _, set := range sets {
		total += len(set)
	}

	ds := &Dataset{
		version: uuid.New().String(),
		builtAt: b.now(),
		records: make([]domain.Record, 0, total),
	}

	// exports repeat timestamps heavily
	memo := make(map[string]parsedTime)

	for _, set := range sets {
		for _, raw := range set {
			s := domain.Str(raw.TestTime)
			pt, seen := memo[s]
			if !seen {
				pt.t, pt.ok = ParseTestTime(s)
				memo[s] = pt
			}
			if !pt.ok {
				ds.dropped++
				continue
			}

			ds.records = append(ds.records, domain.Record{
				TestTime:  pt.t,
				ProfileID: domain.Str(raw.ProfileID),
				Result:    domain.Str(raw.Result),
				Status:    domain.Str(raw.Status),
				LabName:   domain.Str(raw.LabName),
				DeviceID:  domain.Str(raw.DeviceID),
				Lot:       domain.Str(raw.Lot),
				MonthKey:  MonthKey(pt.t),
				WeekKey:   WeekKey(pt.t),
			})
		}
	}

	b.logger.Info("Dataset built",
		slog.String("version", ds.version),
		slog.Int("records", len(ds.records)),
		slog.Int("dropped", ds.dropped),
		slog.Int("sets", len(sets)))

	return ds
}
