// Package schedule assembles per-day period snapshots into a weekly schedule.
package schedule

import (
	"errors"
	"log/slog"
	"sort"

	"tableflip.dev/uniroutine/pkg/period"
	"tableflip.dev/uniroutine/pkg/store"
)

// DaySchedule is ordered ascending by period number.
type DaySchedule []period.Record

// Snapshot maps each day that has reported to its schedule. Treat it as
// immutable: Assembler returns a new map on every change.
type Snapshot map[Day]DaySchedule

// Clone returns a copy that shares no slices with s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for day, periods := range s {
		out[day] = append(DaySchedule(nil), periods...)
	}
	return out
}

// Assembler normalizes raw day documents and merges them into a Snapshot.
type Assembler struct {
	Fields period.Fields
	Logger *slog.Logger
}

// NewAssembler returns an Assembler using the legacy field fallbacks.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{Fields: period.LegacyFields(), Logger: logger}
}

// ApplyDaySnapshot replaces day in snap with the normalized docs. A delivery
// from another epoch than current is stale and snap is returned untouched. An
// empty docs slice is authoritative and leaves the day empty.
func (a *Assembler) ApplyDaySnapshot(snap Snapshot, day Day, docs []store.Document, epoch, current uint64) Snapshot {
	if epoch != current {
		a.logger().Debug("schedule: dropped stale day snapshot", "day", day, "epoch", epoch, "current", current)
		return snap
	}

	next := make(Snapshot, len(snap)+1)
	for d, periods := range snap {
		next[d] = periods
	}
	next[day] = a.Normalize(day, docs)
	return next
}

// Normalize turns one day's documents into a sorted DaySchedule. Malformed ids
// are logged and skipped; a repeated period number keeps the last document.
func (a *Assembler) Normalize(day Day, docs []store.Document) DaySchedule {
	byNumber := make(map[int]period.Record, len(docs))
	for _, doc := range docs {
		rec, err := period.Normalize(doc.ID, doc.Fields, a.fields())
		if err != nil {
			var malformed *period.MalformedIDError
			if errors.As(err, &malformed) {
				a.logger().Warn("schedule: skipping period", "day", day, "id", malformed.ID)
				continue
			}
			a.logger().Warn("schedule: skipping period", "day", day, "id", doc.ID, "error", err)
			continue
		}
		byNumber[rec.Number] = rec
	}

	out := make(DaySchedule, 0, len(byNumber))
	for _, rec := range byNumber {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out
}

func (a *Assembler) fields() period.Fields {
	if a.Fields.Subject == nil && a.Fields.Teacher == nil && a.Fields.Code == nil && a.Fields.Room == nil {
		return period.LegacyFields()
	}
	return a.Fields
}

func (a *Assembler) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

// Lookup finds the record for a period of a day. A missing day or period is
// reported as absent, which renders as an empty cell.
func Lookup(snap Snapshot, day Day, number int) (period.Record, bool) {
	periods := snap[day]
	i := sort.Search(len(periods), func(i int) bool {
		return periods[i].Number >= number
	})
	if i < len(periods) && periods[i].Number == number {
		return periods[i], true
	}
	return period.Record{}, false
}
