package schedule

// Settle tracks which day partitions have reported, with data or an error,
// since an epoch began. Loading is over only once every day has settled.
type Settle struct {
	epoch   uint64
	settled map[Day]bool
}

// NewSettle starts an empty tracker for epoch.
func NewSettle(epoch uint64) *Settle {
	return &Settle{epoch: epoch, settled: make(map[Day]bool, len(Days))}
}

// Epoch is the generation the tracker counts for.
func (s *Settle) Epoch() uint64 {
	return s.epoch
}

// Mark records that day reported under epoch. Reports from other epochs are
// ignored. It returns true when this report was the first for the day.
func (s *Settle) Mark(day Day, epoch uint64) bool {
	if epoch != s.epoch || s.settled[day] {
		return false
	}
	s.settled[day] = true
	return true
}

// Count is the number of settled days.
func (s *Settle) Count() int {
	return len(s.settled)
}

// Done reports whether all of Days have settled.
func (s *Settle) Done() bool {
	for _, d := range Days {
		if !s.settled[d] {
			return false
		}
	}
	return true
}

// Pending lists the days still waiting for their first report, in week order.
func (s *Settle) Pending() []Day {
	var out []Day
	for _, d := range Days {
		if !s.settled[d] {
			out = append(out, d)
		}
	}
	return out
}
