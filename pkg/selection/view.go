package selection

import (
	"tableflip.dev/uniroutine/pkg/catalog"
	"tableflip.dev/uniroutine/pkg/period"
	"tableflip.dev/uniroutine/pkg/schedule"
)

// State of the selection state machine.
type State int

const (
	// Idle has no selection.
	Idle State = iota
	// Selecting has opened the day subscriptions of a new selection but none
	// has reported yet.
	Selecting
	// Active has at least one day reported for the current selection.
	Active
	// Invalidated is passed through when the selected class leaves the
	// catalog; the controller coerces it to Idle in the same step.
	Invalidated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Active:
		return "active"
	case Invalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// Session identifies one subscription generation.
type Session struct {
	EntityID string
	Epoch    uint64
}

// View is a consistent copy of everything a renderer needs.
type View struct {
	Version uint64
	State   State

	// Entities are the selectable options, in catalog order.
	Entities      []catalog.Entity
	CatalogLoaded bool
	CatalogErr    error

	Selected *catalog.Entity
	Session  Session
	// Invalidated holds the id of a selection dropped because it left the
	// catalog, until the next Select or Clear.
	Invalidated string

	// Snapshot is shared with the controller and must not be modified.
	Snapshot  schedule.Snapshot
	Loading   bool
	Settled   int
	DayErrors map[schedule.Day]error
}

// SelectedID is "" when nothing is selected.
func (v View) SelectedID() string {
	if v.Selected == nil {
		return ""
	}
	return v.Selected.ID
}

// Disabled reports whether the selection input should refuse changes.
func (v View) Disabled() bool {
	return v.Loading
}

// Lookup reads one cell of the current schedule.
func (v View) Lookup(day schedule.Day, number int) (period.Record, bool) {
	return schedule.Lookup(v.Snapshot, day, number)
}

// View returns the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Version:       c.version,
		State:         c.state,
		Entities:      append([]catalog.Entity(nil), c.entities...),
		CatalogLoaded: c.catalogLoaded,
		CatalogErr:    c.catalogErr,
		Invalidated:   c.invalidated,
		Snapshot:      c.snapshot,
	}
	if c.selected != nil {
		sel := *c.selected
		v.Selected = &sel
		v.Session = Session{EntityID: sel.ID, Epoch: c.epoch}
	}
	if c.settle != nil {
		v.Loading = !c.settle.Done()
		v.Settled = c.settle.Count()
	}
	if len(c.dayErrs) > 0 {
		v.DayErrors = make(map[schedule.Day]error, len(c.dayErrs))
		for day, err := range c.dayErrs {
			v.DayErrors[day] = err
		}
	}
	return v
}
