package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/uniroutine/pkg/catalog"
	"tableflip.dev/uniroutine/pkg/period"
	"tableflip.dev/uniroutine/pkg/schedule"
	"tableflip.dev/uniroutine/pkg/selection"
)

const (
	emptyCell = "-"
	lunchCell = "Lunch Break"
)

type PrettyPrint struct {
	Out io.Writer
	// RequireSubject renders a period only when its subject is set.
	RequireSubject bool
	// Days limits the grid rows; nil means every weekday.
	Days []schedule.Day
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out())
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) faint(msg string) {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprintln(pp.out(), msg)
}

// Classes prints the catalog, marking selected.
func (pp *PrettyPrint) Classes(entities []catalog.Entity, selected string) {
	if len(entities) == 0 {
		pp.faint("No classes found")
		return
	}
	table := uitable.New()
	table.AddRow("", "ID", "NAME")
	for _, e := range entities {
		mark := ""
		if e.ID == selected {
			mark = "*"
		}
		table.AddRow(mark, e.ID, e.Name)
	}
	_, _ = fmt.Fprintln(pp.out(), table)
}

// View prints whatever state v is in: catalog errors, the loading notice, the
// empty selection hint or the weekly grid.
func (pp *PrettyPrint) View(v selection.View) {
	switch {
	case v.CatalogErr != nil:
		e := color.New(color.FgRed)
		_, _ = e.Fprintf(pp.out(), "Failed to load classes: %v\n", v.CatalogErr)
	case !v.CatalogLoaded:
		pp.faint("Loading classes...")
	case v.Selected == nil:
		if v.Invalidated != "" {
			pp.faint(fmt.Sprintf("%s is no longer available.", v.Invalidated))
		}
		if len(v.Entities) == 0 {
			pp.faint("No classes found")
			return
		}
		pp.Title("Select a Class")
		pp.faint("Choose your class to view the routine")
	case v.Loading:
		pp.faint("Loading schedule...")
	default:
		pp.Schedule(*v.Selected, v.Snapshot, v.DayErrors)
	}
}

// Schedule prints the grid of entity: one row per day, one column per slot.
func (pp *PrettyPrint) Schedule(entity catalog.Entity, snap schedule.Snapshot, dayErrs map[schedule.Day]error) {
	name := entity.Name
	if name == "" {
		name = entity.ID
	}
	pp.Title(name)

	table := uitable.New()
	table.MaxColWidth = 16
	table.Wrap = true
	table.Separator = " | "

	header := []interface{}{"Day / Time"}
	for _, slot := range schedule.TimeSlots {
		header = append(header, slot.Time)
	}
	table.AddRow(header...)

	for _, day := range pp.days() {
		row := []interface{}{day.DisplayName()}
		for _, slot := range schedule.TimeSlots {
			if slot.Lunch {
				row = append(row, lunchCell)
				continue
			}
			rec, ok := schedule.Lookup(snap, day, slot.Period)
			row = append(row, CellText(rec, ok, pp.RequireSubject))
		}
		table.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), table)

	for _, day := range pp.days() {
		if err, ok := dayErrs[day]; ok {
			w := color.New(color.FgYellow)
			_, _ = w.Fprintf(pp.out(), "%s could not be loaded: %v\n", day.DisplayName(), err)
		}
	}
	pp.faint("Schedule updates automatically when changes are made.")
}

// Offline prints the connectivity banner.
func (pp *PrettyPrint) Offline() {
	b := color.New(color.Bold, color.FgRed)
	_, _ = b.Fprintln(pp.out(), "You're offline")
	pp.faint("Please check your network connection")
}

func (pp *PrettyPrint) days() []schedule.Day {
	if len(pp.Days) == 0 {
		return schedule.Days
	}
	return pp.Days
}

// CellText renders one grid cell. Absent or blank records are "-".
func CellText(rec period.Record, ok, requireSubject bool) string {
	if !ok || rec.Empty() || (requireSubject && rec.Subject == "") {
		return emptyCell
	}
	lines := make([]string, 0, 4)
	for _, s := range []string{rec.Subject, rec.Code, rec.Teacher, rec.Room} {
		if s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}
