package show

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/uniroutine/pkg/printers"
	"tableflip.dev/uniroutine/pkg/schedule"
	"tableflip.dev/uniroutine/pkg/selection"
	"tableflip.dev/uniroutine/pkg/store"
)

// Show prints the weekly grid of one class after every day has settled.
type Show struct {
	Source         store.Source
	Options        selection.Options
	ID             string
	Days           []schedule.Day
	RequireSubject bool
	JSON           bool
	Out            io.Writer
}

// DayJSON is one row of the --json output.
type DayJSON struct {
	Day     schedule.Day         `json:"day"`
	Name    string               `json:"name"`
	Periods schedule.DaySchedule `json:"periods"`
	Error   string               `json:"error,omitempty"`
}

func (s *Show) Do(ctx context.Context) error {
	if s.ID == "" {
		return errors.New("show: class id required")
	}
	v, err := selection.Load(ctx, s.Source, s.ID, s.Options)
	if err != nil {
		return err
	}

	out := s.Out
	if out == nil {
		out = color.Output
	}
	days := s.Days
	if len(days) == 0 {
		days = schedule.Days
	}

	if s.JSON {
		rows := make([]DayJSON, 0, len(days))
		for _, day := range days {
			row := DayJSON{Day: day, Name: day.DisplayName(), Periods: v.Snapshot[day]}
			if row.Periods == nil {
				row.Periods = schedule.DaySchedule{}
			}
			if err := v.DayErrors[day]; err != nil {
				row.Error = err.Error()
			}
			rows = append(rows, row)
		}
		b, err := json.Marshal(map[string]any{"class": v.Selected, "days": rows})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(b))
		return nil
	}

	pp := printers.PrettyPrint{Out: out, RequireSubject: s.RequireSubject, Days: days}
	pp.View(v)
	return nil
}
