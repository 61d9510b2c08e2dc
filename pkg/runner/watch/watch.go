package watch

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/uniroutine/pkg/connectivity"
	"tableflip.dev/uniroutine/pkg/printers"
	"tableflip.dev/uniroutine/pkg/schedule"
	"tableflip.dev/uniroutine/pkg/selection"
	"tableflip.dev/uniroutine/pkg/store"
)

const clearScreen = "\033[H\033[2J"

// Watch re-renders the grid on every change of the selection until ctx is
// done.
type Watch struct {
	Source  store.Source
	Options selection.Options
	// ID is selected once the catalog has loaded. Empty leaves the choice to
	// Options.AutoSelectFirst.
	ID             string
	Days           []schedule.Day
	Monitor        *connectivity.Monitor
	RequireSubject bool
	ClearScreen    bool
	Out            io.Writer
}

func (w *Watch) Do(ctx context.Context) error {
	c := selection.New(w.Source, w.Options)
	changes, cancel := c.Watch()
	defer cancel()
	defer c.Close()
	c.Start()

	var status <-chan connectivity.Status
	if w.Monitor != nil {
		status = w.Monitor.Watch(ctx)
	}

	offline := false
	requested := w.ID == ""
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-status:
			if !ok {
				status = nil
				continue
			}
			if (s == connectivity.Offline) == offline {
				continue
			}
			offline = s == connectivity.Offline
		case _, ok := <-changes:
			if !ok {
				return selection.ErrClosed
			}
		}

		v := c.View()
		if !requested && v.CatalogLoaded && v.CatalogErr == nil {
			requested = true
			if err := c.Select(w.ID); err != nil {
				return err
			}
			continue
		}
		w.render(v, offline)
	}
}

func (w *Watch) render(v selection.View, offline bool) {
	out := w.Out
	if out == nil {
		out = color.Output
	}
	if w.ClearScreen {
		_, _ = fmt.Fprint(out, clearScreen)
	}
	pp := printers.PrettyPrint{Out: out, RequireSubject: w.RequireSubject, Days: w.Days}
	if offline {
		pp.Offline()
		pp.NewLine()
	}
	pp.View(v)
}
