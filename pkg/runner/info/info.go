package info

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"tableflip.dev/uniroutine/pkg/store"
)

type Info struct {
	Config      store.Config
	Persistence store.Persistence
	Out         io.Writer
}

func (n *Info) Do(ctx context.Context) error {
	out := n.Out
	if out == nil {
		out = color.Output
	}

	if override := os.Getenv("UNIROUTINE_CONFIG_PATH"); override != "" {
		_, _ = fmt.Fprintln(out, "UNIROUTINE_CONFIG_PATH found on env, using ", override)
	} else {
		_, _ = fmt.Fprintln(out, "UNIROUTINE_CONFIG_PATH env var not set")
	}

	if n.Config == nil {
		var err error
		n.Config, err = store.LoadConfig()
		if err != nil {
			return err
		}
	}

	if file := store.ConfigFile(n.Config); file != "" {
		_, _ = fmt.Fprintln(out, "Config file: ", file)
	}
	_, _ = fmt.Fprintln(out, "Config.path: ", n.Config.BasePath())
	_, _ = fmt.Fprintln(out, "Config.collection: ", n.Config.Collection())
	_, _ = fmt.Fprintln(out, "Config.auto_select_first: ", n.Config.AutoSelectFirst())
	_, _ = fmt.Fprintln(out, "Config.legacy_fields: ", n.Config.LegacyFields())
	_, _ = fmt.Fprintln(out, "Config.require_subject: ", n.Config.RequireSubject())
	_, _ = fmt.Fprintln(out, "Config.probe_interval: ", n.Config.ProbeInterval())

	if n.Persistence == nil {
		return fmt.Errorf("failed to create persistence object")
	}

	classes, err := n.Persistence.List(ctx, n.Persistence.Root())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Classes:\n")
	for _, doc := range classes {
		_, _ = fmt.Fprintf(out, "  %s\n", doc.ID)
	}
	if len(classes) == 0 {
		_, _ = fmt.Fprintf(out, "  %s\n", "no classes")
	}

	return nil
}
