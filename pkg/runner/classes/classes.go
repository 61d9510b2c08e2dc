package classes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/uniroutine/pkg/printers"
	"tableflip.dev/uniroutine/pkg/selection"
	"tableflip.dev/uniroutine/pkg/store"
)

// Classes prints the catalog once it has loaded.
type Classes struct {
	Source  store.Source
	Options selection.Options
	JSON    bool
	Out     io.Writer
}

func (c *Classes) Do(ctx context.Context) error {
	if c.Source == nil {
		return fmt.Errorf("classes: no store")
	}
	v, err := selection.Load(ctx, c.Source, "", c.Options)
	if err != nil {
		return err
	}

	out := c.Out
	if out == nil {
		out = color.Output
	}
	if c.JSON {
		b, err := json.Marshal(map[string]any{"classes": v.Entities, "count": len(v.Entities)})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(b))
		return nil
	}

	pp := printers.PrettyPrint{Out: out}
	pp.Classes(v.Entities, "")
	return nil
}
