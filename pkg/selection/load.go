package selection

import (
	"context"
	"fmt"

	"tableflip.dev/uniroutine/pkg/store"
)

// Load runs a short-lived controller: it waits for the catalog, selects id and
// returns the view once every day has settled. An empty id returns the view
// right after the first catalog load.
func Load(ctx context.Context, src store.Source, id string, opts Options) (View, error) {
	opts.AutoSelectFirst = false
	c := New(src, opts)
	changes, cancel := c.Watch()
	defer cancel()
	defer c.Close()
	c.Start()

	requested := false
	for {
		select {
		case <-ctx.Done():
			return c.View(), ctx.Err()
		case _, ok := <-changes:
			if !ok {
				return c.View(), ErrClosed
			}
		}

		v := c.View()
		if !v.CatalogLoaded {
			continue
		}
		if v.CatalogErr != nil {
			return v, v.CatalogErr
		}
		if id == "" {
			return v, nil
		}
		if !requested {
			if err := c.Select(id); err != nil {
				return v, err
			}
			requested = true
			continue
		}
		if v.Selected == nil {
			return v, fmt.Errorf("%w %q", ErrUnknownEntity, id)
		}
		if !v.Loading {
			return v, nil
		}
	}
}
