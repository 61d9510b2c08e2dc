package commands

import (
	"log/slog"

	"tableflip.dev/uniroutine/pkg/period"
	"tableflip.dev/uniroutine/pkg/selection"
	"tableflip.dev/uniroutine/pkg/store"
)

// engine is what every read command needs: the config, the store and the
// controller options derived from both.
type engine struct {
	Config      store.Config
	Persistence store.Persistence
	Options     selection.Options
}

func loadEngine() (*engine, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	p, err := store.Load(cfg)
	if err != nil {
		return nil, err
	}
	return &engine{Config: cfg, Persistence: p, Options: selectionOptions(cfg)}, nil
}

func selectionOptions(cfg store.Config) selection.Options {
	fields := period.LegacyFields()
	if !cfg.LegacyFields() {
		fields = period.PrimaryFields()
	}
	return selection.Options{
		AutoSelectFirst: cfg.AutoSelectFirst(),
		Collection:      cfg.Collection(),
		Fields:          fields,
		Logger:          slog.Default(),
	}
}
