package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"tableflip.dev/uniroutine/pkg/runner/seed"
	"tableflip.dev/uniroutine/pkg/store"
)

func addSeed(topLevel *cobra.Command) {
	var prune bool

	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load classes and periods from a YAML file into the store.",
		Example: `
uniroutine seed routines.yaml
cat routines.yaml | uniroutine seed -
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a fixture file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			p, err := store.Load(nil)
			if err != nil {
				return err
			}
			s := seed.Seed{
				Store: p,
				Path:  args[0],
				Input: cmd.InOrStdin(),
				Prune: prune,
				Out:   cmd.OutOrStdout(),
			}
			return s.Do(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Delete stored periods of seeded days that the file does not list.")
	topLevel.AddCommand(cmd)
}
