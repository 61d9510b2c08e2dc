package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/uniroutine/pkg/runner/info"
)

func addInfo(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Details about the config and where routines are stored.",
		Example: `
uniroutine info
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEngine()
			if err != nil {
				return err
			}
			s := info.Info{
				Config:      e.Config,
				Persistence: e.Persistence,
				Out:         cmd.OutOrStdout(),
			}
			return s.Do(cmd.Context())
		},
	}

	topLevel.AddCommand(cmd)
}
