package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/uniroutine/pkg/commands/options"
	"tableflip.dev/uniroutine/pkg/runner/classes"
)

func addClasses(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "classes",
		Aliases: []string{"class", "ls"},
		Short:   "List the classes that have a routine.",
		Example: `
uniroutine classes
uniroutine classes --json
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e, err := loadEngine()
			if err != nil {
				return output.HandleError(err)
			}
			s := classes.Classes{
				Source:  e.Persistence,
				Options: e.Options,
				JSON:    output.JSON,
				Out:     cmd.OutOrStdout(),
			}
			err = s.Do(cmd.Context())
			return output.HandleError(err)
		},
	}

	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
