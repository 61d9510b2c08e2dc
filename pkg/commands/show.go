package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"tableflip.dev/uniroutine/pkg/commands/options"
	"tableflip.dev/uniroutine/pkg/runner/show"
)

func addShow(topLevel *cobra.Command) {
	so := &options.ScheduleOptions{}
	i := &options.InteractiveOptions{}

	cmd := &cobra.Command{
		Use:   "show [class]",
		Short: "Print the weekly routine of a class.",
		Example: `
uniroutine show 10A
uniroutine show 10A --day wed
uniroutine show -i
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if i.Interactive {
				return cobra.NoArgs(cmd, args)
			}
			if len(args) != 1 {
				return errors.New("requires a class id")
			}
			return nil
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return classCompletions(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			days, err := so.GetDays()
			if err != nil {
				return output.HandleError(err)
			}
			e, err := loadEngine()
			if err != nil {
				return output.HandleError(err)
			}

			var id string
			if i.Interactive {
				id, err = promptClass(cmd.Context(), cmd, e.Persistence, e.Options)
				if err != nil {
					return output.HandleError(err)
				}
			} else {
				id = args[0]
			}

			s := show.Show{
				Source:         e.Persistence,
				Options:        e.Options,
				ID:             id,
				Days:           days,
				RequireSubject: so.RequireSubject || e.Config.RequireSubject(),
				JSON:           output.JSON,
				Out:            cmd.OutOrStdout(),
			}
			err = s.Do(cmd.Context())
			return output.HandleError(err)
		},
	}

	options.AddScheduleArgs(cmd, so)
	options.InteractiveArgs(cmd, i)
	options.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
