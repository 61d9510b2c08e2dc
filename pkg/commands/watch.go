package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/uniroutine/pkg/commands/options"
	"tableflip.dev/uniroutine/pkg/connectivity"
	"tableflip.dev/uniroutine/pkg/runner/watch"
)

func addWatch(topLevel *cobra.Command) {
	so := &options.ScheduleOptions{}
	i := &options.InteractiveOptions{}
	var noClear bool

	cmd := &cobra.Command{
		Use:   "watch [class]",
		Short: "Keep the routine of a class on screen and redraw it on every change.",
		Long: `Keep the routine of a class on screen and redraw it on every change.

Without a class, the first class is picked when auto_select_first is set in the
config, otherwise the list of classes is shown until one is given.`,
		Example: `
uniroutine watch 10A
uniroutine watch -i
`,
		Args: cobra.MaximumNArgs(1),
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
				return err
			}
			e, err := loadEngine()
			if err != nil {
				return err
			}

			var id string
			switch {
			case i.Interactive:
				id, err = promptClass(cmd.Context(), cmd, e.Persistence, e.Options)
				if err != nil {
					return err
				}
			case len(args) == 1:
				id = args[0]
			}

			w := watch.Watch{
				Source:         e.Persistence,
				Options:        e.Options,
				ID:             id,
				Days:           days,
				Monitor:        connectivity.New(connectivity.PathProbe(e.Config.BasePath()), e.Config.ProbeInterval(), e.Options.Logger),
				RequireSubject: so.RequireSubject || e.Config.RequireSubject(),
				ClearScreen:    !noClear,
				Out:            cmd.OutOrStdout(),
			}
			return w.Do(cmd.Context())
		},
	}

	options.AddScheduleArgs(cmd, so)
	options.InteractiveArgs(cmd, i)
	cmd.Flags().BoolVar(&noClear, "no-clear", false, "Append each redraw instead of clearing the screen.")
	topLevel.AddCommand(cmd)
}
