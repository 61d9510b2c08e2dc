package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/uniroutine/pkg/commands/options"
)

var (
	output = &options.OutputOptions{}
	logs   = &options.LogOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "uniroutine",
		Short: base.Wrap80("Class routines on the command line."),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logs.Setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	options.AddLogArgs(cmd, logs)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addClasses(topLevel)
	addShow(topLevel)
	addWatch(topLevel)
	addSeed(topLevel)
	addInfo(topLevel)
	addMCP(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}
