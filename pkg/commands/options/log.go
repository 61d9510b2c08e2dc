package options

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// LogOptions
type LogOptions struct {
	Verbose bool
}

func AddLogArgs(cmd *cobra.Command, o *LogOptions) {
	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false,
		"Log debug output to stderr.")
}

// Setup installs the default logger: warnings only unless verbose.
func (o *LogOptions) Setup() {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
