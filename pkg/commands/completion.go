package commands

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/uniroutine/pkg/selection"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(uniroutine completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(uniroutine completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(os.Stdout)
		},
	}

	topLevel.AddCommand(cmd)
}

func classCompletions(cmd *cobra.Command, toComplete string) []string {
	e, err := loadEngine()
	if err != nil {
		return nil
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	v, err := selection.Load(ctx, e.Persistence, "", e.Options)
	if err != nil {
		return nil
	}
	var ids []string
	for _, entity := range v.Entities {
		if strings.HasPrefix(entity.ID, toComplete) {
			ids = append(ids, entity.ID)
		}
	}
	return ids
}
