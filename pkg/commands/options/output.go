package options

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/uniroutine/pkg/schedule"
	"tableflip.dev/uniroutine/pkg/selection"
)

// OutputOptions
type OutputOptions struct {
	JSON bool
}

func AddOutputArg(cmd *cobra.Command, po *OutputOptions) {
	cmd.Flags().BoolVar(&po.JSON, "json", false,
		"Output as JSON.")
}

// HandleError prints err as a JSON object when --json is set and swallows it,
// otherwise it is returned as is.
func (o *OutputOptions) HandleError(err error) error {
	if o.JSON && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		if code := errorCode(err); code != "" {
			out["code"] = code
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(color.Output, string(b))
		return nil
	}
	return err
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, selection.ErrUnknownEntity):
		return "unknown_class"
	case errors.Is(err, schedule.ErrUnknownDay):
		return "unknown_day"
	default:
		return ""
	}
}
