package options

import (
	"github.com/spf13/cobra"

	"tableflip.dev/uniroutine/pkg/schedule"
)

// ScheduleOptions limits and shapes the grid.
type ScheduleOptions struct {
	Day            string
	RequireSubject bool
}

func AddScheduleArgs(cmd *cobra.Command, o *ScheduleOptions) {
	cmd.Flags().StringVarP(&o.Day, "day", "d", "",
		`Only show one day, example: --day=wed or --day=Wednesday.`)
	cmd.Flags().BoolVar(&o.RequireSubject, "require-subject", false,
		"Leave cells without a subject empty.")
}

// GetDays returns nil for every day.
func (o *ScheduleOptions) GetDays() ([]schedule.Day, error) {
	if o.Day == "" {
		return nil, nil
	}
	d, err := schedule.ParseDay(o.Day)
	if err != nil {
		return nil, err
	}
	return []schedule.Day{d}, nil
}
