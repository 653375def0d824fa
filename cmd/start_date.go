package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fernvale/daybook/internal/config"
	"github.com/fernvale/daybook/internal/ui"
)

var startDateCmd = &cobra.Command{
	Use:   "start-date [date]",
	Short: "Show or set the journal start date used for day counts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting start-date command")

		if len(args) == 0 {
			persisted, err := config.LoadPersisted()
			if err != nil {
				return Logger.ErrorfAndReturn("failed to load config: %w", err)
			}
			date, err := persisted.StartDate()
			if err != nil {
				return Logger.ErrorfAndReturn("stored start date is invalid: %w", err)
			}
			if date.IsZero() {
				fmt.Println(ui.Warning.Sprint("•") + " No start date set, day counts begin at the entry date")
				return nil
			}
			fmt.Println("Journal start date: " + ui.Highlight.Sprint(date.Format(config.DateLayout)))
			return nil
		}

		date, err := time.Parse(config.DateLayout, args[0])
		if err != nil {
			return Logger.ErrorfAndReturn("invalid date %q, expected %s: %v", args[0], config.DateLayout, err)
		}
		if err := config.SetStartDate(date); err != nil {
			return Logger.ErrorfAndReturn("failed to save start date: %w", err)
		}

		if !quiet {
			fmt.Println(color.GreenString("✓") + " Journal start date set to " + ui.Highlight.Sprint(date.Format(config.DateLayout)))
		}
		return nil
	},
}
