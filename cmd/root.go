package cmd

import (
	logger "github.com/fernvale/daybook/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	debug   bool
	quiet   bool
	Logger  logger.Logger

	RootCmd = &cobra.Command{
		Use:   "daybook",
		Short: "Dated journal entries from a template, optionally encrypted at rest",
		Long: `Daybook creates dated journal entries from a template and keeps their
metadata fresh. When an encryption config (.sops.yaml) is present, entries
are encrypted at rest via sops; without one, daybook works on plaintext.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing daybook with verbose=%t, debug=%t, quiet=%t", verbose, debug, quiet)
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress prompts and non-error output")

	RootCmd.AddCommand(newCmd)
	RootCmd.AddCommand(migrateCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(startDateCmd)
	RootCmd.AddCommand(openCmd)
}
