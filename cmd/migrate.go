package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fernvale/daybook/internal/config"
	"github.com/fernvale/daybook/internal/crypt"
	kerrors "github.com/fernvale/daybook/internal/errors"
	"github.com/fernvale/daybook/internal/migrate"
	"github.com/fernvale/daybook/internal/ui"
)

var (
	migrateSopsConfig string
	migratePatterns   []string
)

func init() {
	migrateCmd.Flags().StringVar(&migrateSopsConfig, "sops-config", "", "explicit encryption config path")
	migrateCmd.Flags().StringArrayVar(&migratePatterns, "files", nil, "glob patterns narrowing which entries to migrate")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [directory]",
	Short: "Encrypt the existing plaintext entries in a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		Logger.Infof("Starting migrate command")
		spinner, cleanup := startSpinner("Encrypting existing entries...")
		defer cleanup()

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		sopsPath, err := config.ResolveSopsConfig(migrateSopsConfig, dir)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve encryption config: %w", err)
		}
		if sopsPath == "" {
			return Logger.ErrorfAndReturn("migration requires an encryption config: %w", kerrors.ErrConfigNotFound)
		}
		Logger.Debugf("Using encryption config: %s", sopsPath)

		capability := crypt.NewCapability(crypt.NewTool(sopsPath), sopsPath)
		report, err := migrate.Run(ctx, migrate.Options{
			Dir:        dir,
			Patterns:   migratePatterns,
			Capability: capability,
			Log:        Logger,
		})
		if err != nil {
			return Logger.ErrorfAndReturn("migration aborted, no files touched: %w", err)
		}

		for _, r := range report.Results {
			if r.Outcome == migrate.OutcomeFailed {
				Logger.Errorf("%s: %s", r.Path, r.Reason)
			} else {
				Logger.Infof("%s: %s", r.Path, r.Outcome)
			}
		}

		summary := fmt.Sprintf("%d encrypted, %d already encrypted, %d skipped, %d failed",
			report.Encrypted, report.AlreadyEncrypted, report.Skipped, report.Failed)

		if report.Failed > 0 {
			spinner.FinalMSG = color.RedString("✗") + " Migration finished with failures: " + summary + "\n" +
				ui.Info.Sprint("→") + " Failed entries were restored from their backups"
			return fmt.Errorf("%w: %d file(s) failed to encrypt", kerrors.ErrEncryptFailed, report.Failed)
		}

		spinner.FinalMSG = color.GreenString("✓") + " Migration complete: " + summary
		return nil
	},
}
