package cmd

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernvale/daybook/internal/config"
	"github.com/fernvale/daybook/internal/crypt"
	kerrors "github.com/fernvale/daybook/internal/errors"
	"github.com/fernvale/daybook/internal/utils"
)

var (
	openDir        string
	openEditor     string
	openSopsConfig string
)

func init() {
	openCmd.Flags().StringVarP(&openDir, "dir", "C", "", "journal directory (default current directory)")
	openCmd.Flags().StringVar(&openEditor, "editor", "", "editor command (default $VISUAL or $EDITOR)")
	openCmd.Flags().StringVar(&openSopsConfig, "sops-config", "", "explicit encryption config path")
}

var openCmd = &cobra.Command{
	Use:   "open [date]",
	Short: "Open an existing entry in an editor",
	Long: `Open looks up the entry for the given date (default today) and opens it in
an editor. Encrypted entries go through the encryption tool's interactive
flow so they are decrypted for editing and re-encrypted on save.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting open command")

		date := time.Now()
		if len(args) == 1 {
			parsed, err := time.Parse(config.DateLayout, args[0])
			if err != nil {
				return Logger.ErrorfAndReturn("invalid date %q, expected %s: %v", args[0], config.DateLayout, err)
			}
			date = parsed
		}

		dir := openDir
		if dir == "" {
			dir = "."
		}
		path := filepath.Join(dir, config.EntryFileName(date))
		if !utils.FileExists(path) {
			return Logger.ErrorfAndReturn("%w: no entry for %s at %s",
				kerrors.ErrNotAnEntry, date.Format(config.DateLayout), path)
		}

		sopsPath, err := config.ResolveSopsConfig(openSopsConfig, dir)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve encryption config: %w", err)
		}

		detection, err := crypt.Detect(path)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to inspect %s: %w", path, err)
		}

		if detection == crypt.DetectedEncrypted {
			if sopsPath == "" {
				return Logger.ErrorfAndReturn("%s is encrypted but no encryption config was found: %w",
					path, kerrors.ErrConfigNotFound)
			}
			tool := crypt.NewTool(sopsPath)
			if _, ok := tool.Available(); !ok {
				return Logger.ErrorfAndReturn("%s is encrypted but %s is not installed: %w",
					path, crypt.DefaultBinary, kerrors.ErrToolNotFound)
			}
			Logger.Debugf("Opening encrypted entry via %s", crypt.DefaultBinary)
			if err := tool.Edit(path); err != nil {
				return Logger.ErrorfAndReturn("failed to edit %s: %w", path, err)
			}
			return nil
		}

		if err := openInEditor(path, openEditor, false, sopsPath); err != nil {
			return Logger.ErrorfAndReturn("failed to open %s: %w", path, err)
		}
		return nil
	},
}
