package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fernvale/daybook/internal/config"
	"github.com/fernvale/daybook/internal/crypt"
	"github.com/fernvale/daybook/internal/journal"
	"github.com/fernvale/daybook/internal/ui"
	"github.com/fernvale/daybook/internal/utils"
)

var (
	newTemplate   string
	newOutputDir  string
	newOutputFile string
	newDate       string
	newForce      bool
	newPlaintext  bool
	newSopsConfig string
	newEdit       bool
	newEditor     string
)

func init() {
	newCmd.Flags().StringVarP(&newTemplate, "template", "t", "", "path to a custom entry template")
	newCmd.Flags().StringVarP(&newOutputDir, "dir", "C", "", "journal directory (default current directory)")
	newCmd.Flags().StringVarP(&newOutputFile, "out", "o", "", "explicit entry filename")
	newCmd.Flags().StringVar(&newDate, "date", "", "entry date override (YYYY-MM-DD)")
	newCmd.Flags().BoolVarP(&newForce, "force", "f", false, "overwrite an existing entry (backup is taken first)")
	newCmd.Flags().BoolVar(&newPlaintext, "plaintext", false, "skip encryption even when a config is present")
	newCmd.Flags().StringVar(&newSopsConfig, "sops-config", "", "explicit encryption config path")
	newCmd.Flags().BoolVarP(&newEdit, "edit", "e", false, "open the entry in an editor after creation")
	newCmd.Flags().StringVar(&newEditor, "editor", "", "editor command (default $VISUAL or $EDITOR)")
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create today's journal entry from the template",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		Logger.Infof("Starting new command")
		spinner, cleanup := startSpinner("Creating journal entry...")
		defer cleanup()

		opts := config.Options{
			OutputDir:    newOutputDir,
			OutputFile:   newOutputFile,
			TemplatePath: newTemplate,
			SopsConfig:   newSopsConfig,
			Quiet:        quiet,
		}
		if utils.IsTerminal() && !quiet {
			opts.Prompt = promptThroughSpinner(spinner)
		}
		if newDate != "" {
			date, err := time.Parse(config.DateLayout, newDate)
			if err != nil {
				return Logger.ErrorfAndReturn("invalid --date %q: %v", newDate, err)
			}
			opts.Date = date
		}

		cfg, err := config.Resolve(opts)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve configuration: %w", err)
		}
		Logger.Debugf("Resolved output path: %s", cfg.OutputPath)

		var encryptor journal.Encryptor
		if !newPlaintext && cfg.SopsConfigPath != "" {
			capability := crypt.NewCapability(crypt.NewTool(cfg.SopsConfigPath), cfg.SopsConfigPath)
			if !capability.ToolAvailable() {
				// Missing tool is never fatal on its own; fall back to plaintext.
				Logger.WarnfAlways("encryption config %s found but %s is not installed; writing plaintext",
					cfg.SopsConfigPath, crypt.DefaultBinary)
			} else {
				Logger.Debugf("Encryption tool: %s", capability.Version())
				if err := capability.EncryptionReady(ctx); err != nil {
					// Never silently write plaintext when encryption was asked for.
					return Logger.ErrorfAndReturn("encryption requested but not usable: %w", err)
				}
				encryptor = capability.Tool()
			}
		}

		templateText, warning, err := journal.LoadTemplate(cfg.TemplateSource)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load template: %w", err)
		}
		if warning != "" {
			Logger.WarnfUser("%s", warning)
		}

		id, err := journal.NewEntryID()
		if err != nil {
			return Logger.ErrorfAndReturn("%w", err)
		}
		content := journal.Render(templateText, journal.NewVariables(id, cfg.EntryDate, cfg.StartDate))

		req := journal.CreateRequest{
			Path:      cfg.OutputPath,
			Content:   content,
			Encryptor: encryptor,
			Policy:    collisionPolicy(),
		}
		if req.Policy == journal.PolicyPrompt && utils.IsTerminal() {
			req.Confirm = confirmThroughSpinner(spinner)
		}

		result, err := journal.Create(ctx, req)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to create entry: %w", err)
		}

		switch result.Outcome {
		case journal.OutcomeSkipped:
			spinner.FinalMSG = ui.Warning.Sprint("•") + " Entry " + ui.Path.Sprint(cfg.OutputPath) + " already exists, left untouched"
		case journal.OutcomeOverwritten:
			spinner.FinalMSG = color.GreenString("✓") + " Entry " + ui.Path.Sprint(cfg.OutputPath) + " overwritten\n" +
				ui.Info.Sprint("→") + " Previous version backed up to " + ui.Path.Sprint(result.BackupPath)
		default:
			mode := "plaintext"
			if encryptor != nil {
				mode = "encrypted"
			}
			spinner.FinalMSG = color.GreenString("✓") + " Entry " + ui.Path.Sprint(cfg.OutputPath) + " created (" + mode + ")"
		}

		if newEdit && result.Outcome != journal.OutcomeSkipped {
			// The entry exists at this point; editor trouble is reported, never fatal.
			if err := openInEditor(cfg.OutputPath, newEditor, encryptor != nil, cfg.SopsConfigPath); err != nil {
				Logger.WarnfAlways("entry created but editor failed: %v", err)
			}
		}

		return nil
	},
}

func collisionPolicy() journal.CollisionPolicy {
	switch {
	case newForce:
		return journal.PolicyForce
	case quiet:
		return journal.PolicyQuiet
	default:
		return journal.PolicyPrompt
	}
}

// promptThroughSpinner pauses the spinner animation around a line read so
// the prompt is not eaten by the spinner redraw.
func promptThroughSpinner(s interface{ Stop(); Restart() }) func(string) (string, error) {
	return func(prompt string) (string, error) {
		s.Stop()
		defer s.Restart()
		return utils.ReadLine(prompt)
	}
}

func confirmThroughSpinner(s interface{ Stop(); Restart() }) func(string) (bool, error) {
	return func(prompt string) (bool, error) {
		s.Stop()
		defer s.Restart()
		return utils.Confirm(prompt)
	}
}

// openInEditor opens the entry for editing. Encrypted entries go through the
// tool's interactive flow so they are decrypted and re-encrypted in place.
func openInEditor(path, editor string, encrypted bool, sopsConfig string) error {
	if encrypted {
		return crypt.NewTool(sopsConfig).Edit(path)
	}

	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		return fmt.Errorf("no editor configured (set $EDITOR or pass --editor)")
	}

	ed := exec.Command(editor, path)
	ed.Stdin = os.Stdin
	ed.Stdout = os.Stdout
	ed.Stderr = os.Stderr
	return ed.Run()
}
