package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernvale/daybook/internal/config"
	"github.com/fernvale/daybook/internal/crypt"
	kerrors "github.com/fernvale/daybook/internal/errors"
	"github.com/fernvale/daybook/internal/watch"
)

var (
	watchPoll       bool
	watchInterval   time.Duration
	watchSopsConfig string
)

func init() {
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "poll for changes instead of using filesystem notifications")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 30*time.Second, "poll interval (with --poll)")
	watchCmd.Flags().StringVar(&watchSopsConfig, "sops-config", "", "explicit encryption config path")
}

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a journal directory and keep entry timestamps fresh",
	Long: `Watch runs until interrupted. On every change to an entry it rewrites the
updated: field, transparently decrypting and re-encrypting entries that are
encrypted at rest. Per-file problems are logged and skipped; only losing the
watched directory stops the watcher.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		Logger.Infof("Starting watch command")

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		sopsPath, err := config.ResolveSopsConfig(watchSopsConfig, dir)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve encryption config: %w", err)
		}

		var cipher watch.Cipher
		if sopsPath != "" {
			tool := crypt.NewTool(sopsPath)
			if version, ok := tool.Available(); ok {
				Logger.Infof("Encryption tool available: %s", version)
				cipher = tool
			} else {
				Logger.WarnfAlways("encryption tool unavailable; encrypted entries will be skipped")
			}
		}

		var source watch.ChangeSource
		if watchPoll {
			source = &watch.PollSource{Dir: dir, Interval: watchInterval, Log: Logger}
		} else {
			source = &watch.NotifySource{Dir: dir, Log: Logger}
		}

		events, err := source.Events(ctx)
		if err != nil {
			if watchPoll {
				return Logger.ErrorfAndReturn("failed to start poller: %w", err)
			}
			// Notification backends can be unavailable (e.g. inotify limits);
			// fall back to polling before giving up.
			Logger.WarnfAlways("filesystem notifications unavailable (%v), falling back to polling", err)
			source = &watch.PollSource{Dir: dir, Interval: watchInterval, Log: Logger}
			events, err = source.Events(ctx)
			if err != nil {
				return Logger.ErrorfAndReturn("failed to start poller: %w", err)
			}
		}

		Logger.Infof("Watching %s", dir)
		reconciler := &watch.Reconciler{Cipher: cipher, Log: Logger}
		if err := reconciler.Run(ctx, events); err != nil {
			if errors.Is(err, context.Canceled) {
				Logger.Infof("Watcher stopped")
				return nil
			}
			if errors.Is(err, kerrors.ErrChangeSourceClosed) {
				err = watch.SourceClosedError(dir)
			}
			return Logger.ErrorfAndReturn("watcher stopped: %w", err)
		}
		return nil
	},
}
