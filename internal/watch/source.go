package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	kerrors "github.com/fernvale/daybook/internal/errors"
	logger "github.com/fernvale/daybook/internal/logging"
)

// managedExtension filters change notifications to journal entry files.
const managedExtension = ".md"

// ChangeSource yields paths of changed entry files. The two implementations
// (event-driven and polling) are equivalent from the reconciler's point of
// view; the channel closes when the source cannot continue (watched
// directory gone) or ctx is done.
type ChangeSource interface {
	Events(ctx context.Context) (<-chan string, error)
}

// NotifySource is the event-driven change source built on fsnotify.
// Preferred for its low latency.
type NotifySource struct {
	Dir string
	Log logger.Logger
}

// Events starts watching. Change bursts for the same file are coalesced by
// the reconciler's per-path serialization; here we only filter and forward.
// Events are dropped rather than blocking the watcher goroutine when the
// consumer falls behind; a subsequent change re-notifies.
func (s *NotifySource) Events(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(s.Dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.Dir, err)
	}

	events := make(chan string, 64)

	go func() {
		defer close(events)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.Log.WarnfAlways("watcher error: %v", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Loss of the watched directory itself is fatal.
				if evt.Name == s.Dir && evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					return
				}

				if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if !isManaged(evt.Name) {
					continue
				}

				select {
				case events <- evt.Name:
				default:
					s.Log.Debugf("dropping change notification for %s (consumer busy)", evt.Name)
				}
			}
		}
	}()

	return events, nil
}

// PollSource is the fallback change source: a periodic scan over recently
// modified files. Staleness is bounded by Interval.
type PollSource struct {
	Dir      string
	Interval time.Duration
	Log      logger.Logger
}

// Events starts polling. The first scan only records modification times so
// pre-existing files are not all reported as changed on startup.
func (s *PollSource) Events(ctx context.Context) (<-chan string, error) {
	interval := s.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	seen := make(map[string]time.Time)
	if err := s.scan(seen, nil); err != nil {
		return nil, err
	}

	events := make(chan string, 64)

	go func() {
		defer close(events)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				changed := []string{}
				if err := s.scan(seen, &changed); err != nil {
					// Directory removed out from under us.
					s.Log.Errorf("poll scan failed: %v", err)
					return
				}
				for _, path := range changed {
					select {
					case events <- path:
					default:
						s.Log.Debugf("dropping change notification for %s (consumer busy)", path)
					}
				}
			}
		}
	}()

	return events, nil
}

// scan records current modification times in seen and, when changed is
// non-nil, appends the paths whose mtime moved since the previous scan.
func (s *PollSource) scan(seen map[string]time.Time, changed *[]string) error {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.Dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isManaged(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(s.Dir, entry.Name())
		previous, known := seen[path]
		seen[path] = info.ModTime()

		if changed != nil && (!known || info.ModTime().After(previous)) {
			*changed = append(*changed, path)
		}
	}

	return nil
}

func isManaged(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, managedExtension) && !strings.HasPrefix(base, ".")
}

// SourceClosedError explains why a change source stopped delivering events:
// loss of the watched directory itself, or an unexpected termination.
func SourceClosedError(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", kerrors.ErrWatchDirGone, dir)
	}
	return kerrors.ErrChangeSourceClosed
}
