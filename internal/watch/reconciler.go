package watch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fernvale/daybook/internal/crypt"
	kerrors "github.com/fernvale/daybook/internal/errors"
	"github.com/fernvale/daybook/internal/journal"
	logger "github.com/fernvale/daybook/internal/logging"
	"github.com/fernvale/daybook/internal/utils"
)

// Cipher is the encryption tool surface the reconciler needs. crypt.Tool
// satisfies it; tests substitute fakes.
type Cipher interface {
	EncryptInPlace(ctx context.Context, path string) error
	Decrypt(ctx context.Context, path string) ([]byte, error)
}

// defaultTimeout bounds the subprocess work for one file so a slow tool
// invocation cannot stall the notification loop.
const defaultTimeout = 30 * time.Second

// selfEventWindow suppresses the change notification generated by our own
// commit, which would otherwise re-trigger reconciliation indefinitely.
const selfEventWindow = 2 * time.Second

// Reconciler keeps the `updated:` field of changed journal entries fresh
// without corrupting their encryption state.
type Reconciler struct {
	// Cipher handles encrypted entries. Nil means the tool is unavailable
	// and encrypted files are skipped with a warning, never force-read.
	Cipher Cipher

	Log logger.Logger

	// Timeout bounds per-file work. Zero means defaultTimeout.
	Timeout time.Duration

	// Now is the clock, overridable in tests. Nil means time.Now.
	Now func() time.Time

	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	committed map[string]time.Time
}

// Run consumes change notifications until ctx is done or the source closes
// the channel (loss of the watched directory). Notifications for different
// files are processed concurrently; notifications for the same file are
// serialized through a per-path mutex so encrypt/decrypt cycles never race.
func (r *Reconciler) Run(ctx context.Context, events <-chan string) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-events:
			if !ok {
				// Sources close their channel on cancellation too; a clean
				// shutdown must not masquerade as a source failure.
				if err := ctx.Err(); err != nil {
					return err
				}
				return kerrors.ErrChangeSourceClosed
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.process(ctx, path)
			}()
		}
	}
}

func (r *Reconciler) process(ctx context.Context, path string) {
	lock := r.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	if r.recentlyCommitted(path) {
		r.Log.Debugf("ignoring self-induced change for %s", path)
		return
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.reconcile(tctx, path); err != nil {
		// Per-file errors never stop the watcher.
		r.Log.Errorf("reconcile %s: %v", path, err)
	}
}

// reconcile re-opens one entry, bumps its `updated:` field, and re-commits
// it in the same on-disk representation it started with.
func (r *Reconciler) reconcile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		r.Log.Debugf("skipping %s: %v", path, err)
		return nil
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	if !utils.IsWritable(path) {
		r.Log.Warnf("skipping %s: not writable", path)
		return nil
	}

	detection, err := crypt.Detect(path)
	if err != nil || detection == crypt.DetectionUnknown {
		r.Log.Warnf("skipping %s: encryption state unknown", path)
		return nil
	}

	encrypted := detection == crypt.DetectedEncrypted
	if encrypted && r.Cipher == nil {
		r.Log.WarnfAlways("skipping encrypted entry %s: encryption tool unavailable", path)
		return nil
	}

	var text []byte
	if encrypted {
		text, err = r.Cipher.Decrypt(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to obtain plaintext view: %w", err)
		}
	} else {
		text, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read entry: %w", err)
		}
	}

	// Not every markdown file is ours; leave anything without the entry
	// shape untouched.
	if !journal.LooksLikeEntry(string(text)) {
		r.Log.Debugf("skipping %s: no journal metadata block", path)
		return nil
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	touched, err := journal.Touch(string(text), now())
	if err != nil {
		return err
	}
	if touched == string(text) {
		return nil
	}

	var enc journal.Encryptor
	if encrypted {
		enc = r.Cipher
	}
	if err := journal.CommitFile(ctx, path, []byte(touched), enc); err != nil {
		return err
	}

	r.markCommitted(path, now())
	return nil
}

func (r *Reconciler) lockFor(path string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks == nil {
		r.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := r.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[path] = lock
	}
	return lock
}

func (r *Reconciler) markCommitted(path string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.committed == nil {
		r.committed = make(map[string]time.Time)
	}
	r.committed[path] = at
}

func (r *Reconciler) recentlyCommitted(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	at, ok := r.committed[path]
	if !ok {
		return false
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return now().Sub(at) < selfEventWindow
}
