package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a Watcher waits for a burst of file system
// events to settle, e.g. while an installer copies a bundle.
const DefaultDebounce = 500 * time.Millisecond

// Change lists the bundles touched during one debounce window.
type Change struct {
	Bundles []string
}

// Watcher reports bundles being added, replaced or removed below a set of
// search roots. Roots and their non-bundle sub-directories are watched;
// bundle contents are not.
type Watcher struct {
	watcher  *fsnotify.Watcher
	roots    []string
	debounce time.Duration
	logger   *slog.Logger
	changes  chan Change
	fire     chan struct{}

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

// NewWatcher watches roots. Roots that do not exist are skipped.
func NewWatcher(roots []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		roots:    roots,
		debounce: debounce,
		logger:   logger,
		changes:  make(chan Change, 1),
		fire:     make(chan struct{}, 1),
		pending:  make(map[string]struct{}),
	}
	for _, root := range roots {
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		w.addTree(root)
	}
	if len(fw.WatchList()) == 0 {
		fw.Close()
		return nil, errors.New("none of the search paths exist")
	}
	return w, nil
}

// addTree watches dir and every directory below it that is not a bundle.
func (w *Watcher) addTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if IsBundle(d.Name()) {
			return fs.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("cannot watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Run delivers changes until ctx is done, then closes the channel.
func (w *Watcher) Run(ctx context.Context) <-chan Change {
	go w.loop(ctx)
	return w.changes
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.changes)
	defer w.watcher.Close()
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case <-w.fire:
			if change, ok := w.collect(); ok {
				select {
				case w.changes <- change:
				case <-ctx.Done():
					return
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	bundle := w.bundleOf(event.Name)
	if bundle == "" {
		// A new vendor directory may hold bundles later.
		if event.Has(fsnotify.Create) {
			if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
				w.addTree(event.Name)
			}
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[bundle] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.fire <- struct{}{}:
		default:
		}
	})
}

// bundleOf returns the bundle that path belongs to, or "".
func (w *Watcher) bundleOf(path string) string {
	for p := path; ; {
		if IsBundle(p) {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return ""
		}
		p = parent
	}
}

// collect drains the pending set.
func (w *Watcher) collect() (Change, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return Change{}, false
	}
	change := Change{Bundles: make([]string, 0, len(w.pending))}
	for b := range w.pending {
		change.Bundles = append(change.Bundles, b)
	}
	clear(w.pending)
	w.timer = nil
	sort.Strings(change.Bundles)
	w.logger.Debug("bundles changed", "bundles", change.Bundles)
	return change, true
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
