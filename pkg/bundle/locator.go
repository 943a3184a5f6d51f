package bundle

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Locator enumerates bundle candidates below a set of search roots.
type Locator struct {
	Paths  []string
	Logger *slog.Logger
}

// NewLocator returns a locator over paths. An empty list means DefaultPaths.
func NewLocator(paths ...string) *Locator {
	if len(paths) == 0 {
		paths = DefaultPaths()
	}
	return &Locator{Paths: paths}
}

// Bundles walks every search root and returns the bundle paths found,
// sorted and without duplicates. Bundles are not descended into. Missing
// roots are ignored and unreadable directories are skipped with a warning;
// the only error returned is ctx's.
func (l *Locator) Bundles(ctx context.Context) ([]string, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]struct{})
	var found []string
	for _, root := range l.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		root = filepath.Clean(root)
		if _, err := os.Stat(root); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("search path unreadable", "path", root, "error", err)
			}
			continue
		}
		if IsBundle(root) {
			if _, ok := seen[root]; !ok {
				seen[root] = struct{}{}
				found = append(found, root)
			}
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("skipping directory", "path", path, "error", err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if path == root || !IsBundle(d.Name()) {
				return nil
			}
			if _, ok := seen[path]; !ok {
				seen[path] = struct{}{}
				found = append(found, path)
			}
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(found)
	return found, nil
}
