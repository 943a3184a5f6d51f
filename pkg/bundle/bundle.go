// Package bundle finds VST3 bundles on disk and resolves them to the native
// module the platform loader can open.
//
// A bundle is a directory named <name>.vst3 with the module under
// Contents/<platform dir>/. On Windows a plain <name>.vst3 DLL is also
// accepted.
package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the file name extension of VST3 bundles.
const Extension = ".vst3"

var (
	// ErrNotFound is returned when the bundle path does not exist.
	ErrNotFound = errors.New("bundle not found")

	// ErrNoModule is returned when a bundle has no module for this platform.
	ErrNoModule = errors.New("bundle has no module for this platform")
)

// Bundle is a resolved bundle.
type Bundle struct {
	// Path is the bundle directory, or the module file for single file bundles.
	Path string

	// Name is the bundle file name without the extension.
	Name string

	// ModulePath is the native module to open.
	ModulePath string

	// ModuleInfoPath is Contents/Resources/moduleinfo.json when the bundle
	// ships one, otherwise empty.
	ModuleInfoPath string
}

// IsBundle reports whether the base name of path carries the bundle
// extension. A bare ".vst3", the Linux user directory, is not a bundle.
func IsBundle(path string) bool {
	name := filepath.Base(path)
	return len(name) > len(Extension) && strings.EqualFold(filepath.Ext(name), Extension)
}

// Resolve inspects path and returns the module it contains.
func Resolve(path string) (Bundle, error) {
	path = filepath.Clean(path)
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Bundle{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return Bundle{}, fmt.Errorf("stat bundle: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	b := Bundle{Path: path, Name: name}

	if !fi.IsDir() {
		if !singleFileModules {
			return Bundle{}, fmt.Errorf("%s: %w", path, ErrNoModule)
		}
		b.ModulePath = path
		return b, nil
	}

	b.ModulePath = filepath.Join(path, ModuleRelPath(name))
	mi, err := os.Stat(b.ModulePath)
	if err != nil || mi.IsDir() {
		return Bundle{}, fmt.Errorf("%s: %w", path, ErrNoModule)
	}

	info := filepath.Join(path, "Contents", "Resources", "moduleinfo.json")
	if _, err := os.Stat(info); err == nil {
		b.ModuleInfoPath = info
	}
	return b, nil
}

// ModuleRelPath returns the module location inside a bundle directory for
// the running platform.
func ModuleRelPath(name string) string {
	return filepath.Join("Contents", ArchDir(), name+moduleSuffix)
}
