package bundle

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	moduleSuffix      = ".so"
	singleFileModules = false
)

var linuxArch = map[string]string{
	"amd64": "x86_64",
	"386":   "i386",
	"arm64": "aarch64",
	"arm":   "armv7l",
}

// ArchDir returns the Contents sub-directory holding modules for this
// architecture, e.g. x86_64-linux.
func ArchDir() string {
	arch, ok := linuxArch[runtime.GOARCH]
	if !ok {
		arch = runtime.GOARCH
	}
	return arch + "-linux"
}

// DefaultPaths returns the conventional VST3 install locations, user
// directory first.
func DefaultPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".vst3"))
	}
	return append(paths, "/usr/lib/vst3", "/usr/local/lib/vst3")
}
