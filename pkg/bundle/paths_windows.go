package bundle

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	moduleSuffix      = ".vst3"
	singleFileModules = true
)

var windowsArch = map[string]string{
	"amd64": "x86_64",
	"386":   "x86",
	"arm64": "arm64",
}

// ArchDir returns the Contents sub-directory holding modules for this
// architecture, e.g. x86_64-win.
func ArchDir() string {
	arch, ok := windowsArch[runtime.GOARCH]
	if !ok {
		arch = runtime.GOARCH
	}
	return arch + "-win"
}

// DefaultPaths returns the conventional VST3 install locations, user
// directory first.
func DefaultPaths() []string {
	var paths []string
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		paths = append(paths, filepath.Join(local, "Programs", "Common", "VST3"))
	}
	common := os.Getenv("CommonProgramFiles")
	if common == "" {
		common = `C:\Program Files\Common Files`
	}
	return append(paths, filepath.Join(common, "VST3"))
}
