package bundle

import (
	"os"
	"path/filepath"
)

const (
	moduleSuffix      = ""
	singleFileModules = false
)

// ArchDir returns the Contents sub-directory holding the universal binary.
func ArchDir() string {
	return "MacOS"
}

// DefaultPaths returns the conventional VST3 install locations, user
// directory first.
func DefaultPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "Library", "Audio", "Plug-Ins", "VST3"))
	}
	return append(paths,
		"/Library/Audio/Plug-Ins/VST3",
		"/Network/Library/Audio/Plug-Ins/VST3",
	)
}
