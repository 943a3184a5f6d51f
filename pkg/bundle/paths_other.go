//go:build !linux && !darwin && !windows

package bundle

import "runtime"

const (
	moduleSuffix      = ".so"
	singleFileModules = false
)

// ArchDir follows the Linux naming on other Unix systems.
func ArchDir() string {
	return runtime.GOARCH + "-" + runtime.GOOS
}

// DefaultPaths is empty on platforms without a VST3 convention.
func DefaultPaths() []string {
	return nil
}
