//go:build !cgo || !(linux || darwin || windows)

package native

import "github.com/justyntemme/vst3host/pkg/vst3"

func available() error {
	return ErrUnavailable
}

// Open always fails in builds without a native loader.
func (l *Loader) Open(path string) (vst3.Module, error) {
	return nil, ErrUnavailable
}
