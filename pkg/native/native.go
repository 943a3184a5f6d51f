// Package native opens VST3 modules with the platform's dynamic loader and
// exposes their factories through the interfaces of package vst3.
//
// All calls into plugin code go through small C helpers in abi.h that
// dispatch on the COM-style vtables. The package needs cgo; without it
// NewLoader reports ErrUnavailable.
package native

import (
	"errors"
	"log/slog"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// ErrUnavailable is returned when this build has no native loader.
var ErrUnavailable = errors.New("native module loading is not available in this build")

// Loader opens VST3 modules. It is safe for concurrent use.
type Loader struct {
	logger *slog.Logger
	static map[string]uintptr
}

var _ vst3.Loader = (*Loader)(nil)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for module open and close events.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithStaticModule registers a plugin factory linked into the host binary.
// Opening path returns a module backed by getFactory, the address of a
// GetPluginFactory function, without loading anything from disk.
func WithStaticModule(path string, getFactory uintptr) Option {
	return func(l *Loader) {
		if l.static == nil {
			l.static = make(map[string]uintptr)
		}
		l.static[path] = getFactory
	}
}

// NewLoader returns a loader for the current platform.
func NewLoader(opts ...Option) (*Loader, error) {
	if err := available(); err != nil {
		return nil, err
	}
	l := &Loader{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}
