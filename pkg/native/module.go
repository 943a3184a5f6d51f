//go:build cgo && (linux || darwin || windows)

package native

// #include "abi.h"
import "C"

import (
	"errors"
	"fmt"
	"sync"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

func available() error {
	return nil
}

// Open loads the module at path, runs its platform entry point and
// resolves GetPluginFactory.
func (l *Loader) Open(path string) (vst3.Module, error) {
	if getFactory, ok := l.static[path]; ok && getFactory != 0 {
		l.logger.Debug("static module opened", "path", path)
		return &module{
			path:       path,
			getFactory: getFactory,
			exit:       func() error { return nil },
			loader:     l,
		}, nil
	}

	lib, err := openLibrary(path)
	if err != nil {
		return nil, err
	}

	getFactory := lib.symbol("GetPluginFactory")
	if getFactory == 0 {
		lib.close()
		return nil, fmt.Errorf("%s: GetPluginFactory not exported", path)
	}

	exit, err := enterModule(lib, path)
	if err != nil {
		lib.close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.logger.Debug("module opened", "path", path)
	return &module{
		path:       path,
		lib:        lib,
		getFactory: getFactory,
		exit:       exit,
		loader:     l,
	}, nil
}

type module struct {
	path       string
	lib        *library // nil for static modules
	getFactory uintptr
	exit       func() error
	loader     *Loader

	closeOnce sync.Once
	closeErr  error
}

func (m *module) Path() string {
	return m.path
}

// Factory calls GetPluginFactory. Every call returns a reference the
// caller must release.
func (m *module) Factory() (vst3.IPluginFactory, error) {
	ptr := C.vh_call_get_factory(C.uintptr_t(m.getFactory))
	if ptr == nil {
		return nil, errors.New("GetPluginFactory returned null")
	}
	return newFactory(ptr), nil
}

func (m *module) Close() error {
	m.closeOnce.Do(func() {
		exitErr := m.exit()
		var closeErr error
		if m.lib != nil {
			closeErr = m.lib.close()
		}
		m.closeErr = errors.Join(exitErr, closeErr)
		m.loader.logger.Debug("module closed", "path", m.path, "error", m.closeErr)
	})
	return m.closeErr
}
