// Package hosttest provides an in-memory implementation of the vst3 module
// interfaces for testing hosts without native plugins. Every object handed
// out is recorded in a Ledger so tests can check that references are
// balanced and that no module is unloaded under a live object.
package hosttest

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// ErrNotAModule is returned by Loader.Open for paths nobody registered.
var ErrNotAModule = errors.New("not a VST3 module")

// CID returns a class id whose bytes are all n.
func CID(n byte) vst3.TUID {
	var id vst3.TUID
	for i := range id {
		id[i] = n
	}
	return id
}

// Ledger counts the references held on fake objects.
type Ledger struct {
	mu             sync.Mutex
	live           map[string]int
	opens          int
	closes         int
	modules        int
	doubleReleases int
	violations     []string
}

func NewLedger() *Ledger {
	return &Ledger{live: make(map[string]int)}
}

func (l *Ledger) acquire(kind string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.live[kind]++
}

func (l *Ledger) release(kind string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.live[kind]--
}

func (l *Ledger) doubleRelease() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.doubleReleases++
}

// Live returns the number of outstanding references, across all kinds of
// object, that have not been released.
func (l *Ledger) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.live {
		n += c
	}
	return n
}

// LiveOf returns the outstanding references of one kind: "factory",
// "component", "processor", "controller" or "connection".
func (l *Ledger) LiveOf(kind string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live[kind]
}

// Opens is the number of successful Loader.Open calls.
func (l *Ledger) Opens() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opens
}

// OpenModules is the number of modules opened and not yet closed.
func (l *Ledger) OpenModules() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.modules
}

// DoubleReleases counts Release calls on objects already released.
func (l *Ledger) DoubleReleases() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.doubleReleases
}

// Violations lists modules closed while objects created from them were
// still referenced, and modules closed twice.
func (l *Ledger) Violations() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.violations...)
}

// ModuleSpec describes the content of a fake module.
type ModuleSpec struct {
	Vendor  string
	Classes []*Class

	// OpenErr makes Loader.Open fail.
	OpenErr error
	// FactoryErr makes Module.Factory fail.
	FactoryErr error
}

// Loader is a vst3.Loader over registered fake modules.
type Loader struct {
	Ledger *Ledger

	mu      sync.Mutex
	modules map[string]*ModuleSpec
}

var _ vst3.Loader = (*Loader)(nil)

func NewLoader() *Loader {
	return &Loader{
		Ledger:  NewLedger(),
		modules: make(map[string]*ModuleSpec),
	}
}

// Add registers spec under the module path the host will open.
func (l *Loader) Add(modulePath string, spec *ModuleSpec) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.modules[modulePath] = spec
}

func (l *Loader) Open(path string) (vst3.Module, error) {
	l.mu.Lock()
	spec, ok := l.modules[path]
	l.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotAModule)
	}
	if spec.OpenErr != nil {
		return nil, spec.OpenErr
	}

	l.Ledger.mu.Lock()
	l.Ledger.opens++
	l.Ledger.modules++
	l.Ledger.mu.Unlock()
	return &module{path: path, spec: spec, ledger: l.Ledger}, nil
}

type module struct {
	path   string
	spec   *ModuleSpec
	ledger *Ledger

	mu     sync.Mutex
	objs   int
	closed bool
}

func (m *module) Path() string { return m.path }

func (m *module) Factory() (vst3.IPluginFactory, error) {
	if m.spec.FactoryErr != nil {
		return nil, m.spec.FactoryErr
	}
	f := &factory{}
	f.init(m, "factory")
	return f, nil
}

func (m *module) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.ledger
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case m.closed:
		l.violations = append(l.violations, m.path+": closed twice")
		return errors.New("module already closed")
	case m.objs > 0:
		l.violations = append(l.violations, fmt.Sprintf("%s: closed with %d live objects", m.path, m.objs))
	}
	m.closed = true
	l.closes++
	l.modules--
	return nil
}

func (m *module) track(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objs += delta
}

// ref is the reference every fake object carries. Release is guarded so a
// second call only bumps the double release counter.
type ref struct {
	module   *module
	kind     string
	released atomic.Bool
}

func (r *ref) init(m *module, kind string) {
	r.module = m
	r.kind = kind
	m.ledger.acquire(kind)
	m.track(1)
}

func (r *ref) Release() uint32 {
	if !r.released.CompareAndSwap(false, true) {
		r.module.ledger.doubleRelease()
		return 0
	}
	r.module.ledger.release(r.kind)
	r.module.track(-1)
	return 0
}

type factory struct {
	ref
}

func (f *factory) Info() (vst3.FactoryInfo, error) {
	return vst3.FactoryInfo{Vendor: f.module.spec.Vendor}, nil
}

// classInfos lists the audio classes followed by the separate controller
// classes.
func (f *factory) classInfos() []vst3.ClassInfo {
	var infos []vst3.ClassInfo
	for _, c := range f.module.spec.Classes {
		infos = append(infos, c.Info)
	}
	for _, c := range f.module.spec.Classes {
		if !c.ControllerCID.IsZero() {
			infos = append(infos, vst3.ClassInfo{
				CID:      c.ControllerCID,
				Category: vst3.CategoryComponentController,
				Name:     c.Info.Name + " Controller",
			})
		}
	}
	return infos
}

func (f *factory) CountClasses() int32 {
	return int32(len(f.classInfos()))
}

func (f *factory) ClassInfo(index int32) (vst3.ClassInfo, error) {
	infos := f.classInfos()
	if index < 0 || int(index) >= len(infos) {
		return vst3.ClassInfo{}, vst3.ResultInvalidArgument
	}
	return infos[index], nil
}

func (f *factory) CreateComponent(cid vst3.TUID) (vst3.IComponent, error) {
	for _, c := range f.module.spec.Classes {
		if c.Info.CID == cid {
			if c.CreateErr != nil {
				return nil, c.CreateErr
			}
			return newPlugin(f.module, c).newComponent(), nil
		}
	}
	return nil, vst3.ResultInvalidArgument
}

func (f *factory) CreateController(cid vst3.TUID) (vst3.IEditController, error) {
	for _, c := range f.module.spec.Classes {
		if !c.ControllerCID.IsZero() && c.ControllerCID == cid {
			return newPlugin(f.module, c).newController(true), nil
		}
	}
	return nil, vst3.ResultInvalidArgument
}
