// Package host discovers VST3 plugins, loads them and drives them through
// their processing lifecycle.
//
// A Scanner produces PluginInfo records without creating plugin instances.
// Scanner.Load turns a PluginInfo into a PluginInstance, which owns the
// negotiated native interfaces and a reference to the module they came
// from. The module is unloaded once its last instance is terminated.
package host

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/vst3host/pkg/bundle"
	"github.com/justyntemme/vst3host/pkg/native"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

const tracerName = "github.com/justyntemme/vst3host/pkg/host"

// Scanner enumerates installed plugins and loads them. It is safe for
// concurrent use; every Scan re-reads the disk.
type Scanner struct {
	opts    options
	locator Locator
	modules *moduleCache
	tracer  trace.Tracer
	cache   *lru.Cache[string, cachedBundle]
}

type cachedBundle struct {
	size    int64
	modTime time.Time
	infos   []PluginInfo
}

// NewScanner returns a scanner. Without WithLoader it uses the native
// loader and fails with an *InitError where none is available.
func NewScanner(opts ...Option) (*Scanner, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.loader == nil {
		l, err := native.NewLoader(native.WithLogger(o.logger))
		if err != nil {
			return nil, &InitError{Op: "create module loader", Err: err}
		}
		o.loader = l
	}
	if o.locator == nil {
		l := bundle.NewLocator(o.searchPaths...)
		l.Logger = o.logger
		o.locator = l
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	s := &Scanner{
		opts:    o,
		locator: o.locator,
		modules: newModuleCache(o.loader, o.logger, o.metrics),
		tracer:  o.tracer,
	}
	if o.cacheSize > 0 {
		cache, err := lru.New[string, cachedBundle](o.cacheSize)
		if err != nil {
			return nil, &InitError{Op: "create metadata cache", Err: err}
		}
		s.cache = cache
	}
	return s, nil
}

// Scan returns every plugin class found in the bundles the locator reports,
// ordered by bundle path and class index. Bundles that cannot be read are
// skipped. The only errors are cancellation and locator failures, both
// reported as *ScanError.
func (s *Scanner) Scan(ctx context.Context) ([]PluginInfo, error) {
	ctx, span := s.tracer.Start(ctx, "vst3host.Scan")
	defer span.End()
	start := time.Now()

	paths, err := s.locator.Bundles(ctx)
	if err != nil {
		return nil, s.scanFailed(span, "locate bundles", err)
	}

	results := make([][]PluginInfo, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			infos, err := s.scanBundle(gctx, path)
			if err != nil {
				s.skip(path, err)
				return nil
			}
			results[i] = infos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.scanFailed(span, "scan", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, s.scanFailed(span, "scan", err)
	}

	infos := slices.Concat(results...)
	if s.opts.latestOnly {
		infos = Latest(infos)
	}
	s.opts.metrics.pluginsDiscovered(len(infos))
	s.opts.metrics.scanFinished(start)
	span.SetAttributes(
		attribute.Int("vst3.bundles", len(paths)),
		attribute.Int("vst3.plugins", len(infos)),
	)
	s.opts.logger.Debug("scan finished", "bundles", len(paths), "plugins", len(infos), "elapsed", time.Since(start))
	return infos, nil
}

// All scans lazily, one bundle at a time, yielding each plugin as it is
// found. Skipped bundles are reported as in Scan; a cancelled context or a
// locator failure is yielded once as a *ScanError and ends the sequence.
// WithLatestOnly does not apply.
func (s *Scanner) All(ctx context.Context) iter.Seq2[PluginInfo, error] {
	return func(yield func(PluginInfo, error) bool) {
		paths, err := s.locator.Bundles(ctx)
		if err != nil {
			yield(PluginInfo{}, &ScanError{Op: "locate bundles", Err: err})
			return
		}
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				yield(PluginInfo{}, &ScanError{Op: "scan", Err: err})
				return
			}
			infos, err := s.scanBundle(ctx, path)
			if err != nil {
				s.skip(path, err)
				continue
			}
			s.opts.metrics.pluginsDiscovered(len(infos))
			for _, info := range infos {
				if !yield(info, nil) {
					return
				}
			}
		}
	}
}

// ScanBundle reads the plugin classes of a single bundle. Unlike Scan it
// returns the bundle's error instead of skipping it.
func (s *Scanner) ScanBundle(ctx context.Context, path string) ([]PluginInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.scanBundle(ctx, path)
}

func (s *Scanner) scanBundle(ctx context.Context, path string) ([]PluginInfo, error) {
	_, span := s.tracer.Start(ctx, "vst3host.ScanBundle",
		trace.WithAttributes(attribute.String("vst3.bundle", path)))
	defer span.End()
	s.opts.metrics.bundleScanned()

	b, err := bundle.Resolve(path)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var stamp os.FileInfo
	if s.cache != nil {
		if stamp, err = os.Stat(b.ModulePath); err == nil {
			if c, ok := s.cache.Get(b.Path); ok && c.size == stamp.Size() && c.modTime.Equal(stamp.ModTime()) {
				span.SetAttributes(attribute.Bool("vst3.cached", true))
				return slices.Clone(c.infos), nil
			}
		}
	}

	var described []PluginInfo
	if s.opts.useModuleInfo && b.ModuleInfoPath != "" {
		described, err = s.fromModuleInfo(b)
		if err != nil {
			s.opts.logger.Debug("moduleinfo unusable, reading factory", "bundle", b.Path, "error", err)
		}
	}
	infos, err := s.fromFactory(b, described)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.cache != nil && stamp != nil {
		s.cache.Add(b.Path, cachedBundle{
			size:    stamp.Size(),
			modTime: stamp.ModTime(),
			infos:   slices.Clone(infos),
		})
	}
	return infos, nil
}

// fromModuleInfo lists classes from moduleinfo.json. The result is never
// nil on success.
func (s *Scanner) fromModuleInfo(b bundle.Bundle) ([]PluginInfo, error) {
	mi, err := bundle.ReadModuleInfo(b.ModuleInfoPath)
	if err != nil {
		return nil, err
	}
	classes, err := mi.ClassInfos()
	if err != nil {
		return nil, err
	}
	infos := make([]PluginInfo, 0, len(classes))
	for i, ci := range classes {
		if isAudioClass(ci) {
			infos = append(infos, newPluginInfo(ci, int32(i), mi.FactoryInfo.Vendor, b.Path, b.ModulePath, SourceModuleInfo))
		}
	}
	return infos, nil
}

// fromFactory opens the module and reads its factory. When described is
// non-nil the classes are taken from it and the factory only confirms that
// the module loads. The module reference is dropped before returning, so
// unless an instance holds it the module is unloaded again.
func (s *Scanner) fromFactory(b bundle.Bundle, described []PluginInfo) ([]PluginInfo, error) {
	h, err := s.modules.acquire(b.ModulePath)
	if err != nil {
		return nil, fmt.Errorf("open module: %w", err)
	}
	defer h.release()

	f, err := h.module.Factory()
	if err != nil {
		return nil, nativeErr("plugin factory", err)
	}
	defer f.Release()
	if described != nil {
		return described, nil
	}

	var vendor string
	if fi, err := f.Info(); err == nil {
		vendor = fi.Vendor
	}
	n := f.CountClasses()
	infos := make([]PluginInfo, 0, max(n, 0))
	for i := range n {
		ci, err := f.ClassInfo(i)
		if err != nil {
			s.opts.logger.Debug("class info unavailable", "bundle", b.Path, "index", i, "error", err)
			continue
		}
		if isAudioClass(ci) {
			infos = append(infos, newPluginInfo(ci, i, vendor, b.Path, b.ModulePath, SourceFactory))
		}
	}
	return infos, nil
}

func isAudioClass(ci vst3.ClassInfo) bool {
	return ci.Category == vst3.CategoryAudioEffect && ci.Name != "" && !ci.CID.IsZero()
}

func (s *Scanner) skip(path string, err error) {
	reason := skipReason(err)
	s.opts.logger.Warn("skipping bundle", "path", path, "reason", reason, "error", err)
	s.opts.metrics.bundleSkipped(reason)
	if s.opts.onSkip != nil {
		s.opts.onSkip(Skip{Path: path, Err: err})
	}
}

func skipReason(err error) string {
	var nerr *NativeError
	switch {
	case errors.Is(err, bundle.ErrNotFound):
		return "not_found"
	case errors.Is(err, bundle.ErrNoModule):
		return "no_module"
	case errors.As(err, &nerr):
		return "factory"
	default:
		return "load"
	}
}

func (s *Scanner) scanFailed(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return &ScanError{Op: op, Err: err}
}

// Load instantiates the plugin described by info. The module is opened
// again, or shared with live instances when WithSharedModules allows it,
// and the class id is looked up afresh. The instance starts in
// StateCreated and must be terminated by the caller.
func (s *Scanner) Load(ctx context.Context, info PluginInfo) (inst *PluginInstance, err error) {
	_, span := s.tracer.Start(ctx, "vst3host.Load", trace.WithAttributes(
		attribute.String("vst3.plugin", info.Name),
		attribute.String("vst3.cid", info.ID.String()),
		attribute.String("vst3.bundle", info.BundlePath),
	))
	defer func() {
		s.opts.metrics.load(err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	fail := func(err error) error {
		return &LoadError{Name: info.Name, ID: info.ID, Bundle: info.BundlePath, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, fail(err)
	}

	b, err := bundle.Resolve(info.BundlePath)
	if err != nil {
		if errors.Is(err, bundle.ErrNotFound) || errors.Is(err, bundle.ErrNoModule) {
			err = fmt.Errorf("%w: %w", ErrBundleNotFound, err)
		}
		return nil, fail(err)
	}

	h, err := s.modules.acquire(b.ModulePath)
	if err != nil {
		return nil, fail(fmt.Errorf("open module: %w", err))
	}
	inst, err = s.instantiate(h, info)
	if err != nil {
		h.release()
		return nil, fail(err)
	}
	s.opts.logger.Debug("plugin loaded", "plugin", info.Name, "caps", inst.Capabilities())
	return inst, nil
}

// instantiate creates and negotiates one instance on h. Instantiation on a
// module is serialized.
func (s *Scanner) instantiate(h *moduleHandle, info PluginInfo) (*PluginInstance, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := h.module.Factory()
	if err != nil {
		return nil, nativeErr("plugin factory", err)
	}
	defer f.Release()

	ci, ok := findClass(f, info.ID)
	if !ok {
		return nil, ErrClassNotFound
	}
	if err := h.acquireInstance(info.ID, ci.Cardinality, s.opts.shared); err != nil {
		return nil, err
	}
	iface, err := negotiate(f, info.ID, s.opts.required, s.opts.logger)
	if err != nil {
		h.dropInstance(info.ID)
		return nil, err
	}
	return newInstance(info, h, iface, &s.opts), nil
}

func findClass(f vst3.IPluginFactory, cid vst3.TUID) (vst3.ClassInfo, bool) {
	for i := range f.CountClasses() {
		ci, err := f.ClassInfo(i)
		if err == nil && ci.CID == cid && ci.Category == vst3.CategoryAudioEffect {
			return ci, true
		}
	}
	return vst3.ClassInfo{}, false
}

// OpenModules returns the number of native modules currently loaded by the
// scanner, whether for instances or an ongoing scan.
func (s *Scanner) OpenModules() int {
	return s.modules.open()
}
