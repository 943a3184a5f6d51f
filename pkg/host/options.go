package host

import (
	"context"
	"log/slog"
	"runtime"

	"go.opentelemetry.io/otel/trace"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Locator enumerates bundle candidates. *bundle.Locator implements it.
type Locator interface {
	Bundles(ctx context.Context) ([]string, error)
}

// Skip describes a bundle the scanner could not read.
type Skip struct {
	Path string
	Err  error
}

// Option configures a Scanner.
type Option func(*options)

type options struct {
	loader        vst3.Loader
	locator       Locator
	searchPaths   []string
	logger        *slog.Logger
	tracer        trace.Tracer
	metrics       *Metrics
	concurrency   int
	cacheSize     int
	useModuleInfo bool
	shared        bool
	required      Capability
	onSkip        func(Skip)
	queueSize     int
	latestOnly    bool
}

func defaultOptions() options {
	return options{
		logger:        slog.Default(),
		concurrency:   runtime.GOMAXPROCS(0),
		useModuleInfo: true,
		required:      CapProcessor,
		queueSize:     DefaultParamQueueSize,
	}
}

// WithLoader replaces the native module loader.
func WithLoader(loader vst3.Loader) Option {
	return func(o *options) {
		o.loader = loader
	}
}

// WithLocator replaces the bundle locator. It takes precedence over
// WithSearchPaths.
func WithLocator(locator Locator) Option {
	return func(o *options) {
		o.locator = locator
	}
}

// WithSearchPaths sets the directories searched for bundles instead of the
// platform defaults.
func WithSearchPaths(paths ...string) Option {
	return func(o *options) {
		o.searchPaths = append([]string(nil), paths...)
	}
}

// WithLogger sets the logger. Skipped bundles are logged at warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer sets the tracer used for scan and load spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithMetrics records scanner and instance metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithConcurrency bounds the number of bundles scanned in parallel.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMetadataCache keeps the metadata of up to size bundles between scans.
// An entry is reused while the module file's size and modification time
// are unchanged. Without it every scan reads every bundle.
func WithMetadataCache(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// WithModuleInfo controls whether class metadata is read from
// moduleinfo.json instead of enumerating the factory's classes. The module
// is opened and its factory fetched either way, so bundles that do not load
// are skipped. It is on by default.
func WithModuleInfo(enabled bool) Option {
	return func(o *options) {
		o.useModuleInfo = enabled
	}
}

// WithSharedModules allows several live instances to share one loaded
// module. Instantiation is then serialized per module. Classes declaring a
// cardinality of one still allow a single instance.
func WithSharedModules(enabled bool) Option {
	return func(o *options) {
		o.shared = enabled
	}
}

// WithRequiredCapabilities sets the capabilities Load insists on. The
// default is CapProcessor.
func WithRequiredCapabilities(c Capability) Option {
	return func(o *options) {
		o.required = c
	}
}

// WithSkipHandler is called for every bundle a scan skips. It may be called
// from several goroutines at once.
func WithSkipHandler(fn func(Skip)) Option {
	return func(o *options) {
		o.onSkip = fn
	}
}

// WithParamQueueSize sets how many parameter changes may be pending per
// instance between two process calls.
func WithParamQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithLatestOnly makes Scan keep only the newest version of each class id.
func WithLatestOnly(enabled bool) Option {
	return func(o *options) {
		o.latestOnly = enabled
	}
}
