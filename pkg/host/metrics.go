package host

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors a Scanner updates. A nil *Metrics
// records nothing.
type Metrics struct {
	bundlesScanned  prometheus.Counter
	bundlesSkipped  *prometheus.CounterVec
	pluginsFound    prometheus.Counter
	scanDuration    prometheus.Histogram
	loadTotal       *prometheus.CounterVec
	modulesOpen     prometheus.Gauge
	instancesLive   prometheus.Gauge
	paramsCoalesced prometheus.Counter
	paramsDropped   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		bundlesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vst3host_bundles_scanned_total",
			Help: "Number of bundles inspected by the scanner",
		}),
		bundlesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vst3host_bundles_skipped_total",
			Help: "Number of bundles skipped because they could not be read",
		}, []string{"reason"}),
		pluginsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vst3host_plugins_discovered_total",
			Help: "Number of plugin classes reported by scans",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vst3host_scan_duration_seconds",
			Help:    "Duration of full catalog scans",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		loadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vst3host_loads_total",
			Help: "Number of plugin loads by result",
		}, []string{"result"}),
		modulesOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vst3host_modules_open",
			Help: "Number of native modules currently loaded",
		}),
		instancesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vst3host_instances_live",
			Help: "Number of plugin instances not yet terminated",
		}),
		paramsCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vst3host_param_coalesced_total",
			Help: "Number of parameter changes coalesced because the queue was full",
		}),
		paramsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vst3host_param_changes_dropped_total",
			Help: "Number of parameter changes the processor could not deliver to the plugin",
		}),
	}
	if registerer == nil {
		return m, nil
	}
	err := errors.Join(
		registerer.Register(m.bundlesScanned),
		registerer.Register(m.bundlesSkipped),
		registerer.Register(m.pluginsFound),
		registerer.Register(m.scanDuration),
		registerer.Register(m.loadTotal),
		registerer.Register(m.modulesOpen),
		registerer.Register(m.instancesLive),
		registerer.Register(m.paramsCoalesced),
		registerer.Register(m.paramsDropped),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) bundleScanned() {
	if m != nil {
		m.bundlesScanned.Inc()
	}
}

func (m *Metrics) bundleSkipped(reason string) {
	if m != nil {
		m.bundlesSkipped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) pluginsDiscovered(n int) {
	if m != nil {
		m.pluginsFound.Add(float64(n))
	}
}

func (m *Metrics) scanFinished(start time.Time) {
	if m != nil {
		m.scanDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) load(err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrBundleNotFound):
		result = "bundle_not_found"
	case errors.Is(err, ErrClassNotFound):
		result = "class_not_found"
	case errors.Is(err, ErrUnsupportedCapability):
		result = "unsupported_capability"
	case errors.Is(err, ErrModuleInUse):
		result = "module_in_use"
	default:
		result = "error"
	}
	m.loadTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) moduleOpened() {
	if m != nil {
		m.modulesOpen.Inc()
	}
}

func (m *Metrics) moduleClosed() {
	if m != nil {
		m.modulesOpen.Dec()
	}
}

func (m *Metrics) instanceCreated() {
	if m != nil {
		m.instancesLive.Inc()
	}
}

func (m *Metrics) instanceTerminated() {
	if m != nil {
		m.instancesLive.Dec()
	}
}

func (m *Metrics) paramCoalesced() {
	if m != nil {
		m.paramsCoalesced.Inc()
	}
}

func (m *Metrics) paramChangesDropped(n int32) {
	if m != nil {
		m.paramsDropped.Add(float64(n))
	}
}
