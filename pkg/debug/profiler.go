package debug

import (
	"slices"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Profiler collects timing statistics for named sections.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	maxSamples   int
}

// Measurement holds timing statistics for a profiled section. The most
// recent samples are kept for percentiles.
type Measurement struct {
	Name  string
	Count uint64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Last  time.Duration

	samples []time.Duration
	next    int
}

// NewProfiler creates a new profiler keeping up to maxSamples recent
// timings per section.
func NewProfiler(maxSamples int) *Profiler {
	return &Profiler{
		measurements: make(map[string]*Measurement),
		maxSamples:   max(maxSamples, 1),
	}
}

// Start begins timing a named section. Call the returned function to stop.
func (p *Profiler) Start(name string) func() {
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Time measures the execution time of fn.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

// Record adds one timing to the section name.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.measurements[name]
	if !ok {
		m = &Measurement{
			Name:    name,
			Min:     elapsed,
			Max:     elapsed,
			samples: make([]time.Duration, 0, p.maxSamples),
		}
		p.measurements[name] = m
	}

	m.Count++
	m.Total += elapsed
	m.Last = elapsed
	m.Min = min(m.Min, elapsed)
	m.Max = max(m.Max, elapsed)

	if len(m.samples) < cap(m.samples) {
		m.samples = append(m.samples, elapsed)
	} else {
		m.samples[m.next] = elapsed
		m.next = (m.next + 1) % len(m.samples)
	}
}

// Measurement returns a copy of the statistics of the section name.
func (p *Profiler) Measurement(name string) (Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.measurements[name]
	if !ok {
		return Measurement{}, false
	}
	return m.clone(), true
}

// Measurements returns copies of all sections, sorted by name.
func (p *Profiler) Measurements() []Measurement {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Measurement, 0, len(p.measurements))
	for _, m := range p.measurements {
		out = append(out, m.clone())
	}
	slices.SortFunc(out, func(a, b Measurement) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*Measurement)
}

// Report renders the measurements as a table.
func (p *Profiler) Report() string {
	measurements := p.Measurements()
	if len(measurements) == 0 {
		return "No measurements recorded"
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Section", "Count", "Average", "Min", "Max", "P99"})
	for _, m := range measurements {
		t.AppendRow(table.Row{m.Name, m.Count, m.Average(), m.Min, m.Max, m.Percentile(99)})
	}
	return t.Render()
}

func (m *Measurement) clone() Measurement {
	c := *m
	c.samples = slices.Clone(m.samples)
	return c
}

// Average returns the average time for this measurement.
func (m Measurement) Average() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Count)
}

// Percentile returns the p-th percentile (0-100) of the recent samples.
func (m Measurement) Percentile(p float64) time.Duration {
	if len(m.samples) == 0 {
		return 0
	}
	sorted := slices.Clone(m.samples)
	slices.Sort(sorted)
	p = min(max(p, 0), 100)
	return sorted[int(float64(len(sorted)-1)*p/100)]
}

// BlockProfiler times process calls against the real-time budget of a
// block.
type BlockProfiler struct {
	*Profiler
	sampleRate float64
	blockSize  int
}

// BlockSection is the section name BlockProfiler records under.
const BlockSection = "process"

// NewBlockProfiler creates a profiler for blocks of blockSize frames at
// sampleRate.
func NewBlockProfiler(sampleRate float64, blockSize int) *BlockProfiler {
	return &BlockProfiler{
		Profiler:   NewProfiler(1000),
		sampleRate: sampleRate,
		blockSize:  blockSize,
	}
}

// Budget is the wall time one block represents.
func (b *BlockProfiler) Budget() time.Duration {
	if b.sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.blockSize) * float64(time.Second) / b.sampleRate)
}

// Load returns the average processing time as a percentage of Budget.
func (b *BlockProfiler) Load() float64 {
	m, ok := b.Measurement(BlockSection)
	budget := b.Budget()
	if !ok || budget == 0 {
		return 0
	}
	return float64(m.Average()) / float64(budget) * 100
}

// Overruns counts recent blocks that took longer than Budget.
func (b *BlockProfiler) Overruns() int {
	m, ok := b.Measurement(BlockSection)
	if !ok {
		return 0
	}
	budget := b.Budget()
	n := 0
	for _, d := range m.samples {
		if d > budget {
			n++
		}
	}
	return n
}
