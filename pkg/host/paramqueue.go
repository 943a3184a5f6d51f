package host

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// DefaultParamQueueSize is the number of parameter changes that can be
// pending between two process calls.
const DefaultParamQueueSize = 256

// paramQueue is a lock-free single producer, single consumer ring of
// parameter changes. The control thread pushes, the audio thread pops.
type paramQueue struct {
	data     []vst3.ParamChange
	mask     uint64
	readPos  atomic.Uint64
	writePos atomic.Uint64

	// Statistics for monitoring
	overruns atomic.Uint64
}

func newParamQueue(size int) *paramQueue {
	if size <= 0 {
		size = DefaultParamQueueSize
	}
	n := nextPowerOf2(uint64(size))
	return &paramQueue{
		data: make([]vst3.ParamChange, n),
		mask: n - 1,
	}
}

// push appends a change. It reports false when the ring is full.
func (q *paramQueue) push(change vst3.ParamChange) bool {
	w := q.writePos.Load()
	r := q.readPos.Load()
	if w-r >= uint64(len(q.data)) {
		q.overruns.Add(1)
		return false
	}
	q.data[w&q.mask] = change
	q.writePos.Store(w + 1)
	return true
}

// drain appends every pending change to dst without growing it beyond its
// capacity and returns the result. Changes that do not fit stay queued.
func (q *paramQueue) drain(dst []vst3.ParamChange) []vst3.ParamChange {
	r := q.readPos.Load()
	w := q.writePos.Load()
	for r != w && len(dst) < cap(dst) {
		dst = append(dst, q.data[r&q.mask])
		r++
	}
	q.readPos.Store(r)
	return dst
}

// capacity is the ring size.
func (q *paramQueue) capacity() int {
	return len(q.data)
}

// pending returns the number of queued changes.
func (q *paramQueue) pending() int {
	return int(q.writePos.Load() - q.readPos.Load())
}

// paramSlots keeps the latest value per parameter index for changes that
// did not go through the ring. The control thread sets slots, the audio
// thread takes them. A value set while a slot is already dirty replaces the
// earlier one.
type paramSlots struct {
	ids    []atomic.Uint32
	values []atomic.Uint64
	dirty  []atomic.Bool
	any    atomic.Bool
}

func newParamSlots(n int) *paramSlots {
	return &paramSlots{
		ids:    make([]atomic.Uint32, n),
		values: make([]atomic.Uint64, n),
		dirty:  make([]atomic.Bool, n),
	}
}

// set stores the normalized value v of parameter id at index. The flags
// are raised after the value so a reader never sees a dirty slot without
// its value.
func (s *paramSlots) set(index int, id vst3.ParamID, v float64) {
	s.ids[index].Store(uint32(id))
	s.values[index].Store(math.Float64bits(v))
	s.dirty[index].Store(true)
	s.any.Store(true)
}

// isDirty reports whether index holds a value not yet taken.
func (s *paramSlots) isDirty(index int) bool {
	return s.dirty[index].Load()
}

// take appends every dirty slot to dst without growing it beyond its
// capacity and returns the result. Slots that do not fit stay dirty.
func (s *paramSlots) take(dst []vst3.ParamChange) []vst3.ParamChange {
	if !s.any.Swap(false) {
		return dst
	}
	for i := range s.dirty {
		if !s.dirty[i].Load() {
			continue
		}
		if len(dst) == cap(dst) {
			s.any.Store(true)
			break
		}
		s.dirty[i].Store(false)
		dst = append(dst, vst3.ParamChange{
			ID:    vst3.ParamID(s.ids[i].Load()),
			Value: math.Float64frombits(s.values[i].Load()),
		})
	}
	return dst
}

// count returns the number of dirty slots.
func (s *paramSlots) count() int {
	n := 0
	for i := range s.dirty {
		if s.dirty[i].Load() {
			n++
		}
	}
	return n
}

func nextPowerOf2(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}
