package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

func TestParamQueueOrder(t *testing.T) {
	q := newParamQueue(4)
	require.Equal(t, 4, q.capacity())

	for i := range 4 {
		require.True(t, q.push(vst3.ParamChange{ID: vst3.ParamID(i), Value: float64(i) / 4}))
	}
	assert.False(t, q.push(vst3.ParamChange{ID: 9}), "full ring rejects")
	assert.Equal(t, uint64(1), q.overruns.Load())
	assert.Equal(t, 4, q.pending())

	got := q.drain(make([]vst3.ParamChange, 0, 8))
	require.Len(t, got, 4)
	for i, c := range got {
		assert.Equal(t, vst3.ParamID(i), c.ID)
	}
	assert.Zero(t, q.pending())
}

func TestParamQueueDrainBoundedByCapacity(t *testing.T) {
	q := newParamQueue(8)
	for i := range 5 {
		q.push(vst3.ParamChange{ID: vst3.ParamID(i)})
	}

	dst := make([]vst3.ParamChange, 0, 3)
	dst = q.drain(dst)
	assert.Len(t, dst, 3)
	assert.Equal(t, 3, cap(dst))
	assert.Equal(t, 2, q.pending())

	dst = q.drain(dst[:0])
	require.Len(t, dst, 2)
	assert.Equal(t, vst3.ParamID(3), dst[0].ID)
}

func TestParamQueueWrapAround(t *testing.T) {
	q := newParamQueue(2)
	buf := make([]vst3.ParamChange, 0, 2)
	for i := range 10 {
		require.True(t, q.push(vst3.ParamChange{ID: vst3.ParamID(i)}))
		buf = q.drain(buf[:0])
		require.Len(t, buf, 1)
		assert.Equal(t, vst3.ParamID(i), buf[0].ID)
	}
}

func TestParamQueueConcurrent(t *testing.T) {
	const n = 10000
	q := newParamQueue(64)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; {
			if q.push(vst3.ParamChange{ID: vst3.ParamID(i)}) {
				i++
			}
		}
	}()

	buf := make([]vst3.ParamChange, 0, 16)
	next := 0
	for next < n {
		buf = q.drain(buf[:0])
		for _, c := range buf {
			require.Equal(t, vst3.ParamID(next), c.ID)
			next++
		}
	}
	<-done
	assert.Zero(t, q.pending())
}

func TestNextPowerOf2(t *testing.T) {
	tests := []struct{ in, want uint64 }{
		{1, 1}, {2, 2}, {3, 4}, {200, 256}, {256, 256}, {257, 512},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nextPowerOf2(tt.in), "nextPowerOf2(%d)", tt.in)
	}
}

func TestParamSlotsCoalesce(t *testing.T) {
	s := newParamSlots(3)
	assert.Empty(t, s.take(make([]vst3.ParamChange, 0, 4)))

	s.set(2, 20, 0.1)
	s.set(0, 5, 0.2)
	s.set(2, 20, 0.9)
	assert.True(t, s.isDirty(2))
	assert.False(t, s.isDirty(1))
	assert.Equal(t, 2, s.count())

	got := s.take(make([]vst3.ParamChange, 0, 4))
	assert.Equal(t, []vst3.ParamChange{{ID: 5, Value: 0.2}, {ID: 20, Value: 0.9}}, got)
	assert.Zero(t, s.count())
	assert.Empty(t, s.take(make([]vst3.ParamChange, 0, 4)), "slots are taken once")
}

func TestParamSlotsTakeRespectsCapacity(t *testing.T) {
	s := newParamSlots(3)
	for i := range 3 {
		s.set(i, vst3.ParamID(i), 0.5)
	}

	got := s.take(make([]vst3.ParamChange, 0, 2))
	require.Len(t, got, 2)
	assert.Equal(t, 1, s.count())

	got = s.take(make([]vst3.ParamChange, 0, 2))
	assert.Equal(t, []vst3.ParamChange{{ID: 2, Value: 0.5}}, got)
}
