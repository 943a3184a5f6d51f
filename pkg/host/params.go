package host

import (
	"math"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// ParameterCount returns the number of parameters the controller reported
// at load time. It is zero for plugins without a controller and after
// Terminate.
func (p *PluginInstance) ParameterCount() int {
	if p.State() == StateTerminated {
		return 0
	}
	return p.paramCount
}

// ParameterInfo queries the descriptor and current value of the parameter
// at index. The result is not cached.
func (p *PluginInstance) ParameterInfo(index int) (ParameterInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkIndex("ParameterInfo", index); err != nil {
		return ParameterInfo{}, err
	}
	return p.paramInfo(index)
}

// GetParameter returns the plain value of the parameter at index.
func (p *PluginInstance) GetParameter(index int) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkIndex("GetParameter", index); err != nil {
		return 0, err
	}
	ctrl := p.iface.controller
	pi, err := ctrl.ParameterInfo(int32(index))
	if err != nil {
		return 0, nativeErr("parameter info", err)
	}
	return ctrl.NormalizedParamToPlain(pi.ID, ctrl.ParamNormalized(pi.ID)), nil
}

// SetParameter sets the parameter at index to the plain value v. Values
// outside [Min, Max] are rejected with ErrOutOfRange rather than clamped.
// The change is applied to the controller immediately and reaches the
// processor at the start of the next Process call. Changes made before
// Initialize, or while the change queue is full, are coalesced per
// parameter so the latest value is delivered.
func (p *PluginInstance) SetParameter(index int, v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkIndex("SetParameter", index); err != nil {
		return err
	}
	info, err := p.paramInfo(index)
	if err != nil {
		return err
	}
	perr := &ParamError{Index: index, ID: info.ID, Value: v, Min: info.Min, Max: info.Max}
	if info.ReadOnly() {
		perr.Err = ErrReadOnly
		return perr
	}
	if math.IsNaN(v) || v < info.Min || v > info.Max {
		perr.Err = ErrOutOfRange
		return perr
	}

	ctrl := p.iface.controller
	norm := clamp01(ctrl.PlainParamToNormalized(info.ID, v))
	switch {
	case p.iface.processor == nil:
	case p.State() == StateCreated || p.latest.isDirty(index):
		// A queued value would be delivered before the older slot value.
		p.latest.set(index, info.ID, norm)
	case !p.params.push(vst3.ParamChange{ID: info.ID, Value: norm}):
		p.metrics.paramCoalesced()
		p.latest.set(index, info.ID, norm)
	}
	if err := ctrl.SetParamNormalized(info.ID, norm); err != nil {
		perr.Err = nativeErr("set parameter", err)
		return perr
	}
	return nil
}

func (p *PluginInstance) checkIndex(op string, index int) error {
	if st := p.State(); st == StateTerminated {
		return &StateError{Op: op, State: st}
	}
	if index < 0 || index >= p.paramCount {
		return &IndexError{Index: index, Count: p.paramCount}
	}
	return nil
}

// paramInfo builds the plain-value view of one parameter. Callers hold p.mu
// and have checked index.
func (p *PluginInstance) paramInfo(index int) (ParameterInfo, error) {
	ctrl := p.iface.controller
	pi, err := ctrl.ParameterInfo(int32(index))
	if err != nil {
		return ParameterInfo{}, nativeErr("parameter info", err)
	}
	lo := ctrl.NormalizedParamToPlain(pi.ID, 0)
	hi := ctrl.NormalizedParamToPlain(pi.ID, 1)
	if lo > hi {
		lo, hi = hi, lo
	}
	norm := ctrl.ParamNormalized(pi.ID)
	info := ParameterInfo{
		Index:     index,
		ID:        pi.ID,
		Name:      pi.Title,
		ShortName: pi.ShortTitle,
		Unit:      pi.Units,
		Min:       lo,
		Max:       hi,
		Default:   ctrl.NormalizedParamToPlain(pi.ID, pi.DefaultNormalized),
		Value:     ctrl.NormalizedParamToPlain(pi.ID, norm),
		StepCount: int(pi.StepCount),
		Flags:     pi.Flags,
	}
	if s, err := ctrl.ParamStringByValue(pi.ID, norm); err == nil {
		info.Display = s
	}
	return info, nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

