package host

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// negotiated is the interface set of one instance. Every non-nil field
// holds exactly one reference, given back by release.
type negotiated struct {
	component  vst3.IComponent
	processor  vst3.IAudioProcessor
	controller vst3.IEditController

	// separate is set when the controller was created from its own class
	// rather than queried on the component.
	separate bool

	componentCP  vst3.IConnectionPoint
	controllerCP vst3.IConnectionPoint

	caps     Capability
	released atomic.Bool
}

// negotiate creates and initializes the component for cid and collects the
// interfaces around it. It fails with a CapabilityError naming whatever
// part of required could not be obtained.
func negotiate(factory vst3.IPluginFactory, cid vst3.TUID, required Capability, logger *slog.Logger) (*negotiated, error) {
	comp, err := factory.CreateComponent(cid)
	if err != nil {
		return nil, nativeErr("create component", err)
	}
	if err := comp.Initialize(); err != nil {
		comp.Release()
		return nil, nativeErr("initialize component", err)
	}
	n := &negotiated{component: comp}

	if u, err := comp.QueryInterface(vst3.IIDIAudioProcessor); err == nil {
		if p, ok := u.(vst3.IAudioProcessor); ok {
			n.processor = p
			n.caps |= CapProcessor
		} else {
			u.Release()
		}
	}

	if u, err := comp.QueryInterface(vst3.IIDIEditController); err == nil {
		if c, ok := u.(vst3.IEditController); ok {
			n.controller = c
		} else {
			u.Release()
		}
	}
	if n.controller == nil {
		n.createController(factory, logger)
	}

	if n.controller != nil {
		n.caps |= CapController
		if n.controller.ParameterCount() > 0 {
			n.caps |= CapParameterAccess
		}
	}

	if missing := required &^ n.caps; missing != 0 {
		if err := n.release(); err != nil {
			logger.Debug("releasing partially negotiated plugin", "error", err)
		}
		return nil, &CapabilityError{Missing: missing}
	}
	return n, nil
}

// createController instantiates the separate edit controller, connects it
// to the component and hands it the component state. Failures leave the
// instance without a controller.
func (n *negotiated) createController(factory vst3.IPluginFactory, logger *slog.Logger) {
	ccid, err := n.component.ControllerClassID()
	if err != nil || ccid.IsZero() {
		return
	}
	ctrl, err := factory.CreateController(ccid)
	if err != nil {
		logger.Debug("controller class not available", "cid", ccid, "error", err)
		return
	}
	if err := ctrl.Initialize(); err != nil {
		logger.Debug("controller initialize failed", "cid", ccid, "error", err)
		ctrl.Release()
		return
	}
	n.controller = ctrl
	n.separate = true
	n.connect(logger)

	state, err := n.component.State()
	if err != nil {
		logger.Debug("component state unavailable", "error", err)
		return
	}
	if err := ctrl.SetComponentState(state); err != nil {
		logger.Debug("controller rejected component state", "error", err)
	}
}

// connect links the component and controller connection points when both
// sides offer one.
func (n *negotiated) connect(logger *slog.Logger) {
	compCP := queryConnectionPoint(n.component)
	if compCP == nil {
		return
	}
	ctrlCP := queryConnectionPoint(n.controller)
	if ctrlCP == nil {
		compCP.Release()
		return
	}
	if err := compCP.Connect(ctrlCP); err != nil {
		logger.Debug("component refused connection", "error", err)
	}
	if err := ctrlCP.Connect(compCP); err != nil {
		logger.Debug("controller refused connection", "error", err)
	}
	n.componentCP = compCP
	n.controllerCP = ctrlCP
}

func queryConnectionPoint(q vst3.Queryable) vst3.IConnectionPoint {
	u, err := q.QueryInterface(vst3.IIDIConnectionPoint)
	if err != nil {
		return nil
	}
	cp, ok := u.(vst3.IConnectionPoint)
	if !ok {
		u.Release()
		return nil
	}
	return cp
}

// release tears the set down in reverse order of construction. Only the
// first call does anything.
func (n *negotiated) release() error {
	if !n.released.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error
	if n.componentCP != nil {
		errs = append(errs,
			nativeErr("disconnect component", n.componentCP.Disconnect(n.controllerCP)),
			nativeErr("disconnect controller", n.controllerCP.Disconnect(n.componentCP)),
		)
		n.componentCP.Release()
		n.controllerCP.Release()
	}
	if n.controller != nil {
		if n.separate {
			errs = append(errs, nativeErr("terminate controller", n.controller.Terminate()))
		}
		n.controller.Release()
	}
	if n.processor != nil {
		n.processor.Release()
	}
	errs = append(errs, nativeErr("terminate component", n.component.Terminate()))
	n.component.Release()
	return errors.Join(errs...)
}
