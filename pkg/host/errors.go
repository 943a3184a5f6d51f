package host

import (
	"errors"
	"fmt"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrInvalidState indicates a lifecycle method was called out of order.
	ErrInvalidState = errors.New("invalid lifecycle state")

	// ErrInvalidArgument indicates an argument was rejected before any
	// native call was made.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedCapability indicates a required interface is missing.
	ErrUnsupportedCapability = errors.New("unsupported capability")

	// ErrBundleNotFound indicates the bundle of a PluginInfo is gone.
	ErrBundleNotFound = errors.New("bundle not found")

	// ErrClassNotFound indicates the module no longer exports the class.
	ErrClassNotFound = errors.New("plugin class not found")

	// ErrModuleInUse indicates the module already backs a live instance and
	// module sharing is disabled, or the class allows a single instance.
	ErrModuleInUse = errors.New("module already has a live instance")

	// ErrOutOfRange indicates a parameter value outside [Min, Max].
	ErrOutOfRange = errors.New("value out of range")

	// ErrReadOnly indicates an attempt to set a read-only parameter.
	ErrReadOnly = errors.New("parameter is read-only")
)

// InitError reports that a Scanner could not be set up, typically because
// no native loader exists for the platform.
type InitError struct {
	Op  string
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("vst3host: %s: %v", e.Op, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// ScanError is a catalog-wide scan failure. Failures of single bundles are
// skipped and never produce a ScanError.
type ScanError struct {
	Op  string
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("vst3host: %s: %v", e.Op, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// LoadError reports why a plugin could not be loaded.
type LoadError struct {
	Name   string
	ID     vst3.TUID
	Bundle string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("vst3host: load %q from %s: %v", e.Name, e.Bundle, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// CapabilityError names the capability negotiation could not obtain.
type CapabilityError struct {
	Missing Capability
	Err     error
}

func (e *CapabilityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unsupported capability: %s", e.Missing)
	}
	return fmt.Sprintf("unsupported capability: %s: %v", e.Missing, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

func (e *CapabilityError) Is(target error) bool {
	return target == ErrUnsupportedCapability
}

// StateError reports a lifecycle method called in the wrong state.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: invalid in state %s", e.Op, e.State)
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// ArgumentError reports an argument rejected host-side.
type ArgumentError struct {
	Op     string
	Arg    string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Arg, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// IndexError reports a parameter index outside [0, Count).
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("parameter index %d out of range [0, %d)", e.Index, e.Count)
}

// ParamError reports a rejected parameter write.
type ParamError struct {
	Index int
	ID    vst3.ParamID
	Value float64
	Min   float64
	Max   float64
	Err   error
}

func (e *ParamError) Error() string {
	if errors.Is(e.Err, ErrOutOfRange) {
		return fmt.Sprintf("parameter %d: %g outside [%g, %g]", e.Index, e.Value, e.Min, e.Max)
	}
	return fmt.Sprintf("parameter %d: %v", e.Index, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

// ProcessError carries the result code of a failed native process call.
// An instance reuses a single ProcessError; copy Code if it must outlive
// the next Process call.
type ProcessError struct {
	Code vst3.Result
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("process: native error: %v (%d)", e.Code, int32(e.Code))
}

func (e *ProcessError) Unwrap() error { return e.Code }

// NativeError wraps a failed call into plugin code on the control path.
type NativeError struct {
	Op  string
	Err error
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NativeError) Unwrap() error { return e.Err }

func nativeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &NativeError{Op: op, Err: err}
}
