//go:build !windows

package vst3

const (
	ResultNoInterface     Result = -1
	ResultInvalidArgument Result = 2
	ResultNotImplemented  Result = 3
	ResultInternalError   Result = 4
	ResultNotInitialized  Result = 5
	ResultOutOfMemory     Result = 6
)

// platformOrder converts between canonical and module byte order. Outside
// Windows ids are stored big endian, so this is the identity.
func platformOrder(b [16]byte) [16]byte {
	return b
}
