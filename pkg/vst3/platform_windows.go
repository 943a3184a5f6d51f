//go:build windows

package vst3

// COM HRESULT values, written as signed 32-bit integers.
const (
	ResultNoInterface     Result = -2147467262 // 0x80004002
	ResultInvalidArgument Result = -2147024809 // 0x80070057
	ResultNotImplemented  Result = -2147467263 // 0x80004001
	ResultInternalError   Result = -2147467259 // 0x80004005
	ResultNotInitialized  Result = -2147418113 // 0x8000FFFF
	ResultOutOfMemory     Result = -2147024882 // 0x8007000E
)

// platformOrder swaps between canonical order and the GUID layout: the
// first word and the two halves of the second word are little endian.
// The swap is its own inverse.
func platformOrder(b [16]byte) [16]byte {
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	b[4], b[5] = b[5], b[4]
	b[6], b[7] = b[7], b[6]
	return b
}
