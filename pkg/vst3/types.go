// Package vst3 describes the host-side view of the VST3 binary contract:
// result codes, interface identifiers, the data structures exchanged with
// a plugin, and Go interfaces for the factory, component, audio processor
// and edit controller objects a module exposes.
//
// Nothing in this package talks to native code. The cgo bridge lives in
// package native; tests use the fakes in package host/hosttest.
package vst3

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Result is a VST3 tresult. Success is ResultOK; any other value is an
// error when returned from a call that is expected to succeed.
type Result int32

// Result codes shared by every platform. The failure codes differ between
// COM-compatible (Windows) and other builds and live in platform_*.go.
const (
	ResultOK    Result = 0
	ResultTrue  Result = 0 // Same as OK
	ResultFalse Result = 1
)

func (r Result) Error() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultFalse:
		return "false"
	case ResultNoInterface:
		return "no interface"
	case ResultInvalidArgument:
		return "invalid argument"
	case ResultNotImplemented:
		return "not implemented"
	case ResultInternalError:
		return "internal error"
	case ResultNotInitialized:
		return "not initialized"
	case ResultOutOfMemory:
		return "out of memory"
	default:
		return fmt.Sprintf("tresult %d", int32(r))
	}
}

// Err returns nil for ResultOK and r otherwise.
func (r Result) Err() error {
	if r == ResultOK {
		return nil
	}
	return r
}

// TUID is a 16 byte class or interface identifier in the byte order the
// module uses on this platform.
type TUID [16]byte

// InlineUID builds a TUID from the four 32-bit words used to declare ids
// in the SDK headers.
func InlineUID(l1, l2, l3, l4 uint32) TUID {
	var canon [16]byte
	for i, l := range [4]uint32{l1, l2, l3, l4} {
		canon[i*4] = byte(l >> 24)
		canon[i*4+1] = byte(l >> 16)
		canon[i*4+2] = byte(l >> 8)
		canon[i*4+3] = byte(l)
	}
	return TUID(platformOrder(canon))
}

// ParseTUID parses the textual form of a class id. It accepts the 32 digit
// form written to moduleinfo.json as well as dashed and braced UUIDs.
func ParseTUID(s string) (TUID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return TUID{}, fmt.Errorf("parse class id %q: %w", s, err)
	}
	return TUID(platformOrder(u)), nil
}

// UUID returns the id in canonical (big endian) order.
func (t TUID) UUID() uuid.UUID {
	return uuid.UUID(platformOrder(t))
}

// String returns the 32 upper-case hex digit form used by moduleinfo.json.
func (t TUID) String() string {
	canon := platformOrder(t)
	return strings.ToUpper(hex.EncodeToString(canon[:]))
}

// IsZero reports whether every byte of the id is zero.
func (t TUID) IsZero() bool {
	return t == TUID{}
}

// Interface IDs
var (
	IIDFUnknown          = InlineUID(0x00000000, 0x00000000, 0xC0000000, 0x00000046)
	IIDIPluginBase       = InlineUID(0x22888DDB, 0x156E45AE, 0x8358B348, 0x08190625)
	IIDIPluginFactory    = InlineUID(0x7A4D811C, 0x52114A1F, 0xAED9D2EE, 0x0B43BF9F)
	IIDIPluginFactory2   = InlineUID(0x0007B650, 0xF24B4C0B, 0xA464EDB9, 0xF00B2ABB)
	IIDIComponent        = InlineUID(0xE831FF31, 0xF2D54301, 0x928EBBEE, 0x25697802)
	IIDIAudioProcessor   = InlineUID(0x42043F99, 0xB7DA453C, 0xA569E79D, 0x9AAEC33D)
	IIDIEditController   = InlineUID(0xDCD7BBE3, 0x7742448D, 0xA874AACC, 0x979C759E)
	IIDIConnectionPoint  = InlineUID(0x70A4156F, 0x6E6E4026, 0x989148BF, 0xAA60D8D1)
	IIDIHostApplication  = InlineUID(0x58E595CC, 0xDB2D4969, 0x8B6AAF8C, 0x36A664E5)
	IIDIBStream          = InlineUID(0xC3BF6EA2, 0x30994752, 0x9B6BF990, 0x1EE33E9B)
	IIDIParameterChanges = InlineUID(0xA4779663, 0x0BB64A56, 0xB44384A8, 0x466FEB9D)
	IIDIParamValueQueue  = InlineUID(0x01263A18, 0xED074F6F, 0x98C9D356, 0x4686F9BA)
)

// MarshalText encodes the id in its String form.
func (t TUID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts any form ParseTUID does.
func (t *TUID) UnmarshalText(text []byte) error {
	id, err := ParseTUID(string(text))
	if err != nil {
		return err
	}
	*t = id
	return nil
}
