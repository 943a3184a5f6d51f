package native

import (
	"bytes"
	"unicode/utf16"
)

// cString decodes a fixed size, NUL terminated char array.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// string128 decodes a NUL terminated UTF-16 array such as String128.
func string128(units []uint16) string {
	for i, u := range units {
		if u == 0 {
			units = units[:i]
			break
		}
	}
	return string(utf16.Decode(units))
}
