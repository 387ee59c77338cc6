package unsafe

import (
	"bytes"
	"reflect"
	"unsafe"
)

// B2S converts a byte slice to a string without memory allocation.
// Note: The returned string must not be modified, as it points to the same
// memory as the byte slice.
func B2S(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// S2B converts a string to a byte slice without memory allocation.
// Note: The returned byte slice must not be modified, as it points to the same
// memory as the string.
func S2B(s string) []byte {
	sh := (*reflect.StringHeader)(unsafe.Pointer(&s))
	bh := reflect.SliceHeader{
		Data: sh.Data,
		Len:  sh.Len,
		Cap:  sh.Len,
	}
	return *(*[]byte)(unsafe.Pointer(&bh))
}

// EqualBytes compares a byte slice with a string without allocating, used
// on the wildcat-parsed header values httpparser.Codec pulls straight off
// the wire (see Codec.GetContentLength), where converting to a string just
// to throw it away after one comparison would be wasted work.
func EqualBytes(a []byte, b string) bool {
	bBytes := S2B(b)
	if len(a) != len(bBytes) {
		return false
	}

	// Fast path for empty strings
	if len(a) == 0 {
		return true
	}

	// Fast path for single character comparison
	if len(a) == 1 {
		return a[0] == bBytes[0]
	}

	// Use bytes.Equal for the comparison
	return bytes.Equal(a, bBytes)
}
