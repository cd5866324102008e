package bitio

import (
	"bytes"
	"fmt"
	"strings"
)

// Buffer is an immutable byte sequence plus the number of padding bits in its
// final byte.
type Buffer struct {
	data    []byte
	padding uint8
}

// NewBuffer validates padding against data and returns a Buffer that owns a
// copy of data.
func NewBuffer(data []byte, padding int) (Buffer, error) {
	if padding < 0 || padding > 7 {
		return Buffer{}, fmt.Errorf("%w: padding %d outside [0, 7]", ErrCorruptData, padding)
	}
	if padding > 0 && len(data) == 0 {
		return Buffer{}, fmt.Errorf("%w: padding %d on empty buffer", ErrCorruptData, padding)
	}
	return Buffer{data: bytes.Clone(data), padding: uint8(padding)}, nil
}

// FromBytes wraps byte-aligned data.
func FromBytes(data []byte) Buffer {
	return Buffer{data: bytes.Clone(data)}
}

// Bytes returns a copy of the underlying bytes, padding bits included.
func (b Buffer) Bytes() []byte {
	return bytes.Clone(b.data)
}

// Padding returns the number of unused bits at the end of the last byte.
func (b Buffer) Padding() int {
	return int(b.padding)
}

// Len returns the number of bytes.
func (b Buffer) Len() int {
	return len(b.data)
}

// BitLen returns the number of content bits.
func (b Buffer) BitLen() int {
	return len(b.data)*8 - int(b.padding)
}

// IsEmpty reports whether the buffer holds no content bits.
func (b Buffer) IsEmpty() bool {
	return b.BitLen() == 0
}

// Equal reports whether both buffers hold the same bytes and padding.
func (b Buffer) Equal(o Buffer) bool {
	return b.padding == o.padding && bytes.Equal(b.data, o.data)
}

// String renders the content bits in groups of four, e.g. "1010 0".
func (b Buffer) String() string {
	var sb strings.Builder
	n := b.BitLen()
	for i := 0; i < n; i++ {
		if i > 0 && i%4 == 0 {
			sb.WriteByte(' ')
		}
		if b.data[i>>3]&(0x80>>(i&7)) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
