//go:build fuzz
// +build fuzz

package bitio

import (
	"bytes"
	"testing"
)

// FuzzReadFrame checks that arbitrary input never panics the frame decoder
// and that accepted frames re-encode to the same bytes.
func FuzzReadFrame(f *testing.F) {
	seed, _ := FromBytes([]byte{0x01, 0x02}).MarshalBinary()
	f.Add(seed)
	f.Add([]byte{})
	f.Add([]byte{0, 0, 0, 0, 9, 0, 0, 0, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		buf, err := ReadFrame(bytes.NewReader(data), 1<<16)
		if err != nil {
			return
		}
		frame, err := buf.MarshalBinary()
		if err != nil {
			t.Fatalf("re-encode failed: %v", err)
		}
		if !bytes.Equal(frame, data[:len(frame)]) {
			t.Fatalf("re-encoded frame differs")
		}
	})
}

// FuzzReader_Varints checks that varint decoding never panics and never
// consumes more than MaxVarintLen64 bytes.
func FuzzReader_Varints(f *testing.F) {
	f.Add([]byte{0xB9, 0x60})
	f.Add(bytes.Repeat([]byte{0xFF}, 11))

	f.Fuzz(func(t *testing.T, data []byte) {
		r := NewReader(FromBytes(data))
		if _, err := r.ReadUvarint(); err == nil && r.Consumed() > MaxVarintLen64*8 {
			t.Fatalf("consumed %d bits", r.Consumed())
		}
		r = NewReader(FromBytes(data))
		if _, err := r.ReadVarint(); err == nil && r.Consumed() > MaxVarintLen64*8 {
			t.Fatalf("consumed %d bits", r.Consumed())
		}
	})
}
