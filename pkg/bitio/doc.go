// Package bitio provides bit-granular reading and writing over in-memory
// byte buffers.
//
// All multi-bit values are transferred MSB-first and may straddle byte
// boundaries. A Writer accumulates bits and produces an immutable Buffer; the
// final partial byte is left-aligned and zero-padded on the right, and the
// number of padding bits is recorded in the Buffer. A Reader never treats
// those padding bits as readable content.
//
// # Buffers
//
// A Buffer is the pair (bytes, padding) with padding in [0, 7], and padding
// is zero for an empty buffer. The padding count cannot be recovered from the
// bytes alone, so anything that persists a Buffer must persist both. The
// framed form produced by MarshalBinary does this:
//
//	[CRC32(4)][Padding(1)][Size(4)][Data]
//
// CRC32 (IEEE, little-endian) covers the padding byte, the size and the data.
//
// # Usage
//
//	w := bitio.NewWriter()
//	_ = w.WriteBool(true)
//	_ = w.WriteSigned(-1, 4)
//	buf := w.Buffer()
//
//	r := bitio.NewReader(buf)
//	flag, _ := r.ReadBool()
//	v, _ := r.ReadSigned(4)
//
// # Integers
//
// Widths from 1 to 64 bits are handled natively. ReadBigInt and WriteBigInt
// handle arbitrary widths by rounding the width up to a whole number of bytes
// and transferring the two's-complement representation in chunks of at most
// 64 bits. LEB128 varints are available through ReadUvarint/WriteUvarint and
// ReadVarint/WriteVarint; the signed form sign-extends from bit 6 of the final
// byte.
//
// # Thread Safety
//
// Buffers are immutable and safe to share. Readers and Writers hold a cursor
// and must not be used from more than one goroutine at a time. A Reader or
// Writer that returned an error should be discarded.
package bitio
