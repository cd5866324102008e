package bitio

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
)

// Writer accumulates bits MSB-first.
type Writer struct {
	buf []byte
	cur byte
	off int // bits used in cur
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// BitLen returns the number of bits written so far.
func (w *Writer) BitLen() int {
	return len(w.buf)*8 + w.off
}

// Buffer returns the bits written so far. The partial final byte is
// left-aligned and zero-padded. The Writer remains usable.
func (w *Writer) Buffer() Buffer {
	data := bytes.Clone(w.buf)
	if w.off == 0 {
		return Buffer{data: data}
	}
	return Buffer{data: append(data, w.cur), padding: uint8(8 - w.off)}
}

// WriteBits writes the low n bits of v, 1 <= n <= 64.
func (w *Writer) WriteBits(v uint64, n int) error {
	if n < 1 || n > 64 {
		return fmt.Errorf("%w: cannot write %d bits", ErrIllegalWidth, n)
	}
	for left := n; left > 0; {
		free := 8 - w.off
		take := min(free, left)
		chunk := byte(v>>(left-take)) & byte(1<<take-1)
		w.cur |= chunk << (free - take)
		w.off += take
		left -= take
		if w.off == 8 {
			w.buf = append(w.buf, w.cur)
			w.cur, w.off = 0, 0
		}
	}
	return nil
}

// WriteSigned writes v as an n-bit two's-complement value. v must fit.
func (w *Writer) WriteSigned(v int64, n int) error {
	if n < 1 || n > 64 {
		return fmt.Errorf("%w: cannot write %d bits", ErrIllegalWidth, n)
	}
	if n < 64 {
		lo, hi := int64(-1)<<(n-1), int64(1)<<(n-1)-1
		if v < lo || v > hi {
			return fmt.Errorf("%w: %d does not fit in %d signed bits", ErrOverflow, v, n)
		}
	}
	return w.WriteBits(uint64(v), n)
}

// WriteUnsigned writes a non-negative v in n bits.
func (w *Writer) WriteUnsigned(v int64, n int) error {
	if v < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeValue, v)
	}
	return w.WriteUint(uint64(v), n)
}

// WriteUint writes v in n bits. v must fit.
func (w *Writer) WriteUint(v uint64, n int) error {
	if n < 1 || n > 64 {
		return fmt.Errorf("%w: cannot write %d bits", ErrIllegalWidth, n)
	}
	if n < 64 && v>>n != 0 {
		return fmt.Errorf("%w: %d does not fit in %d unsigned bits", ErrOverflow, v, n)
	}
	return w.WriteBits(v, n)
}

// WriteBool writes a single bit.
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteBits(1, 1)
	}
	return w.WriteBits(0, 1)
}

// WriteByte writes eight bits. It lets a Writer act as an io.ByteWriter.
func (w *Writer) WriteByte(b byte) error {
	return w.WriteBits(uint64(b), 8)
}

// WriteBytes writes p at the current bit position.
func (w *Writer) WriteBytes(p []byte) error {
	for _, b := range p {
		if err := w.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}

// WriteInt8 writes v in at most 8 bits.
func (w *Writer) WriteInt8(v int8, bits int) error {
	if err := checkWidth(bits, 8); err != nil {
		return err
	}
	return w.WriteSigned(int64(v), bits)
}

// WriteInt16 writes v in at most 16 bits.
func (w *Writer) WriteInt16(v int16, bits int) error {
	if err := checkWidth(bits, 16); err != nil {
		return err
	}
	return w.WriteSigned(int64(v), bits)
}

// WriteInt32 writes v in at most 32 bits.
func (w *Writer) WriteInt32(v int32, bits int) error {
	if err := checkWidth(bits, 32); err != nil {
		return err
	}
	return w.WriteSigned(int64(v), bits)
}

// WriteInt64 writes v in at most 64 bits.
func (w *Writer) WriteInt64(v int64, bits int) error {
	return w.WriteSigned(v, bits)
}

// WriteUint8 writes v in at most 8 bits.
func (w *Writer) WriteUint8(v uint8, bits int) error {
	if err := checkWidth(bits, 8); err != nil {
		return err
	}
	return w.WriteUint(uint64(v), bits)
}

// WriteUint16 writes v in at most 16 bits.
func (w *Writer) WriteUint16(v uint16, bits int) error {
	if err := checkWidth(bits, 16); err != nil {
		return err
	}
	return w.WriteUint(uint64(v), bits)
}

// WriteUint32 writes v in at most 32 bits.
func (w *Writer) WriteUint32(v uint32, bits int) error {
	if err := checkWidth(bits, 32); err != nil {
		return err
	}
	return w.WriteUint(uint64(v), bits)
}

// WriteUint64 writes v in at most 64 bits.
func (w *Writer) WriteUint64(v uint64, bits int) error {
	return w.WriteUint(v, bits)
}

// WriteFloat32 writes the raw IEEE-754 bit pattern of v.
func (w *Writer) WriteFloat32(v float32) error {
	return w.WriteBits(uint64(math.Float32bits(v)), 32)
}

// WriteFloat64 writes the raw IEEE-754 bit pattern of v.
func (w *Writer) WriteFloat64(v float64) error {
	return w.WriteBits(math.Float64bits(v), 64)
}

// WriteBigInt writes v in two's complement. bits is rounded up to a whole
// number of bytes and v must fit the rounded width.
func (w *Writer) WriteBigInt(v *big.Int, bits int) error {
	if bits < 1 {
		return fmt.Errorf("%w: cannot write %d bits", ErrIllegalWidth, bits)
	}
	width := (bits + 7) / 8 * 8
	limit := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	if v.Cmp(limit) >= 0 || v.Cmp(new(big.Int).Neg(limit)) < 0 {
		return fmt.Errorf("%w: %s does not fit in %d signed bits", ErrOverflow, v, width)
	}
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return w.writeBig(u, width)
}

// WriteBigUint writes a non-negative v. bits is rounded up to a whole number
// of bytes and v must fit the rounded width.
func (w *Writer) WriteBigUint(v *big.Int, bits int) error {
	if bits < 1 {
		return fmt.Errorf("%w: cannot write %d bits", ErrIllegalWidth, bits)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeValue, v)
	}
	width := (bits + 7) / 8 * 8
	if v.BitLen() > width {
		return fmt.Errorf("%w: %s does not fit in %d unsigned bits", ErrOverflow, v, width)
	}
	return w.writeBig(v, width)
}

func (w *Writer) writeBig(u *big.Int, width int) error {
	raw := u.FillBytes(make([]byte, width/8))
	for _, n := range bigChunks(width) {
		var chunk uint64
		for _, b := range raw[:n/8] {
			chunk = chunk<<8 | uint64(b)
		}
		raw = raw[n/8:]
		if err := w.WriteBits(chunk, n); err != nil {
			return err
		}
	}
	return nil
}

// WriteUvarint writes v as unsigned LEB128.
func (w *Writer) WriteUvarint(v uint64) error {
	for v >= 0x80 {
		if err := w.WriteByte(byte(v) | 0x80); err != nil {
			return err
		}
		v >>= 7
	}
	return w.WriteByte(byte(v))
}

// WriteVarint writes v as signed LEB128.
func (w *Writer) WriteVarint(v int64) error {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		if err := w.WriteByte(b); err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
