package bitio

import (
	"fmt"
	"math"
	"math/big"
)

// MaxVarintLen64 is the longest LEB128 encoding of a 64-bit value.
const MaxVarintLen64 = 10

// TraceFunc observes every primitive bit group a Reader consumes.
type TraceFunc func(value uint64, bits int)

// Reader extracts bits MSB-first from a Buffer.
type Reader struct {
	data  []byte
	limit int // content bits
	pos   int // next bit to read
	trace TraceFunc
}

// NewReader returns a Reader positioned at the first bit of buf.
func NewReader(buf Buffer) *Reader {
	return &Reader{data: buf.data, limit: buf.BitLen()}
}

// Trace installs fn as the bit group observer. A nil fn removes it.
func (r *Reader) Trace(fn TraceFunc) {
	r.trace = fn
}

// Remaining returns the number of unread content bits.
func (r *Reader) Remaining() int {
	return r.limit - r.pos
}

// Consumed returns the number of bits read so far.
func (r *Reader) Consumed() int {
	return r.pos
}

// HasMore reports whether any content bits remain.
func (r *Reader) HasMore() bool {
	return r.pos < r.limit
}

// CanRead reports whether n more content bits are available.
func (r *Reader) CanRead(n int) bool {
	return n >= 0 && r.Remaining() >= n
}

// Span copies the content bits in [from, to) into a new Buffer without
// moving the read position or tracing.
func (r *Reader) Span(from, to int) (Buffer, error) {
	if from < 0 || to < from || to > r.limit {
		return Buffer{}, fmt.Errorf("%w: span [%d, %d) outside %d bits", ErrOutOfData, from, to, r.limit)
	}
	w := NewWriter()
	for i := from; i < to; i++ {
		bit := r.data[i>>3] >> (7 - i&7) & 1
		if err := w.WriteBits(uint64(bit), 1); err != nil {
			return Buffer{}, err
		}
	}
	return w.Buffer(), nil
}

// ReadBits reads n bits, 1 <= n <= 64, as an unsigned value.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n < 1 || n > 64 {
		return 0, fmt.Errorf("%w: cannot read %d bits", ErrIllegalWidth, n)
	}
	if !r.CanRead(n) {
		return 0, fmt.Errorf("%w: need %d bits at bit %d, %d remaining", ErrOutOfData, n, r.pos, r.Remaining())
	}

	var v uint64
	for left := n; left > 0; {
		avail := 8 - r.pos&7
		take := min(avail, left)
		chunk := uint64(r.data[r.pos>>3]>>(avail-take)) & (1<<take - 1)
		v = v<<take | chunk
		left -= take
		r.pos += take
	}

	if r.trace != nil {
		r.trace(v, n)
	}
	return v, nil
}

// ReadSigned reads n bits and sign-extends from bit n-1.
func (r *Reader) ReadSigned(n int) (int64, error) {
	v, err := r.ReadBits(n)
	if err != nil {
		return 0, err
	}
	shift := 64 - n
	return int64(v<<shift) >> shift, nil
}

// ReadBool reads a single bit.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

// ReadByte reads eight bits. It lets a Reader act as an io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	v, err := r.ReadBits(8)
	return byte(v), err
}

// ReadBytes reads n whole bytes, not necessarily byte-aligned.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative byte count %d", ErrCorruptData, n)
	}
	if !r.CanRead(n * 8) {
		return nil, fmt.Errorf("%w: need %d bytes at bit %d, %d bits remaining", ErrOutOfData, n, r.pos, r.Remaining())
	}
	out := make([]byte, n)
	for i := range out {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func checkWidth(bits, max int) error {
	if bits < 1 || bits > max {
		return fmt.Errorf("%w: %d bits outside [1, %d]", ErrIllegalWidth, bits, max)
	}
	return nil
}

// ReadInt8 reads a signed value of up to 8 bits.
func (r *Reader) ReadInt8(bits int) (int8, error) {
	if err := checkWidth(bits, 8); err != nil {
		return 0, err
	}
	v, err := r.ReadSigned(bits)
	return int8(v), err
}

// ReadInt16 reads a signed value of up to 16 bits.
func (r *Reader) ReadInt16(bits int) (int16, error) {
	if err := checkWidth(bits, 16); err != nil {
		return 0, err
	}
	v, err := r.ReadSigned(bits)
	return int16(v), err
}

// ReadInt32 reads a signed value of up to 32 bits.
func (r *Reader) ReadInt32(bits int) (int32, error) {
	if err := checkWidth(bits, 32); err != nil {
		return 0, err
	}
	v, err := r.ReadSigned(bits)
	return int32(v), err
}

// ReadInt64 reads a signed value of up to 64 bits.
func (r *Reader) ReadInt64(bits int) (int64, error) {
	return r.ReadSigned(bits)
}

// ReadUint8 reads an unsigned value of up to 8 bits.
func (r *Reader) ReadUint8(bits int) (uint8, error) {
	if err := checkWidth(bits, 8); err != nil {
		return 0, err
	}
	v, err := r.ReadBits(bits)
	return uint8(v), err
}

// ReadUint16 reads an unsigned value of up to 16 bits.
func (r *Reader) ReadUint16(bits int) (uint16, error) {
	if err := checkWidth(bits, 16); err != nil {
		return 0, err
	}
	v, err := r.ReadBits(bits)
	return uint16(v), err
}

// ReadUint32 reads an unsigned value of up to 32 bits.
func (r *Reader) ReadUint32(bits int) (uint32, error) {
	if err := checkWidth(bits, 32); err != nil {
		return 0, err
	}
	v, err := r.ReadBits(bits)
	return uint32(v), err
}

// ReadUint64 reads an unsigned value of up to 64 bits.
func (r *Reader) ReadUint64(bits int) (uint64, error) {
	return r.ReadBits(bits)
}

// ReadFloat32 reads a raw IEEE-754 single precision bit pattern.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadBits(32)
	return math.Float32frombits(uint32(v)), err
}

// ReadFloat64 reads a raw IEEE-754 double precision bit pattern.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadBits(64)
	return math.Float64frombits(v), err
}

// ReadBigInt reads a two's-complement integer. bits is rounded up to a whole
// number of bytes.
func (r *Reader) ReadBigInt(bits int) (*big.Int, error) {
	v, width, err := r.readBig(bits)
	if err != nil {
		return nil, err
	}
	if v.Bit(width-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return v, nil
}

// ReadBigUint reads an unsigned integer. bits is rounded up to a whole number
// of bytes.
func (r *Reader) ReadBigUint(bits int) (*big.Int, error) {
	v, _, err := r.readBig(bits)
	return v, err
}

func (r *Reader) readBig(bits int) (*big.Int, int, error) {
	if bits < 1 {
		return nil, 0, fmt.Errorf("%w: cannot read %d bits", ErrIllegalWidth, bits)
	}
	nbytes := (bits + 7) / 8
	width := nbytes * 8
	if !r.CanRead(width) {
		return nil, 0, fmt.Errorf("%w: need %d bits at bit %d, %d remaining", ErrOutOfData, width, r.pos, r.Remaining())
	}

	v := new(big.Int)
	for _, n := range bigChunks(width) {
		chunk, err := r.ReadBits(n)
		if err != nil {
			return nil, 0, err
		}
		v.Lsh(v, uint(n))
		v.Or(v, new(big.Int).SetUint64(chunk))
	}
	return v, width, nil
}

// bigChunks splits a byte-multiple width into MSB-first chunks of at most 64
// bits, the short chunk first.
func bigChunks(width int) []int {
	var chunks []int
	if head := width % 64; head != 0 {
		chunks = append(chunks, head)
	}
	for i := 0; i < width/64; i++ {
		chunks = append(chunks, 64)
	}
	return chunks
}

// ReadUvarint reads an unsigned LEB128 value.
func (r *Reader) ReadUvarint() (uint64, error) {
	var x uint64
	var s uint
	for i := 0; i < MaxVarintLen64; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b < 0x80 {
			if i == MaxVarintLen64-1 && b > 1 {
				return 0, fmt.Errorf("%w: uvarint exceeds 64 bits", ErrOverflow)
			}
			return x | uint64(b)<<s, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, fmt.Errorf("%w: uvarint longer than %d bytes", ErrOverflow, MaxVarintLen64)
}

// ReadVarint reads a signed LEB128 value.
func (r *Reader) ReadVarint() (int64, error) {
	var x int64
	var s uint
	for i := 0; i < MaxVarintLen64; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		x |= int64(b&0x7f) << s
		s += 7
		if b&0x80 == 0 {
			if i == MaxVarintLen64-1 && b != 0x00 && b != 0x7f {
				return 0, fmt.Errorf("%w: varint exceeds 64 bits", ErrOverflow)
			}
			if s < 64 && b&0x40 != 0 {
				x |= -1 << s
			}
			return x, nil
		}
	}
	return 0, fmt.Errorf("%w: varint longer than %d bytes", ErrOverflow, MaxVarintLen64)
}
