package codec

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/holiman/uint256"

	"github.com/ssargent/bitspec/pkg/bitio"
)

// IntClass is the Go storage type of an integer field.
type IntClass int

const (
	Int8 IntClass = iota + 1
	Int16
	Int32
	Int64
	BigInt // *big.Int, up to 128 bits
	Uint8
	Uint16
	Uint32
	Uint64
	Uint256 // *uint256.Int, up to 256 bits
)

var intClassNames = map[IntClass]string{
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64", BigInt: "bigint",
	Uint8: "uint8", Uint16: "uint16", Uint32: "uint32", Uint64: "uint64", Uint256: "uint256",
}

var intClassTypes = map[IntClass]reflect.Type{
	Int8:    reflect.TypeOf(int8(0)),
	Int16:   reflect.TypeOf(int16(0)),
	Int32:   reflect.TypeOf(int32(0)),
	Int64:   reflect.TypeOf(int64(0)),
	BigInt:  reflect.TypeOf((*big.Int)(nil)),
	Uint8:   reflect.TypeOf(uint8(0)),
	Uint16:  reflect.TypeOf(uint16(0)),
	Uint32:  reflect.TypeOf(uint32(0)),
	Uint64:  reflect.TypeOf(uint64(0)),
	Uint256: reflect.TypeOf((*uint256.Int)(nil)),
}

func (c IntClass) String() string {
	if s, ok := intClassNames[c]; ok {
		return s
	}
	return fmt.Sprintf("IntClass(%d)", int(c))
}

// Valid reports whether c is a known class.
func (c IntClass) Valid() bool {
	_, ok := intClassNames[c]
	return ok
}

// Signed reports whether values of the class are two's complement.
func (c IntClass) Signed() bool {
	return c >= Int8 && c <= BigInt
}

// Big reports whether the class uses the arbitrary precision path.
func (c IntClass) Big() bool {
	return c == BigInt || c == Uint256
}

// MaxBits is the widest field the class can hold.
func (c IntClass) MaxBits() int {
	switch c {
	case Int8, Uint8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32:
		return 32
	case Int64, Uint64:
		return 64
	case BigInt:
		return 128
	case Uint256:
		return 256
	}
	return 0
}

// Type returns the Go type values of the class are decoded into.
func (c IntClass) Type() reflect.Type {
	return intClassTypes[c]
}

// ParseIntClass maps a class name such as "int16" or "uint256" to its class.
func ParseIntClass(s string) (IntClass, error) {
	for c, name := range intClassNames {
		if strings.EqualFold(s, name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown integer class %q", ErrSchema, s)
}

// ClassFor returns the narrowest class holding bits.
func ClassFor(bits int, signed bool) IntClass {
	classes := []IntClass{Uint8, Uint16, Uint32, Uint64, Uint256}
	if signed {
		classes = []IntClass{Int8, Int16, Int32, Int64, BigInt}
	}
	for _, c := range classes {
		if bits <= c.MaxBits() {
			return c
		}
	}
	return classes[len(classes)-1]
}

type integerCodec struct {
	bits  int
	class IntClass
}

// NewInteger returns a codec for a bits-wide integer stored as class.
// Native classes read and write exactly bits bits. BigInt and Uint256 round
// the width up to whole bytes on the wire.
func NewInteger(bits int, class IntClass) (Codec, error) {
	if !class.Valid() {
		return nil, fmt.Errorf("%w: unknown integer class %d", ErrSchema, int(class))
	}
	if bits < 1 {
		return nil, fmt.Errorf("%w: %d bits", ErrIllegalWidth, bits)
	}
	if bits > class.MaxBits() {
		return nil, fmt.Errorf("%w: %d bits into %s", ErrWidthTooNarrow, bits, class)
	}
	if class.Signed() && class.Big() && bits < 2 {
		return nil, fmt.Errorf("%w: %d bits for %s", ErrIllegalWidth, bits, class)
	}
	return &integerCodec{bits: bits, class: class}, nil
}

func (c *integerCodec) Read(r *bitio.Reader, _ Context) (any, error) {
	switch c.class {
	case BigInt:
		return r.ReadBigInt(c.bits)
	case Uint256:
		b, err := r.ReadBigUint(c.bits)
		if err != nil {
			return nil, err
		}
		u, _ := uint256.FromBig(b)
		return u, nil
	}

	if c.class.Signed() {
		v, err := r.ReadSigned(c.bits)
		if err != nil {
			return nil, err
		}
		return signedAs(c.class, v)
	}
	v, err := r.ReadBits(c.bits)
	if err != nil {
		return nil, err
	}
	return unsignedAs(c.class, v)
}

func (c *integerCodec) Write(w *bitio.Writer, v any) error {
	switch c.class {
	case BigInt:
		b, err := asBig(v)
		if err != nil {
			return err
		}
		limit := new(big.Int).Lsh(big.NewInt(1), uint(c.bits-1))
		if b.Cmp(limit) >= 0 || b.Cmp(new(big.Int).Neg(limit)) < 0 {
			return fmt.Errorf("%w: %s does not fit in %d signed bits", ErrOverflow, b, c.bits)
		}
		return w.WriteBigInt(b, c.bits)
	case Uint256:
		b, err := asBig(v)
		if err != nil {
			return err
		}
		if b.Sign() < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeValue, b)
		}
		if b.BitLen() > c.bits {
			return fmt.Errorf("%w: %s does not fit in %d unsigned bits", ErrOverflow, b, c.bits)
		}
		return w.WriteBigUint(b, c.bits)
	}

	if c.class.Signed() {
		i, err := asInt64(v)
		if err != nil {
			return err
		}
		return w.WriteSigned(i, c.bits)
	}
	u, err := asUint64(v)
	if err != nil {
		return err
	}
	return w.WriteUint(u, c.bits)
}

func (c *integerCodec) Default() any {
	switch c.class {
	case BigInt:
		return new(big.Int)
	case Uint256:
		return new(uint256.Int)
	}
	return reflect.Zero(c.class.Type()).Interface()
}

func (c *integerCodec) Type() reflect.Type { return c.class.Type() }

func (c *integerCodec) String() string {
	return fmt.Sprintf("%s(%d)", c.class, c.bits)
}

func signedAs(class IntClass, v int64) (any, error) {
	switch class {
	case Int8:
		return narrowSigned[int8](v)
	case Int16:
		return narrowSigned[int16](v)
	case Int32:
		return narrowSigned[int32](v)
	case Int64:
		return v, nil
	case BigInt:
		return big.NewInt(v), nil
	}
	return nil, fmt.Errorf("%w: %s is unsigned", ErrSchema, class)
}

func unsignedAs(class IntClass, v uint64) (any, error) {
	switch class {
	case Uint8:
		return narrowUnsigned[uint8](v)
	case Uint16:
		return narrowUnsigned[uint16](v)
	case Uint32:
		return narrowUnsigned[uint32](v)
	case Uint64:
		return v, nil
	case Uint256:
		return uint256.NewInt(v), nil
	}
	return nil, fmt.Errorf("%w: %s is signed", ErrSchema, class)
}

type varintCodec struct {
	class IntClass
}

// NewVarint returns a LEB128 codec. Signed classes use the signed encoding.
// Values read back are narrowed to class and fail with ErrOverflow when they
// do not fit.
func NewVarint(class IntClass) (Codec, error) {
	if !class.Valid() || class.Big() {
		return nil, fmt.Errorf("%w: varint cannot be stored as %s", ErrIllegalWidth, class)
	}
	return &varintCodec{class: class}, nil
}

func (c *varintCodec) Read(r *bitio.Reader, _ Context) (any, error) {
	if c.class.Signed() {
		v, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		return signedAs(c.class, v)
	}
	v, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	return unsignedAs(c.class, v)
}

func (c *varintCodec) Write(w *bitio.Writer, v any) error {
	if c.class.Signed() {
		i, err := asInt64(v)
		if err != nil {
			return err
		}
		if _, err := signedAs(c.class, i); err != nil {
			return err
		}
		return w.WriteVarint(i)
	}
	u, err := asUint64(v)
	if err != nil {
		return err
	}
	if _, err := unsignedAs(c.class, u); err != nil {
		return err
	}
	return w.WriteUvarint(u)
}

func (c *varintCodec) Default() any {
	return reflect.Zero(c.class.Type()).Interface()
}

func (c *varintCodec) Type() reflect.Type { return c.class.Type() }

func (c *varintCodec) String() string {
	if c.class.Signed() {
		return fmt.Sprintf("varint(%s)", c.class)
	}
	return fmt.Sprintf("uvarint(%s)", c.class)
}
