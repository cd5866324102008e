package codec

import (
	"fmt"
	"reflect"

	"github.com/ssargent/bitspec/pkg/bitio"
)

// Context resolves values of fields decoded earlier in the same record.
type Context interface {
	Lookup(name string) (any, bool)
}

// Codec reads and writes one field shape.
type Codec interface {
	// Read decodes one value. ctx may be nil when no Named length sources
	// are involved.
	Read(r *bitio.Reader, ctx Context) (any, error)
	// Write encodes v. Writers accept loosely typed input, see package docs.
	Write(w *bitio.Writer, v any) error
	// Default returns the value used for freshly generated records.
	Default() any
	// Type is the Go type Read produces.
	Type() reflect.Type
	// String describes the shape and its parameters.
	String() string
}

type emptyContext struct{}

func (emptyContext) Lookup(string) (any, bool) { return nil, false }

// NoContext is a Context with no fields.
var NoContext Context = emptyContext{}

// LengthSource tells a dynamic codec where its element count comes from.
type LengthSource struct {
	field  string
	bits   int
	signed bool
}

// DefaultAuto is an in-band 16-bit unsigned length prefix.
var DefaultAuto = Auto(16, false)

// Auto stores the length in-band, immediately before the data.
func Auto(bits int, signed bool) LengthSource {
	return LengthSource{bits: bits, signed: signed}
}

// Named reads the length from a field decoded earlier in the record.
func Named(field string) LengthSource {
	return LengthSource{field: field}
}

// IsNamed reports whether the length comes from a sibling field.
func (s LengthSource) IsNamed() bool { return s.field != "" }

// Field returns the referenced field name, or "" for Auto.
func (s LengthSource) Field() string { return s.field }

// Bits returns the in-band prefix width, or 0 for Named.
func (s LengthSource) Bits() int { return s.bits }

// Signed reports whether the in-band prefix is two's complement.
func (s LengthSource) Signed() bool { return s.signed }

func (s LengthSource) String() string {
	if s.IsNamed() {
		return "@" + s.field
	}
	if s.signed {
		return fmt.Sprintf("@auto(%d,signed)", s.bits)
	}
	return fmt.Sprintf("@auto(%d)", s.bits)
}

// Validate checks the source parameters.
func (s LengthSource) Validate() error {
	if s.IsNamed() {
		return nil
	}
	if s.bits < 1 || s.bits > 64 {
		return fmt.Errorf("%w: length prefix of %d bits", ErrSchema, s.bits)
	}
	if s.signed && s.bits < 2 {
		return fmt.Errorf("%w: signed length prefix needs at least 2 bits", ErrSchema)
	}
	return nil
}

func (s LengthSource) read(r *bitio.Reader, ctx Context) (int, error) {
	var n int64
	if s.IsNamed() {
		if ctx == nil {
			ctx = NoContext
		}
		v, ok := ctx.Lookup(s.field)
		if !ok {
			return 0, fmt.Errorf("%w: %q has not been decoded", ErrUnresolvedLengthField, s.field)
		}
		var err error
		if n, err = asInt64(v); err != nil {
			return 0, fmt.Errorf("%w: length field %q holds %T", ErrSchema, s.field, v)
		}
	} else if s.signed {
		v, err := r.ReadSigned(s.bits)
		if err != nil {
			return 0, err
		}
		n = v
	} else {
		v, err := r.ReadBits(s.bits)
		if err != nil {
			return 0, err
		}
		if v > uint64(maxInt) {
			return 0, fmt.Errorf("%w: length %d", ErrCorruptData, v)
		}
		n = int64(v)
	}

	if n < 0 {
		return 0, fmt.Errorf("%w: negative length %d", ErrCorruptData, n)
	}
	if n > int64(maxInt) {
		return 0, fmt.Errorf("%w: length %d", ErrCorruptData, n)
	}
	return int(n), nil
}

func (s LengthSource) write(w *bitio.Writer, n int) error {
	if s.IsNamed() {
		return nil
	}
	var err error
	if s.signed {
		err = w.WriteSigned(int64(n), s.bits)
	} else {
		err = w.WriteUint(uint64(n), s.bits)
	}
	if err != nil {
		return fmt.Errorf("%w: %d elements in %s", ErrLengthOverflow, n, s)
	}
	return nil
}

const maxInt = int(^uint(0) >> 1)

// presize caps slice preallocation for counts read from untrusted input.
func presize(n int, r *bitio.Reader) int {
	if rem := r.Remaining(); n > rem {
		return rem
	}
	return n
}

// Composite is implemented by codecs wrapping an element codec.
type Composite interface {
	Inner() Codec
}

// Sized is implemented by codecs taking their length from a LengthSource.
type Sized interface {
	LengthSource() LengthSource
}

// NamedLengths returns the sibling fields c and its element codecs read
// lengths from, outermost first.
func NamedLengths(c Codec) []string {
	var names []string
	for c != nil {
		if s, ok := c.(Sized); ok && s.LengthSource().IsNamed() {
			names = append(names, s.LengthSource().Field())
		}
		comp, ok := c.(Composite)
		if !ok {
			break
		}
		c = comp.Inner()
	}
	return names
}

// Must panics if err is non-nil. It is intended for statically declared
// layouts.
func Must(c Codec, err error) Codec {
	if err != nil {
		panic(err)
	}
	return c
}
