package codec

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/ssargent/bitspec/pkg/bitio"
)

var stringType = reflect.TypeOf("")

type terminatedString struct {
	term byte
}

// NewStringTerminated returns a codec for strings ended by term. The
// terminator must be an ASCII byte.
func NewStringTerminated(term byte) (Codec, error) {
	if term > 0x7f {
		return nil, fmt.Errorf("%w: terminator 0x%02x is not ASCII", ErrSchema, term)
	}
	return &terminatedString{term: term}, nil
}

// Read consumes bytes up to and including the terminator, or to the end of
// the stream when no terminator follows.
func (c *terminatedString) Read(r *bitio.Reader, _ Context) (any, error) {
	var buf []byte
	for r.HasMore() {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == c.term {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), nil
}

func (c *terminatedString) Write(w *bitio.Writer, v any) error {
	s, err := asString(v)
	if err != nil {
		return err
	}
	if i := bytes.IndexByte([]byte(s), c.term); i >= 0 {
		return fmt.Errorf("%w: terminator 0x%02x at offset %d", ErrIllegalContent, c.term, i)
	}
	if err := w.WriteBytes([]byte(s)); err != nil {
		return err
	}
	return w.WriteByte(c.term)
}

func (c *terminatedString) Default() any       { return "" }
func (c *terminatedString) Type() reflect.Type { return stringType }
func (c *terminatedString) String() string {
	return fmt.Sprintf("string-terminated(0x%02x)", c.term)
}

// FixedOptions controls how a fixed-length string handles mismatched input.
type FixedOptions struct {
	// Slice truncates input longer than the field instead of failing.
	Slice bool
	// AutoResize pads short input with NUL bytes instead of failing.
	AutoResize bool
	// CutPadding strips trailing NUL bytes on read. NULs that were part of
	// the original content are stripped as well.
	CutPadding bool
}

// DefaultFixedOptions pads short input and keeps trailing NULs on read.
var DefaultFixedOptions = FixedOptions{AutoResize: true}

type fixedString struct {
	length int
	opts   FixedOptions
}

// NewStringFixed returns a codec for strings occupying exactly length bytes.
func NewStringFixed(length int, opts FixedOptions) (Codec, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: negative string length %d", ErrSchema, length)
	}
	return &fixedString{length: length, opts: opts}, nil
}

func (c *fixedString) Read(r *bitio.Reader, _ Context) (any, error) {
	b, err := r.ReadBytes(c.length)
	if err != nil {
		return nil, err
	}
	if c.opts.CutPadding {
		b = bytes.TrimRight(b, "\x00")
	}
	return string(b), nil
}

func (c *fixedString) Write(w *bitio.Writer, v any) error {
	s, err := asString(v)
	if err != nil {
		return err
	}
	b := []byte(s)
	switch {
	case len(b) > c.length && c.opts.Slice:
		b = b[:c.length]
	case len(b) > c.length:
		return fmt.Errorf("%w: %d bytes into a %d byte field", ErrLengthMismatch, len(b), c.length)
	case len(b) < c.length && c.opts.AutoResize:
		b = append(b, make([]byte, c.length-len(b))...)
	case len(b) < c.length:
		return fmt.Errorf("%w: %d bytes into a %d byte field", ErrLengthMismatch, len(b), c.length)
	}
	return w.WriteBytes(b)
}

func (c *fixedString) Default() any {
	if c.opts.AutoResize {
		return ""
	}
	return string(make([]byte, c.length))
}

func (c *fixedString) Type() reflect.Type { return stringType }

func (c *fixedString) String() string {
	return fmt.Sprintf("string-fixed(%d,slice=%t,resize=%t,cut=%t)",
		c.length, c.opts.Slice, c.opts.AutoResize, c.opts.CutPadding)
}

type dynamicString struct {
	src LengthSource
}

// NewStringDynamic returns a codec for byte-length-prefixed strings.
func NewStringDynamic(src LengthSource) (Codec, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return &dynamicString{src: src}, nil
}

func (c *dynamicString) Read(r *bitio.Reader, ctx Context) (any, error) {
	n, err := c.src.read(r, ctx)
	if err != nil {
		return nil, err
	}
	b, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *dynamicString) Write(w *bitio.Writer, v any) error {
	s, err := asString(v)
	if err != nil {
		return err
	}
	if err := c.src.write(w, len(s)); err != nil {
		return err
	}
	return w.WriteBytes([]byte(s))
}

func (c *dynamicString) Default() any       { return "" }
func (c *dynamicString) Type() reflect.Type { return stringType }
func (c *dynamicString) String() string {
	return fmt.Sprintf("string-dynamic(%s)", c.src)
}

// LengthSource returns where the codec takes its length from.
func (c *dynamicString) LengthSource() LengthSource { return c.src }
