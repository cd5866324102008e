package codec

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/ssargent/bitspec/pkg/bitio"
)

// WrapperKind selects how an optional value is represented in Go. The wire
// format is the same for every kind: a presence bit, then the inner value if
// the bit is set.
type WrapperKind int

const (
	Nullable    WrapperKind = iota // *T, or T itself when T is a pointer type
	OptionOf                       // Option
	NullInt32                      // sql.NullInt32
	NullInt64                      // sql.NullInt64
	NullFloat64                    // sql.NullFloat64
)

var wrapperKindNames = []string{"nullable", "option", "null-int32", "null-int64", "null-float64"}

func (k WrapperKind) String() string {
	if int(k) >= 0 && int(k) < len(wrapperKindNames) {
		return wrapperKindNames[k]
	}
	return fmt.Sprintf("WrapperKind(%d)", int(k))
}

// ParseWrapperKind maps a kind name such as "nullable" to its WrapperKind.
func ParseWrapperKind(s string) (WrapperKind, error) {
	for i, name := range wrapperKindNames {
		if strings.EqualFold(s, name) {
			return WrapperKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown optional kind %q", ErrSchema, s)
}

// Option is a possibly absent value.
type Option struct {
	Value any
	Valid bool
}

// Some returns a present Option.
func Some(v any) Option { return Option{Value: v, Valid: true} }

// None returns an absent Option.
func None() Option { return Option{} }

var (
	optionType      = reflect.TypeOf(Option{})
	nullInt32Type   = reflect.TypeOf(sql.NullInt32{})
	nullInt64Type   = reflect.TypeOf(sql.NullInt64{})
	nullFloat64Type = reflect.TypeOf(sql.NullFloat64{})
)

type optionalCodec struct {
	inner Codec
	kind  WrapperKind
	typ   reflect.Type
}

// NewOptional wraps inner with a presence bit. The primitive kinds require
// an inner codec producing exactly int32, int64 or float64.
func NewOptional(inner Codec, kind WrapperKind) (Codec, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: optional without inner codec", ErrSchema)
	}
	c := &optionalCodec{inner: inner, kind: kind}
	it := inner.Type()
	switch kind {
	case Nullable:
		c.typ = it
		if it.Kind() != reflect.Pointer {
			c.typ = reflect.PointerTo(it)
		}
	case OptionOf:
		c.typ = optionType
	case NullInt32:
		c.typ = nullInt32Type
		if it.Kind() != reflect.Int32 {
			return nil, fmt.Errorf("%w: %s needs an int32 codec, got %s", ErrSchema, kind, it)
		}
	case NullInt64:
		c.typ = nullInt64Type
		if it.Kind() != reflect.Int64 {
			return nil, fmt.Errorf("%w: %s needs an int64 codec, got %s", ErrSchema, kind, it)
		}
	case NullFloat64:
		c.typ = nullFloat64Type
		if it.Kind() != reflect.Float64 {
			return nil, fmt.Errorf("%w: %s needs a float64 codec, got %s", ErrSchema, kind, it)
		}
	default:
		return nil, fmt.Errorf("%w: unknown optional kind %d", ErrSchema, int(kind))
	}
	return c, nil
}

func (c *optionalCodec) Read(r *bitio.Reader, ctx Context) (any, error) {
	present, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return c.Default(), nil
	}
	v, err := c.inner.Read(r, ctx)
	if err != nil {
		return nil, err
	}
	return c.wrap(v)
}

func (c *optionalCodec) wrap(v any) (any, error) {
	switch c.kind {
	case OptionOf:
		return Some(v), nil
	case NullInt32:
		return sql.NullInt32{Int32: int32(reflect.ValueOf(v).Int()), Valid: true}, nil
	case NullInt64:
		return sql.NullInt64{Int64: reflect.ValueOf(v).Int(), Valid: true}, nil
	case NullFloat64:
		return sql.NullFloat64{Float64: reflect.ValueOf(v).Float(), Valid: true}, nil
	}
	if c.inner.Type().Kind() == reflect.Pointer {
		return v, nil
	}
	p := reflect.New(c.inner.Type())
	if err := setElem(p.Elem(), v); err != nil {
		return nil, err
	}
	return p.Interface(), nil
}

func (c *optionalCodec) Write(w *bitio.Writer, v any) error {
	inner, present := c.unwrap(v)
	if err := w.WriteBool(present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	return c.inner.Write(w, inner)
}

// unwrap splits v into the inner value and its presence. The codec's own
// wrapper type is matched first, so the outer layer of a nested optional
// never consumes the inner one.
func (c *optionalCodec) unwrap(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch c.kind {
	case OptionOf:
		switch x := v.(type) {
		case Option:
			return x.Value, x.Valid
		case *Option:
			if x == nil {
				return nil, false
			}
			return x.Value, x.Valid
		}
	case NullInt32:
		if x, ok := v.(sql.NullInt32); ok {
			return x.Int32, x.Valid
		}
	case NullInt64:
		if x, ok := v.(sql.NullInt64); ok {
			return x.Int64, x.Valid
		}
	case NullFloat64:
		if x, ok := v.(sql.NullFloat64); ok {
			return x.Float64, x.Valid
		}
	case Nullable:
		rv := reflect.ValueOf(v)
		it := c.inner.Type()
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, false
		}
		if it.Kind() != reflect.Pointer && rv.Type() == reflect.PointerTo(it) {
			return rv.Elem().Interface(), true
		}
		if rv.Type() == it {
			return v, true
		}
	}
	return unwrapLoose(v)
}

// unwrapLoose accepts every wrapper kind, pointers and bare values.
func unwrapLoose(v any) (any, bool) {
	switch x := v.(type) {
	case Option:
		return x.Value, x.Valid
	case *Option:
		if x == nil {
			return nil, false
		}
		return x.Value, x.Valid
	case sql.NullInt32:
		return x.Int32, x.Valid
	case sql.NullInt64:
		return x.Int64, x.Valid
	case sql.NullFloat64:
		return x.Float64, x.Valid
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		// Pointer-typed inner values such as *big.Int are passed through.
		if k := rv.Elem().Kind(); k != reflect.Struct && k != reflect.Array {
			return rv.Elem().Interface(), true
		}
	}
	return v, true
}

func (c *optionalCodec) Default() any {
	return reflect.Zero(c.typ).Interface()
}

func (c *optionalCodec) Type() reflect.Type { return c.typ }

func (c *optionalCodec) Inner() Codec { return c.inner }

// Kind returns the wrapper kind.
func (c *optionalCodec) Kind() WrapperKind { return c.kind }

func (c *optionalCodec) String() string {
	return fmt.Sprintf("optional[%s](%s)", c.kind, c.inner)
}
