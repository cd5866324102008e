package codec

import (
	"container/list"
	"fmt"
	"reflect"
	"strings"

	"github.com/ssargent/bitspec/pkg/bitio"
)

type fixedArray struct {
	dims  []int
	inner Codec
	typ   reflect.Type
}

// NewArrayFixed returns a codec for a multi-dimensional array of the given
// shape, stored row-major. Values are nested slices of inner.Type().
func NewArrayFixed(dims []int, inner Codec) (Codec, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: array without element codec", ErrSchema)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: array without dimensions", ErrSchema)
	}
	for _, d := range dims {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative array dimension %d", ErrSchema, d)
		}
	}
	typ := inner.Type()
	for range dims {
		typ = reflect.SliceOf(typ)
	}
	return &fixedArray{dims: append([]int(nil), dims...), inner: inner, typ: typ}, nil
}

func (c *fixedArray) Read(r *bitio.Reader, ctx Context) (any, error) {
	v, err := c.read(r, ctx, 0, c.typ)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (c *fixedArray) read(r *bitio.Reader, ctx Context, depth int, typ reflect.Type) (reflect.Value, error) {
	n := c.dims[depth]
	out := reflect.MakeSlice(typ, n, n)
	for i := 0; i < n; i++ {
		if depth+1 < len(c.dims) {
			sub, err := c.read(r, ctx, depth+1, typ.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(sub)
			continue
		}
		v, err := c.inner.Read(r, ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := setElem(out.Index(i), v); err != nil {
			return reflect.Value{}, err
		}
	}
	return out, nil
}

func (c *fixedArray) Write(w *bitio.Writer, v any) error {
	return c.write(w, reflect.ValueOf(v), 0, nil)
}

func (c *fixedArray) write(w *bitio.Writer, v reflect.Value, depth int, path []int) error {
	for v.IsValid() && v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return fmt.Errorf("%w: expected %d-element sequence at %s, got %s",
			ErrDimensionMismatch, c.dims[depth], indexPath(path), kindOf(v))
	}
	if v.Len() != c.dims[depth] {
		return fmt.Errorf("%w: expected %d elements at %s, got %d",
			ErrDimensionMismatch, c.dims[depth], indexPath(path), v.Len())
	}
	for i := 0; i < v.Len(); i++ {
		if depth+1 < len(c.dims) {
			if err := c.write(w, v.Index(i), depth+1, append(path, i)); err != nil {
				return err
			}
			continue
		}
		if err := c.inner.Write(w, v.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (c *fixedArray) Default() any {
	return c.fill(0, c.typ).Interface()
}

func (c *fixedArray) fill(depth int, typ reflect.Type) reflect.Value {
	n := c.dims[depth]
	out := reflect.MakeSlice(typ, n, n)
	for i := 0; i < n; i++ {
		if depth+1 < len(c.dims) {
			out.Index(i).Set(c.fill(depth+1, typ.Elem()))
		} else if err := setElem(out.Index(i), c.inner.Default()); err != nil {
			// An element codec's default always has its own Type.
			panic(err)
		}
	}
	return out
}

func (c *fixedArray) Type() reflect.Type { return c.typ }
func (c *fixedArray) Inner() Codec       { return c.inner }

// Dims returns the declared shape.
func (c *fixedArray) Dims() []int { return append([]int(nil), c.dims...) }

func (c *fixedArray) String() string {
	dims := make([]string, len(c.dims))
	for i, d := range c.dims {
		dims[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("array[%s](%s)", strings.Join(dims, "x"), c.inner)
}

type dynamicArray struct {
	src   LengthSource
	inner Codec
	typ   reflect.Type
}

// NewArrayDynamic returns a codec for a one-dimensional array whose length
// comes from src.
func NewArrayDynamic(src LengthSource, inner Codec) (Codec, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: array without element codec", ErrSchema)
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return &dynamicArray{src: src, inner: inner, typ: reflect.SliceOf(inner.Type())}, nil
}

func (c *dynamicArray) Read(r *bitio.Reader, ctx Context) (any, error) {
	n, err := c.src.read(r, ctx)
	if err != nil {
		return nil, err
	}
	out := reflect.MakeSlice(c.typ, 0, presize(n, r))
	for i := 0; i < n; i++ {
		v, err := c.inner.Read(r, ctx)
		if err != nil {
			return nil, err
		}
		out = reflect.Append(out, reflect.Zero(c.typ.Elem()))
		if err := setElem(out.Index(i), v); err != nil {
			return nil, err
		}
	}
	return out.Interface(), nil
}

func (c *dynamicArray) Write(w *bitio.Writer, v any) error {
	items, err := sequence(v)
	if err != nil {
		return err
	}
	if err := c.src.write(w, len(items)); err != nil {
		return err
	}
	for _, item := range items {
		if err := c.inner.Write(w, item); err != nil {
			return err
		}
	}
	return nil
}

func (c *dynamicArray) Default() any               { return reflect.MakeSlice(c.typ, 0, 0).Interface() }
func (c *dynamicArray) Type() reflect.Type         { return c.typ }
func (c *dynamicArray) Inner() Codec               { return c.inner }
func (c *dynamicArray) LengthSource() LengthSource { return c.src }
func (c *dynamicArray) String() string {
	return fmt.Sprintf("array[%s](%s)", c.src, c.inner)
}

// setElem stores v into dst, converting between compatible types.
func setElem(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case rv.Type().ConvertibleTo(dst.Type()):
		dst.Set(rv.Convert(dst.Type()))
	default:
		return fmt.Errorf("%w: cannot store %s as %s", ErrTypeMismatch, rv.Type(), dst.Type())
	}
	return nil
}

// sequence flattens any supported container into its elements in order.
func sequence(v any) ([]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return x, nil
	case *list.List:
		if x == nil {
			return nil, nil
		}
		items := make([]any, 0, x.Len())
		for e := x.Front(); e != nil; e = e.Next() {
			items = append(items, e.Value)
		}
		return items, nil
	case FrozenList:
		return x.Items(), nil
	case *OrderedSet:
		return x.Items(), nil
	case FrozenSet:
		return x.Items(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, nil
	}
	return nil, typeErr(v, "a sequence")
}

func indexPath(path []int) string {
	if len(path) == 0 {
		return "top level"
	}
	var sb strings.Builder
	for _, i := range path {
		fmt.Fprintf(&sb, "[%d]", i)
	}
	return sb.String()
}

func kindOf(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}
