package codec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a codec for one shape. inner is nil for scalar shapes.
type Factory func(p Params, inner Codec) (Codec, error)

// Shape describes a registered factory.
type Shape struct {
	Name       string
	Structural bool // requires an inner codec
	Factory    Factory
}

var errDuplicatedShape = errors.New("duplicated shape")

// Registry maps shape names to factories. It is safe for concurrent use.
type Registry struct {
	lock   sync.RWMutex
	shapes map[string]Shape
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{shapes: map[string]Shape{}}
}

// NewDefaultRegistry returns a registry holding every built-in shape.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range builtinShapes() {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a shape. Registering a name twice is an error.
func (r *Registry) Register(s Shape) error {
	if s.Name == "" || s.Factory == nil {
		return fmt.Errorf("%w: shape needs a name and a factory", ErrSchema)
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, exists := r.shapes[s.Name]; exists {
		return fmt.Errorf("%w: %q", errDuplicatedShape, s.Name)
	}
	r.shapes[s.Name] = s
	return nil
}

// Lookup returns the shape registered under name.
func (r *Registry) Lookup(name string) (Shape, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	s, ok := r.shapes[name]
	return s, ok
}

// Build validates the parameters of shape and constructs its codec.
func (r *Registry) Build(shape string, p Params, inner Codec) (Codec, error) {
	s, ok := r.Lookup(shape)
	if !ok {
		return nil, fmt.Errorf("%w: unknown shape %q", ErrSchema, shape)
	}
	if s.Structural && inner == nil {
		return nil, fmt.Errorf("%w: %s needs an element codec", ErrSchema, shape)
	}
	if !s.Structural && inner != nil {
		return nil, fmt.Errorf("%w: %s takes no element codec", ErrSchema, shape)
	}
	if p == nil {
		p = MapParams(nil)
	}
	c, err := s.Factory(p, inner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", shape, err)
	}
	return c, nil
}

// Names returns the registered shape names in order.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	names := make([]string, 0, len(r.shapes))
	for name := range r.shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkKeys(p Params, allowed ...string) error {
	var unknown []string
	for _, k := range p.Keys() {
		found := false
		for _, a := range allowed {
			if k == a {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: unknown parameters %s", ErrSchema, strings.Join(unknown, ", "))
	}
	return nil
}

// AutoLength is the length parameter value selecting an in-band prefix.
const AutoLength = "@auto"

// lengthParam reads "length", "auto-bits" and "signed".
func lengthParam(p Params) (LengthSource, error) {
	length, err := p.String("length", AutoLength)
	if err != nil {
		return LengthSource{}, err
	}
	if length != AutoLength {
		if p.Has("auto-bits") || p.Has("signed") {
			return LengthSource{}, fmt.Errorf("%w: auto-bits and signed only apply to %s lengths", ErrSchema, AutoLength)
		}
		return Named(strings.TrimPrefix(length, "@")), nil
	}
	bits, err := p.Int("auto-bits", DefaultAuto.Bits())
	if err != nil {
		return LengthSource{}, err
	}
	signed, err := p.Bool("signed", false)
	if err != nil {
		return LengthSource{}, err
	}
	src := Auto(bits, signed)
	return src, src.Validate()
}

func intClassParam(p Params, bits int, signed bool) (IntClass, error) {
	name, err := p.String("class", "")
	if err != nil {
		return 0, err
	}
	if name == "" {
		return ClassFor(bits, signed), nil
	}
	class, err := ParseIntClass(name)
	if err != nil {
		return 0, err
	}
	if class.Signed() != signed {
		return 0, fmt.Errorf("%w: class %s has the wrong signedness", ErrSchema, class)
	}
	return class, nil
}

func integerShape(signed bool) Factory {
	return func(p Params, _ Codec) (Codec, error) {
		if err := checkKeys(p, "bits", "class"); err != nil {
			return nil, err
		}
		bits, err := p.Int("bits", 32)
		if err != nil {
			return nil, err
		}
		class, err := intClassParam(p, bits, signed)
		if err != nil {
			return nil, err
		}
		return NewInteger(bits, class)
	}
}

func varintShape(signed bool) Factory {
	return func(p Params, _ Codec) (Codec, error) {
		if err := checkKeys(p, "class"); err != nil {
			return nil, err
		}
		class, err := intClassParam(p, 64, signed)
		if err != nil {
			return nil, err
		}
		return NewVarint(class)
	}
}

func noParams(build func() Codec) Factory {
	return func(p Params, _ Codec) (Codec, error) {
		if err := checkKeys(p); err != nil {
			return nil, err
		}
		return build(), nil
	}
}

func builtinShapes() []Shape {
	return []Shape{
		{Name: "bool", Factory: noParams(NewBool)},
		{Name: "int", Factory: integerShape(true)},
		{Name: "uint", Factory: integerShape(false)},
		{Name: "varint", Factory: varintShape(true)},
		{Name: "uvarint", Factory: varintShape(false)},
		{Name: "float32", Factory: noParams(NewFloat32)},
		{Name: "float64", Factory: noParams(NewFloat64)},
		{Name: "string-terminated", Factory: func(p Params, _ Codec) (Codec, error) {
			if err := checkKeys(p, "terminator"); err != nil {
				return nil, err
			}
			term, err := p.Int("terminator", 0)
			if err != nil {
				return nil, err
			}
			if term < 0 || term > 0xff {
				return nil, fmt.Errorf("%w: terminator %d is not a byte", ErrSchema, term)
			}
			return NewStringTerminated(byte(term))
		}},
		{Name: "string-fixed", Factory: func(p Params, _ Codec) (Codec, error) {
			if err := checkKeys(p, "size", "slice", "auto-resize", "cut-padding"); err != nil {
				return nil, err
			}
			if !p.Has("size") {
				return nil, fmt.Errorf("%w: missing size", ErrSchema)
			}
			size, err := p.Int("size", 0)
			if err != nil {
				return nil, err
			}
			var opts FixedOptions
			if opts.Slice, err = p.Bool("slice", DefaultFixedOptions.Slice); err != nil {
				return nil, err
			}
			if opts.AutoResize, err = p.Bool("auto-resize", DefaultFixedOptions.AutoResize); err != nil {
				return nil, err
			}
			if opts.CutPadding, err = p.Bool("cut-padding", DefaultFixedOptions.CutPadding); err != nil {
				return nil, err
			}
			return NewStringFixed(size, opts)
		}},
		{Name: "string-dynamic", Factory: func(p Params, _ Codec) (Codec, error) {
			if err := checkKeys(p, "length", "auto-bits", "signed"); err != nil {
				return nil, err
			}
			src, err := lengthParam(p)
			if err != nil {
				return nil, err
			}
			return NewStringDynamic(src)
		}},
		{Name: "enum", Factory: func(p Params, _ Codec) (Codec, error) {
			if err := checkKeys(p, "bits", "variants"); err != nil {
				return nil, err
			}
			bits, err := p.Int("bits", EnumAutoBits)
			if err != nil {
				return nil, err
			}
			variants, err := p.Strings("variants")
			if err != nil {
				return nil, err
			}
			return NewEnum(bits, variants...)
		}},
		{Name: "array", Structural: true, Factory: func(p Params, inner Codec) (Codec, error) {
			if err := checkKeys(p, "dims", "length", "auto-bits", "signed"); err != nil {
				return nil, err
			}
			if p.Has("dims") {
				if p.Has("length") {
					return nil, fmt.Errorf("%w: dims and length are exclusive", ErrSchema)
				}
				dims, err := p.Ints("dims")
				if err != nil {
					return nil, err
				}
				return NewArrayFixed(dims, inner)
			}
			src, err := lengthParam(p)
			if err != nil {
				return nil, err
			}
			return NewArrayDynamic(src, inner)
		}},
		{Name: "list", Structural: true, Factory: func(p Params, inner Codec) (Codec, error) {
			if err := checkKeys(p, "count", "length", "auto-bits", "signed", "kind"); err != nil {
				return nil, err
			}
			name, err := p.String("kind", ListSlice.String())
			if err != nil {
				return nil, err
			}
			kind, err := ParseListKind(name)
			if err != nil {
				return nil, err
			}
			if p.Has("count") {
				if p.Has("length") {
					return nil, fmt.Errorf("%w: count and length are exclusive", ErrSchema)
				}
				count, err := p.Int("count", 0)
				if err != nil {
					return nil, err
				}
				return NewListFixed(count, inner, kind)
			}
			src, err := lengthParam(p)
			if err != nil {
				return nil, err
			}
			return NewListDynamic(src, inner, kind)
		}},
		{Name: "set", Structural: true, Factory: func(p Params, inner Codec) (Codec, error) {
			if err := checkKeys(p, "count", "length", "auto-bits", "signed", "kind"); err != nil {
				return nil, err
			}
			name, err := p.String("kind", SetHash.String())
			if err != nil {
				return nil, err
			}
			kind, err := ParseSetKind(name)
			if err != nil {
				return nil, err
			}
			if p.Has("count") {
				if p.Has("length") {
					return nil, fmt.Errorf("%w: count and length are exclusive", ErrSchema)
				}
				count, err := p.Int("count", 0)
				if err != nil {
					return nil, err
				}
				return NewSetFixed(count, inner, kind)
			}
			src, err := lengthParam(p)
			if err != nil {
				return nil, err
			}
			return NewSetDynamic(src, inner, kind)
		}},
		{Name: "optional", Structural: true, Factory: func(p Params, inner Codec) (Codec, error) {
			if err := checkKeys(p, "kind"); err != nil {
				return nil, err
			}
			name, err := p.String("kind", Nullable.String())
			if err != nil {
				return nil, err
			}
			kind, err := ParseWrapperKind(name)
			if err != nil {
				return nil, err
			}
			return NewOptional(inner, kind)
		}},
	}
}
