package codec

import (
	"fmt"
	"math/bits"
	"reflect"
	"strings"

	"github.com/ssargent/bitspec/pkg/bitio"
)

// EnumAutoBits selects the narrowest ordinal width addressing every variant.
const EnumAutoBits = 0

type enumCodec[E comparable] struct {
	bits     int
	variants []E
	ordinals map[E]int
}

// NewEnum returns a codec storing the ordinal of a value among variants.
func NewEnum[E comparable](width int, variants ...E) (Codec, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: enum without variants", ErrSchema)
	}

	need := max(bits.Len(uint(len(variants)-1)), 1)
	switch {
	case width == EnumAutoBits:
		width = need
	case width < 1 || width > 64:
		return nil, fmt.Errorf("%w: enum ordinal of %d bits", ErrIllegalWidth, width)
	case width < need:
		return nil, fmt.Errorf("%w: %d variants need %d bits, have %d", ErrWidthTooNarrow, len(variants), need, width)
	}

	c := &enumCodec[E]{
		bits:     width,
		variants: append([]E(nil), variants...),
		ordinals: make(map[E]int, len(variants)),
	}
	for i, v := range variants {
		if _, dup := c.ordinals[v]; dup {
			return nil, fmt.Errorf("%w: duplicate enum variant %v", ErrSchema, v)
		}
		c.ordinals[v] = i
	}
	return c, nil
}

// Bits returns the ordinal width.
func (c *enumCodec[E]) Bits() int { return c.bits }

func (c *enumCodec[E]) Read(r *bitio.Reader, _ Context) (any, error) {
	ord, err := r.ReadBits(c.bits)
	if err != nil {
		return nil, err
	}
	if ord >= uint64(len(c.variants)) {
		return nil, fmt.Errorf("%w: enum ordinal %d of %d variants", ErrCorruptData, ord, len(c.variants))
	}
	return c.variants[ord], nil
}

func (c *enumCodec[E]) Write(w *bitio.Writer, v any) error {
	ord, err := c.ordinal(v)
	if err != nil {
		return err
	}
	return w.WriteBits(uint64(ord), c.bits)
}

func (c *enumCodec[E]) ordinal(v any) (int, error) {
	if e, ok := v.(E); ok {
		if ord, ok := c.ordinals[e]; ok {
			return ord, nil
		}
		return 0, fmt.Errorf("%w: %v is not a variant", ErrIllegalContent, v)
	}
	// Decoded documents carry variants by name.
	if s, ok := v.(string); ok {
		for i, variant := range c.variants {
			if fmt.Sprint(variant) == s {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: %q is not a variant", ErrIllegalContent, s)
	}
	return 0, typeErr(v, c.Type().String())
}

func (c *enumCodec[E]) Default() any { return c.variants[0] }

func (c *enumCodec[E]) Type() reflect.Type {
	return reflect.TypeOf((*E)(nil)).Elem()
}

func (c *enumCodec[E]) String() string {
	names := make([]string, len(c.variants))
	for i, v := range c.variants {
		names[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("enum(%d)[%s]", c.bits, strings.Join(names, "|"))
}
