package codec

import (
	"errors"
	"fmt"

	"github.com/ssargent/bitspec/pkg/bitio"
)

// Stream errors raised by the bit reader and writer.
var (
	ErrOutOfData     = bitio.ErrOutOfData
	ErrIllegalWidth  = bitio.ErrIllegalWidth
	ErrNegativeValue = bitio.ErrNegativeValue
	ErrOverflow      = bitio.ErrOverflow
	ErrCorruptData   = bitio.ErrCorruptData
)

// Codec and record errors. All are terminal for the current pass.
var (
	ErrWidthTooNarrow        = fmt.Errorf("%w: storage class cannot hold the requested width", ErrIllegalWidth)
	ErrLengthOverflow        = fmt.Errorf("%w: length does not fit its prefix", ErrOverflow)
	ErrLengthMismatch        = errors.New("length mismatch")
	ErrDimensionMismatch     = errors.New("dimension mismatch")
	ErrSizeMismatch          = errors.New("size mismatch")
	ErrIllegalContent        = errors.New("illegal content")
	ErrUnresolvedLengthField = errors.New("unresolved length field")
	ErrTrailingData          = errors.New("trailing data after record")
	ErrSchema                = errors.New("schema error")
	ErrTypeMismatch          = errors.New("value type not accepted by codec")
)
