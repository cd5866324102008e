package codec

import (
	"reflect"

	"github.com/ssargent/bitspec/pkg/bitio"
)

type boolCodec struct{}

// NewBool returns a single-bit boolean codec.
func NewBool() Codec { return boolCodec{} }

func (boolCodec) Read(r *bitio.Reader, _ Context) (any, error) {
	return r.ReadBool()
}

func (boolCodec) Write(w *bitio.Writer, v any) error {
	b, err := asBool(v)
	if err != nil {
		return err
	}
	return w.WriteBool(b)
}

func (boolCodec) Default() any       { return false }
func (boolCodec) Type() reflect.Type { return reflect.TypeOf(false) }
func (boolCodec) String() string     { return "bool" }

type float32Codec struct{}

// NewFloat32 returns a codec for raw IEEE-754 single precision values.
func NewFloat32() Codec { return float32Codec{} }

func (float32Codec) Read(r *bitio.Reader, _ Context) (any, error) {
	return r.ReadFloat32()
}

func (float32Codec) Write(w *bitio.Writer, v any) error {
	if f, ok := v.(float32); ok {
		return w.WriteFloat32(f)
	}
	f, err := asFloat64(v)
	if err != nil {
		return err
	}
	return w.WriteFloat32(float32(f))
}

func (float32Codec) Default() any       { return float32(0) }
func (float32Codec) Type() reflect.Type { return reflect.TypeOf(float32(0)) }
func (float32Codec) String() string     { return "float32" }

type float64Codec struct{}

// NewFloat64 returns a codec for raw IEEE-754 double precision values.
func NewFloat64() Codec { return float64Codec{} }

func (float64Codec) Read(r *bitio.Reader, _ Context) (any, error) {
	return r.ReadFloat64()
}

func (float64Codec) Write(w *bitio.Writer, v any) error {
	f, err := asFloat64(v)
	if err != nil {
		return err
	}
	return w.WriteFloat64(f)
}

func (float64Codec) Default() any       { return float64(0) }
func (float64Codec) Type() reflect.Type { return reflect.TypeOf(float64(0)) }
func (float64Codec) String() string     { return "float64" }
