package layout

import (
	"fmt"
	"reflect"

	"github.com/ssargent/bitspec/pkg/codec"
)

// Field binds a name to a codec.
type Field struct {
	Name  string
	Codec codec.Codec
}

// Type is the Go type the field decodes into.
func (f Field) Type() reflect.Type {
	return f.Codec.Type()
}

func (f Field) String() string {
	return fmt.Sprintf("%s:%s", f.Name, f.Codec)
}

// FieldError reports the field a pass failed on.
type FieldError struct {
	Layout string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("layout %s: field %s: %v", e.Layout, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Builder collects fields and validates them on Build.
type Builder struct {
	name   string
	fields []Field
}

// NewBuilder starts a layout called name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Field appends a field.
func (b *Builder) Field(name string, c codec.Codec) *Builder {
	b.fields = append(b.fields, Field{Name: name, Codec: c})
	return b
}

// Build validates the fields and returns the layout.
func (b *Builder) Build() (*Layout, error) {
	return New(b.name, b.fields...)
}
