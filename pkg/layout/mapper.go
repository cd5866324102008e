package layout

import (
	"fmt"
	"reflect"

	"github.com/ssargent/bitspec/pkg/bitio"
	"github.com/ssargent/bitspec/pkg/codec"
)

// Accessor moves one field between a Go value of type T and a Record.
type Accessor[T any] struct {
	Field string
	Get   func(*T) any
	Set   func(*T, any) error
}

// Value builds an Accessor for a field whose decoded type is V.
func Value[T, V any](field string, get func(*T) V, set func(*T, V)) Accessor[T] {
	return Accessor[T]{
		Field: field,
		Get:   func(t *T) any { return get(t) },
		Set: func(t *T, v any) error {
			tv, ok := v.(V)
			if !ok {
				return fmt.Errorf("%w: field %s: got %T, want %s",
					codec.ErrTypeMismatch, field, v, reflect.TypeOf((*V)(nil)).Elem())
			}
			set(t, tv)
			return nil
		},
	}
}

// Mapper encodes and decodes T through a layout with explicit accessors.
type Mapper[T any] struct {
	layout    *Layout
	accessors []Accessor[T]
}

// Bind pairs l with one accessor per layout field.
func Bind[T any](l *Layout, accessors ...Accessor[T]) (*Mapper[T], error) {
	byField := make(map[string]Accessor[T], len(accessors))
	for _, a := range accessors {
		if _, ok := l.index[a.Field]; !ok {
			return nil, fmt.Errorf("%w: layout %s has no field %s", codec.ErrSchema, l.name, a.Field)
		}
		if _, dup := byField[a.Field]; dup {
			return nil, fmt.Errorf("%w: duplicate accessor for field %s", codec.ErrSchema, a.Field)
		}
		if a.Get == nil || a.Set == nil {
			return nil, fmt.Errorf("%w: accessor for field %s is incomplete", codec.ErrSchema, a.Field)
		}
		byField[a.Field] = a
	}

	m := &Mapper[T]{layout: l}
	for _, f := range l.fields {
		a, ok := byField[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no accessor for field %s", codec.ErrSchema, f.Name)
		}
		m.accessors = append(m.accessors, a)
	}
	return m, nil
}

// Layout returns the bound layout.
func (m *Mapper[T]) Layout() *Layout { return m.layout }

// Record copies the fields of t into a new Record.
func (m *Mapper[T]) Record(t *T) *Record {
	rec := NewRecord()
	for _, a := range m.accessors {
		rec.Set(a.Field, a.Get(t))
	}
	return rec
}

// Marshal encodes t.
func (m *Mapper[T]) Marshal(t *T) (bitio.Buffer, error) {
	return m.layout.Encode(m.Record(t))
}

// Unmarshal decodes buf into a new T.
func (m *Mapper[T]) Unmarshal(buf bitio.Buffer) (*T, error) {
	rec, err := m.layout.Decode(buf)
	if err != nil {
		return nil, err
	}
	return m.FromRecord(rec)
}

// FromRecord builds a T from a decoded record.
func (m *Mapper[T]) FromRecord(rec *Record) (*T, error) {
	t := new(T)
	for _, a := range m.accessors {
		v, ok := rec.Get(a.Field)
		if !ok {
			return nil, &FieldError{Layout: m.layout.name, Field: a.Field, Err: fmt.Errorf("%w: missing field", codec.ErrSchema)}
		}
		if err := a.Set(t, v); err != nil {
			return nil, &FieldError{Layout: m.layout.name, Field: a.Field, Err: err}
		}
	}
	return t, nil
}

// New returns a T populated with the layout defaults.
func (m *Mapper[T]) New() (*T, error) {
	return m.FromRecord(m.layout.Defaults())
}
