package layout

import (
	"fmt"
	"io"

	"github.com/ssargent/bitspec/pkg/bitio"
	"github.com/ssargent/bitspec/pkg/codec"
)

// State is the progress of a single encode or decode pass.
type State int

const (
	NotStarted State = iota
	FieldsInProgress
	Complete // decode finished
	Flushed  // encode finished
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case FieldsInProgress:
		return "fields-in-progress"
	case Complete:
		return "complete"
	case Flushed:
		return "flushed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Decoder reads one record field by field. The record under construction
// is the codec.Context for every field.
type Decoder struct {
	layout   *Layout
	r        *bitio.Reader
	rec      *Record
	next     int
	state    State
	err      error
	trailing bool
}

// NewDecoder returns a Decoder reading from r.
func (l *Layout) NewDecoder(r *bitio.Reader) *Decoder {
	return &Decoder{layout: l, r: r, rec: NewRecord(), trailing: true}
}

// State returns the pass state.
func (d *Decoder) State() State { return d.state }

// Record returns the fields decoded so far.
func (d *Decoder) Record() *Record { return d.rec }

func (d *Decoder) fail(field string, err error) error {
	d.state = Failed
	d.err = &FieldError{Layout: d.layout.name, Field: field, Err: err}
	return d.err
}

// Next decodes the next field. It returns io.EOF once every field has been
// decoded. After a failure it keeps returning the same error.
func (d *Decoder) Next() (Field, any, error) {
	switch d.state {
	case Failed:
		return Field{}, nil, d.err
	case Complete:
		return Field{}, nil, io.EOF
	}
	if d.next == len(d.layout.fields) {
		return Field{}, nil, io.EOF
	}

	d.state = FieldsInProgress
	f := d.layout.fields[d.next]
	v, err := f.Codec.Read(d.r, d.rec)
	if err != nil {
		return f, nil, d.fail(f.Name, err)
	}
	d.rec.Set(f.Name, v)
	d.next++
	return f, v, nil
}

// Finish decodes any remaining fields and completes the pass.
func (d *Decoder) Finish() (*Record, error) {
	for {
		_, _, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if d.state == Complete {
		return d.rec, nil
	}
	if d.trailing && d.r.HasMore() {
		d.state = Failed
		d.err = fmt.Errorf("layout %s: %w: %d bits", d.layout.name, codec.ErrTrailingData, d.r.Remaining())
		return nil, d.err
	}
	d.state = Complete
	return d.rec, nil
}

// Encoder writes records field by field.
type Encoder struct {
	layout *Layout
	w      *bitio.Writer
	state  State
	err    error
}

// NewEncoder returns an Encoder appending to w.
func (l *Layout) NewEncoder(w *bitio.Writer) *Encoder {
	return &Encoder{layout: l, w: w}
}

// State returns the pass state.
func (e *Encoder) State() State { return e.state }

// Encode writes every field of rec in layout order. rec must not hold
// fields the layout does not declare.
func (e *Encoder) Encode(rec *Record) error {
	if e.state == Failed {
		return e.err
	}
	if e.state == Flushed {
		return fmt.Errorf("layout %s: encoder already flushed", e.layout.name)
	}
	if rec == nil {
		rec = NewRecord()
	}
	for _, name := range rec.names {
		if _, ok := e.layout.index[name]; !ok {
			return e.fail(name, fmt.Errorf("%w: field not in layout", codec.ErrSchema))
		}
	}

	e.state = FieldsInProgress
	for _, f := range e.layout.fields {
		v, ok := rec.Get(f.Name)
		if !ok {
			return e.fail(f.Name, fmt.Errorf("%w: missing field", codec.ErrSchema))
		}
		if err := f.Codec.Write(e.w, v); err != nil {
			return e.fail(f.Name, err)
		}
	}
	e.state = Flushed
	return nil
}

func (e *Encoder) fail(field string, err error) error {
	e.state = Failed
	e.err = &FieldError{Layout: e.layout.name, Field: field, Err: err}
	return e.err
}
