package layout

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/ssargent/bitspec/pkg/bitio"
	"github.com/ssargent/bitspec/pkg/codec"
)

// Layout is an immutable, ordered list of fields.
type Layout struct {
	name        string
	fields      []Field
	index       map[string]int
	fingerprint [32]byte
}

// New validates fields and returns a layout. Field names must be unique and
// non-empty, codecs non-nil, and every Named length source must refer to a
// field of the layout. Whether that field precedes its user is checked while
// decoding.
func New(name string, fields ...Field) (*Layout, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: layout without a name", codec.ErrSchema)
	}
	l := &Layout{
		name:   name,
		fields: append([]Field(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range l.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: layout %s: field %d has no name", codec.ErrSchema, name, i)
		}
		if f.Codec == nil {
			return nil, fmt.Errorf("%w: layout %s: field %s has no codec", codec.ErrSchema, name, f.Name)
		}
		if _, dup := l.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: layout %s: duplicate field %s", codec.ErrSchema, name, f.Name)
		}
		l.index[f.Name] = i
	}
	for _, f := range l.fields {
		for _, ref := range codec.NamedLengths(f.Codec) {
			if _, ok := l.index[ref]; !ok {
				return nil, fmt.Errorf("%w: layout %s: field %s takes its length from unknown field %s",
					codec.ErrSchema, name, f.Name, ref)
			}
		}
	}
	l.fingerprint = blake3.Sum256([]byte(l.canonical()))
	return l, nil
}

func (l *Layout) canonical() string {
	var sb strings.Builder
	sb.WriteString(l.name)
	sb.WriteByte('\n')
	for _, f := range l.fields {
		sb.WriteString(f.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Name returns the layout name.
func (l *Layout) Name() string { return l.name }

// Len returns the number of fields.
func (l *Layout) Len() int { return len(l.fields) }

// Fields returns the fields in wire order.
func (l *Layout) Fields() []Field { return append([]Field(nil), l.fields...) }

// Field returns the field called name.
func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

// Fingerprint is a BLAKE3-256 digest of the layout name and field shapes.
// Layouts that encode differently have different fingerprints.
func (l *Layout) Fingerprint() [32]byte { return l.fingerprint }

// FingerprintHex returns the fingerprint as lowercase hex.
func (l *Layout) FingerprintHex() string { return hex.EncodeToString(l.fingerprint[:]) }

func (l *Layout) String() string { return strings.TrimRight(l.canonical(), "\n") }

// Decode decodes a whole buffer. Content bits left over after the last field
// fail the decode with codec.ErrTrailingData.
func (l *Layout) Decode(buf bitio.Buffer) (*Record, error) {
	return l.NewDecoder(bitio.NewReader(buf)).Finish()
}

// DecodeFrom decodes one record from r and leaves r positioned after it.
func (l *Layout) DecodeFrom(r *bitio.Reader) (*Record, error) {
	d := l.NewDecoder(r)
	d.trailing = false
	return d.Finish()
}

// Encode encodes rec, which must hold exactly the layout's fields.
func (l *Layout) Encode(rec *Record) (bitio.Buffer, error) {
	w := bitio.NewWriter()
	if err := l.EncodeTo(w, rec); err != nil {
		return bitio.Buffer{}, err
	}
	return w.Buffer(), nil
}

// EncodeTo appends rec to w.
func (l *Layout) EncodeTo(w *bitio.Writer, rec *Record) error {
	return l.NewEncoder(w).Encode(rec)
}

// Defaults returns a record holding every codec's default value.
func (l *Layout) Defaults() *Record {
	rec := NewRecord()
	for _, f := range l.fields {
		rec.Set(f.Name, f.Codec.Default())
	}
	return rec
}
