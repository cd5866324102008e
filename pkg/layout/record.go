package layout

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/bitspec/pkg/codec"
)

// Record is an insertion-ordered mapping of field names to values.
type Record struct {
	names  []string
	values map[string]any
}

var _ codec.Context = (*Record)(nil)

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: map[string]any{}}
}

// Set stores v under name, keeping the original position on overwrite.
func (r *Record) Set(name string, v any) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

// Get returns the value stored under name.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Lookup implements codec.Context.
func (r *Record) Lookup(name string) (any, bool) {
	return r.Get(name)
}

// Names returns the field names in insertion order.
func (r *Record) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.names)
}

// Map returns the plain form of every value, see codec.Plain.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.names))
	for _, name := range r.names {
		m[name] = codec.Plain(r.values[name])
	}
	return m
}

// MarshalJSON writes the plain values as an object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(codec.Plain(r.values[name]))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping key order. Numbers stay
// json.Number so large integers survive.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	*r = Record{values: map[string]any{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		r.Set(name, v)
	}
	_, err = dec.Token()
	return err
}

// MarshalYAML writes the plain values as a mapping in field order.
func (r *Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range r.names {
		var val yaml.Node
		if err := val.Encode(codec.Plain(r.values[name])); err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&val,
		)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping, keeping key order.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: record must be a mapping", node.Line)
	}
	*r = Record{values: map[string]any{}}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var v any
		if err := node.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("line %d: field %s: %w", node.Content[i].Line, node.Content[i].Value, err)
		}
		r.Set(node.Content[i].Value, v)
	}
	return nil
}
