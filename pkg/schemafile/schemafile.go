// Package schemafile builds layouts from YAML documents.
//
//	name: reading
//	fields:
//	  - name: sensor
//	    type: string-terminated
//	  - name: count
//	    type: uint
//	    bits: 4
//	  - name: samples
//	    type: list
//	    length: count
//	    of:
//	      type: int
//	      bits: 12
//
// Every key of a field other than name, type and of is passed to the
// shape's factory as a parameter. of describes the element codec of
// structural shapes and may nest.
package schemafile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/bitspec/pkg/codec"
	"github.com/ssargent/bitspec/pkg/layout"
)

// ValueError reports the YAML line a schema problem was found on.
type ValueError struct {
	Line int
	Err  error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ValueError) Unwrap() error { return e.Err }

func valueErrorf(n *yaml.Node, format string, a ...any) error {
	return &ValueError{Line: n.Line, Err: fmt.Errorf(format, a...)}
}

func wrapNode(n *yaml.Node, err error) error {
	return &ValueError{Line: n.Line, Err: err}
}

// Loader turns schema documents into layouts using the shapes of a registry.
type Loader struct {
	registry *codec.Registry
}

// NewLoader returns a Loader resolving shapes through reg.
func NewLoader(reg *codec.Registry) *Loader {
	return &Loader{registry: reg}
}

var defaultLoader = NewLoader(codec.NewDefaultRegistry())

// Parse builds a layout with the built-in shapes.
func Parse(data []byte) (*layout.Layout, error) { return defaultLoader.Parse(data) }

// Load reads and parses one file with the built-in shapes.
func Load(path string) (*layout.Layout, error) { return defaultLoader.Load(path) }

// LoadDir loads every schema of dir into cache with the built-in shapes.
func LoadDir(dir string, cache *layout.Cache) ([]string, error) {
	return defaultLoader.LoadDir(dir, cache)
}

// Parse builds a layout from one YAML document.
func (l *Loader) Parse(data []byte) (*layout.Layout, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", codec.ErrSchema, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("%w: empty schema document", codec.ErrSchema)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, valueErrorf(root, "%w: schema must be a mapping", codec.ErrSchema)
	}

	var (
		name       string
		fieldsNode *yaml.Node
	)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "name":
			if err := val.Decode(&name); err != nil {
				return nil, wrapNode(val, fmt.Errorf("%w: %v", codec.ErrSchema, err))
			}
		case "fields":
			fieldsNode = val
		default:
			return nil, valueErrorf(key, "%w: unknown key %q", codec.ErrSchema, key.Value)
		}
	}
	if name == "" {
		return nil, valueErrorf(root, "%w: schema without a name", codec.ErrSchema)
	}
	if fieldsNode == nil {
		return layout.New(name)
	}
	if fieldsNode.Kind != yaml.SequenceNode {
		return nil, valueErrorf(fieldsNode, "%w: fields must be a list", codec.ErrSchema)
	}

	b := layout.NewBuilder(name)
	for _, fn := range fieldsNode.Content {
		fname, c, err := l.field(fn)
		if err != nil {
			return nil, err
		}
		b.Field(fname, c)
	}
	lay, err := b.Build()
	if err != nil {
		return nil, wrapNode(root, err)
	}
	return lay, nil
}

// Load reads and parses the schema at path.
func (l *Loader) Load(path string) (*layout.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	lay, err := l.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lay, nil
}

// LoadDir loads every *.yaml and *.yml file of dir into cache and returns
// the layout names in file name order. It stops at the first failure.
func (l *Loader) LoadDir(dir string, cache *layout.Cache) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	names := make([]string, 0, len(paths))
	for _, path := range paths {
		lay, err := l.Load(path)
		if err != nil {
			return names, err
		}
		if err := cache.Put(lay); err != nil {
			return names, fmt.Errorf("%s: %w", path, err)
		}
		names = append(names, lay.Name())
	}
	return names, nil
}

func (l *Loader) field(n *yaml.Node) (string, codec.Codec, error) {
	if n.Kind != yaml.MappingNode {
		return "", nil, valueErrorf(n, "%w: field must be a mapping", codec.ErrSchema)
	}
	var name string
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == "name" {
			if err := n.Content[i+1].Decode(&name); err != nil {
				return "", nil, wrapNode(n.Content[i+1], fmt.Errorf("%w: %v", codec.ErrSchema, err))
			}
		}
	}
	if name == "" {
		return "", nil, valueErrorf(n, "%w: field without a name", codec.ErrSchema)
	}
	c, err := l.codec(n, "name")
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", name, err)
	}
	return name, c, nil
}

// codec builds the codec described by a mapping node, ignoring the keys in
// skip.
func (l *Loader) codec(n *yaml.Node, skip ...string) (codec.Codec, error) {
	if n.Kind != yaml.MappingNode {
		return nil, valueErrorf(n, "%w: type must be a mapping", codec.ErrSchema)
	}

	var (
		shape  string
		inner  codec.Codec
		params = codec.MapParams{}
	)
next:
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		for _, s := range skip {
			if key.Value == s {
				continue next
			}
		}
		switch key.Value {
		case "type":
			if err := val.Decode(&shape); err != nil {
				return nil, wrapNode(val, fmt.Errorf("%w: %v", codec.ErrSchema, err))
			}
		case "of":
			c, err := l.codec(val)
			if err != nil {
				return nil, err
			}
			inner = c
		default:
			if _, dup := params[key.Value]; dup {
				return nil, valueErrorf(key, "%w: duplicate key %q", codec.ErrSchema, key.Value)
			}
			var v any
			if err := val.Decode(&v); err != nil {
				return nil, wrapNode(val, fmt.Errorf("%w: %v", codec.ErrSchema, err))
			}
			params[key.Value] = v
		}
	}
	if shape == "" {
		return nil, valueErrorf(n, "%w: missing type", codec.ErrSchema)
	}

	c, err := l.registry.Build(shape, params, inner)
	if err != nil {
		return nil, wrapNode(n, err)
	}
	return c, nil
}
