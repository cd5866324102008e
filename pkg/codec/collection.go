package codec

import (
	"container/list"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/ssargent/bitspec/pkg/bitio"
)

// ListKind selects the container a list codec decodes into.
type ListKind int

const (
	ListSlice  ListKind = iota // []T
	ListLinked                 // *list.List
	ListFrozen                 // FrozenList
)

var listKindNames = []string{"slice", "linked", "frozen"}

func (k ListKind) String() string {
	if int(k) >= 0 && int(k) < len(listKindNames) {
		return listKindNames[k]
	}
	return fmt.Sprintf("ListKind(%d)", int(k))
}

// ParseListKind maps "slice", "linked" or "frozen" to a ListKind.
func ParseListKind(s string) (ListKind, error) {
	for i, name := range listKindNames {
		if strings.EqualFold(s, name) {
			return ListKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown list kind %q", ErrSchema, s)
}

// SetKind selects the container a set codec decodes into.
type SetKind int

const (
	SetHash    SetKind = iota // map[T]struct{}
	SetOrdered                // *OrderedSet
	SetFrozen                 // FrozenSet
)

var setKindNames = []string{"hash", "ordered", "frozen"}

func (k SetKind) String() string {
	if int(k) >= 0 && int(k) < len(setKindNames) {
		return setKindNames[k]
	}
	return fmt.Sprintf("SetKind(%d)", int(k))
}

// ParseSetKind maps "hash", "ordered" or "frozen" to a SetKind.
func ParseSetKind(s string) (SetKind, error) {
	for i, name := range setKindNames {
		if strings.EqualFold(s, name) {
			return SetKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown set kind %q", ErrSchema, s)
}

// FrozenList is a read-only list.
type FrozenList struct {
	items []any
}

// Freeze copies items into a FrozenList.
func Freeze(items ...any) FrozenList {
	return FrozenList{items: append([]any(nil), items...)}
}

func (l FrozenList) Len() int     { return len(l.items) }
func (l FrozenList) At(i int) any { return l.items[i] }
func (l FrozenList) Items() []any { return append([]any(nil), l.items...) }

// OrderedSet keeps elements in insertion order. Element identity is the
// element's encoding under the codec that produced the set.
type OrderedSet struct {
	items []any
	keys  map[string]struct{}
}

func (s *OrderedSet) Len() int     { return len(s.items) }
func (s *OrderedSet) Items() []any { return append([]any(nil), s.items...) }

// FrozenSet is a read-only set ordered by element encoding.
type FrozenSet struct {
	items []any
}

func (s FrozenSet) Len() int     { return len(s.items) }
func (s FrozenSet) Items() []any { return append([]any(nil), s.items...) }

var (
	linkedListType = reflect.TypeOf((*list.List)(nil))
	frozenListType = reflect.TypeOf(FrozenList{})
	orderedSetType = reflect.TypeOf((*OrderedSet)(nil))
	frozenSetType  = reflect.TypeOf(FrozenSet{})
	emptyStruct    = reflect.TypeOf(struct{}{})
)

type listCodec struct {
	fixed bool
	count int
	src   LengthSource
	inner Codec
	kind  ListKind
}

// NewListFixed returns a codec for exactly count elements.
func NewListFixed(count int, inner Codec, kind ListKind) (Codec, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative list size %d", ErrSchema, count)
	}
	return newList(&listCodec{fixed: true, count: count, inner: inner, kind: kind})
}

// NewListDynamic returns a codec for a list whose size comes from src.
func NewListDynamic(src LengthSource, inner Codec, kind ListKind) (Codec, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return newList(&listCodec{src: src, inner: inner, kind: kind})
}

func newList(c *listCodec) (Codec, error) {
	if c.inner == nil {
		return nil, fmt.Errorf("%w: list without element codec", ErrSchema)
	}
	if c.kind < ListSlice || c.kind > ListFrozen {
		return nil, fmt.Errorf("%w: unknown list kind %d", ErrSchema, int(c.kind))
	}
	return c, nil
}

func (c *listCodec) length(r *bitio.Reader, ctx Context) (int, error) {
	if c.fixed {
		return c.count, nil
	}
	return c.src.read(r, ctx)
}

func (c *listCodec) Read(r *bitio.Reader, ctx Context) (any, error) {
	n, err := c.length(r, ctx)
	if err != nil {
		return nil, err
	}
	items := make([]any, 0, presize(n, r))
	for i := 0; i < n; i++ {
		v, err := c.inner.Read(r, ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return c.build(items)
}

func (c *listCodec) build(items []any) (any, error) {
	switch c.kind {
	case ListLinked:
		l := list.New()
		for _, v := range items {
			l.PushBack(v)
		}
		return l, nil
	case ListFrozen:
		return FrozenList{items: items}, nil
	}
	out := reflect.MakeSlice(reflect.SliceOf(c.inner.Type()), len(items), len(items))
	for i, v := range items {
		if err := setElem(out.Index(i), v); err != nil {
			return nil, err
		}
	}
	return out.Interface(), nil
}

func (c *listCodec) Write(w *bitio.Writer, v any) error {
	items, err := sequence(v)
	if err != nil {
		return err
	}
	if c.fixed && len(items) != c.count {
		return fmt.Errorf("%w: list of %d elements, declared %d", ErrSizeMismatch, len(items), c.count)
	}
	if !c.fixed {
		if err := c.src.write(w, len(items)); err != nil {
			return err
		}
	}
	for _, item := range items {
		if err := c.inner.Write(w, item); err != nil {
			return err
		}
	}
	return nil
}

// Default is empty for dynamic lists and count default elements for fixed
// ones, so a default record always encodes.
func (c *listCodec) Default() any {
	var items []any
	if c.fixed {
		items = make([]any, c.count)
		for i := range items {
			items[i] = c.inner.Default()
		}
	}
	v, err := c.build(items)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *listCodec) Type() reflect.Type {
	switch c.kind {
	case ListLinked:
		return linkedListType
	case ListFrozen:
		return frozenListType
	}
	return reflect.SliceOf(c.inner.Type())
}

func (c *listCodec) Inner() Codec { return c.inner }

func (c *listCodec) LengthSource() LengthSource { return c.src }

func (c *listCodec) String() string {
	if c.fixed {
		return fmt.Sprintf("list[%d,%s](%s)", c.count, c.kind, c.inner)
	}
	return fmt.Sprintf("list[%s,%s](%s)", c.src, c.kind, c.inner)
}

type setCodec struct {
	fixed bool
	count int
	src   LengthSource
	inner Codec
	kind  SetKind
}

// NewSetFixed returns a codec for a set of count elements. Writes need
// exactly count distinct elements; reads collapse duplicates.
func NewSetFixed(count int, inner Codec, kind SetKind) (Codec, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative set size %d", ErrSchema, count)
	}
	return newSet(&setCodec{fixed: true, count: count, inner: inner, kind: kind})
}

// NewSetDynamic returns a codec for a set whose size comes from src.
func NewSetDynamic(src LengthSource, inner Codec, kind SetKind) (Codec, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return newSet(&setCodec{src: src, inner: inner, kind: kind})
}

func newSet(c *setCodec) (Codec, error) {
	if c.inner == nil {
		return nil, fmt.Errorf("%w: set without element codec", ErrSchema)
	}
	switch c.kind {
	case SetHash:
		t := c.inner.Type()
		if !t.Comparable() || t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
			return nil, fmt.Errorf("%w: %s cannot key a hash set, use an ordered or frozen set", ErrSchema, t)
		}
	case SetOrdered, SetFrozen:
	default:
		return nil, fmt.Errorf("%w: unknown set kind %d", ErrSchema, int(c.kind))
	}
	return c, nil
}

// key is the element's encoding, which defines set identity and the
// canonical write order for values supplied by the caller.
func (c *setCodec) key(v any) (string, error) {
	w := bitio.NewWriter()
	if err := c.inner.Write(w, v); err != nil {
		return "", err
	}
	return w.Buffer().String(), nil
}

type setEntry struct {
	key  string
	item any
}

func (c *setCodec) dedup(items []any) ([]setEntry, error) {
	seen := make(map[string]struct{}, len(items))
	out := make([]setEntry, 0, len(items))
	for _, item := range items {
		k, err := c.key(item)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, setEntry{key: k, item: item})
	}
	return out, nil
}

// Read collapses duplicate elements, fixed-size sets included. Identity is
// the bits each element was read from.
func (c *setCodec) Read(r *bitio.Reader, ctx Context) (any, error) {
	n := c.count
	if !c.fixed {
		var err error
		if n, err = c.src.read(r, ctx); err != nil {
			return nil, err
		}
	}
	seen := make(map[string]struct{}, presize(n, r))
	entries := make([]setEntry, 0, presize(n, r))
	for i := 0; i < n; i++ {
		start := r.Consumed()
		v, err := c.inner.Read(r, ctx)
		if err != nil {
			return nil, err
		}
		span, err := r.Span(start, r.Consumed())
		if err != nil {
			return nil, err
		}
		k := span.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		entries = append(entries, setEntry{key: k, item: v})
	}
	return c.build(entries)
}

func (c *setCodec) build(entries []setEntry) (any, error) {
	switch c.kind {
	case SetOrdered:
		s := &OrderedSet{keys: make(map[string]struct{}, len(entries))}
		for _, e := range entries {
			s.items = append(s.items, e.item)
			s.keys[e.key] = struct{}{}
		}
		return s, nil
	case SetFrozen:
		sortEntries(entries)
		s := FrozenSet{items: make([]any, len(entries))}
		for i, e := range entries {
			s.items[i] = e.item
		}
		return s, nil
	}
	m := reflect.MakeMapWithSize(reflect.MapOf(c.inner.Type(), emptyStruct), len(entries))
	for _, e := range entries {
		k := reflect.New(c.inner.Type()).Elem()
		if err := setElem(k, e.item); err != nil {
			return nil, err
		}
		m.SetMapIndex(k, reflect.Zero(emptyStruct))
	}
	return m.Interface(), nil
}

// Write emits distinct elements. Map input is written in encoding order so
// equal sets always produce equal bits; other inputs keep their order.
func (c *setCodec) Write(w *bitio.Writer, v any) error {
	var items []any
	unordered := false
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Map {
		unordered = true
		iter := rv.MapRange()
		for iter.Next() {
			items = append(items, iter.Key().Interface())
		}
	} else {
		var err error
		if items, err = sequence(v); err != nil {
			return err
		}
	}

	entries, err := c.dedup(items)
	if err != nil {
		return err
	}
	if unordered {
		sortEntries(entries)
	}

	if c.fixed && len(entries) != c.count {
		return fmt.Errorf("%w: set of %d distinct elements, declared %d", ErrSizeMismatch, len(entries), c.count)
	}
	if !c.fixed {
		if err := c.src.write(w, len(entries)); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := c.inner.Write(w, e.item); err != nil {
			return err
		}
	}
	return nil
}

func sortEntries(entries []setEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
}

func (c *setCodec) Default() any {
	v, err := c.build(nil)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *setCodec) Type() reflect.Type {
	switch c.kind {
	case SetOrdered:
		return orderedSetType
	case SetFrozen:
		return frozenSetType
	}
	return reflect.MapOf(c.inner.Type(), emptyStruct)
}

func (c *setCodec) Inner() Codec { return c.inner }

func (c *setCodec) LengthSource() LengthSource { return c.src }

func (c *setCodec) String() string {
	if c.fixed {
		return fmt.Sprintf("set[%d,%s](%s)", c.count, c.kind, c.inner)
	}
	return fmt.Sprintf("set[%s,%s](%s)", c.src, c.kind, c.inner)
}
