package codec

import (
	"container/list"
	"database/sql"
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/holiman/uint256"
)

// Plain converts a decoded value into nil, bool, numbers, strings, []any and
// map[string]any so it can be handed to JSON, YAML or CBOR encoders. Big
// integers become decimal strings, which every integer codec accepts back.
func Plain(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *big.Int:
		if x == nil {
			return nil
		}
		return x.String()
	case *uint256.Int:
		if x == nil {
			return nil
		}
		return x.Dec()
	case Option:
		if !x.Valid {
			return nil
		}
		return Plain(x.Value)
	case sql.NullInt32:
		if !x.Valid {
			return nil
		}
		return x.Int32
	case sql.NullInt64:
		if !x.Valid {
			return nil
		}
		return x.Int64
	case sql.NullFloat64:
		if !x.Valid {
			return nil
		}
		return x.Float64
	case *list.List:
		if x == nil {
			return nil
		}
		out := make([]any, 0, x.Len())
		for e := x.Front(); e != nil; e = e.Next() {
			out = append(out, Plain(e.Value))
		}
		return out
	case FrozenList:
		return plainAll(x.items)
	case *OrderedSet:
		if x == nil {
			return nil
		}
		return plainAll(x.items)
	case FrozenSet:
		return plainAll(x.items)
	case string, bool:
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Plain(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Plain(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Elem() == emptyStruct {
			keys := make([]any, 0, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				keys = append(keys, Plain(iter.Key().Interface()))
			}
			sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j]) })
			return keys
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = Plain(iter.Value().Interface())
		}
		return out
	case reflect.String:
		return rv.String()
	}
	return v
}

func plainAll(items []any) []any {
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = Plain(v)
	}
	return out
}
