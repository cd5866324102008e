package codec

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"
)

// Params carries shape parameters to a Factory.
type Params interface {
	Has(key string) bool
	Int(key string, def int) (int, error)
	Bool(key string, def bool) (bool, error)
	String(key string, def string) (string, error)
	Ints(key string) ([]int, error)
	Strings(key string) ([]string, error)
	Keys() []string
}

// MapParams implements Params over decoded YAML or JSON maps.
type MapParams map[string]any

var _ Params = MapParams(nil)

func (p MapParams) Has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p MapParams) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, paramErr(key, v, "an integer")
	}
	return i, nil
}

func (p MapParams) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, paramErr(key, v, "a bool")
	}
	return b, nil
}

func (p MapParams) String(key string, def string) (string, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", paramErr(key, v, "a string")
	}
	return s, nil
}

func (p MapParams) Ints(key string) ([]int, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	is, err := cast.ToIntSliceE(v)
	if err != nil {
		return nil, paramErr(key, v, "a list of integers")
	}
	return is, nil
}

func (p MapParams) Strings(key string) ([]string, error) {
	v, ok := p[key]
	if !ok {
		return nil, nil
	}
	ss, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, paramErr(key, v, "a list of strings")
	}
	return ss, nil
}

func (p MapParams) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func paramErr(key string, v any, want string) error {
	return fmt.Errorf("%w: parameter %q: %v is not %s", ErrSchema, key, v, want)
}
