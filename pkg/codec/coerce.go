package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/spf13/cast"
	"golang.org/x/exp/constraints"
)

// The as* helpers accept the value shapes produced by Go callers and by
// JSON/YAML decoders (json.Number, float64, decimal strings).

func typeErr(v any, want string) error {
	return fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, v, want)
}

func asInt64(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, typeErr(v, "an integer")
	case json.Number:
		return parseInt64(string(x))
	case string:
		return parseInt64(x)
	case *big.Int:
		if x == nil || !x.IsInt64() {
			return 0, fmt.Errorf("%w: %s exceeds 64 bits", ErrOverflow, x)
		}
		return x.Int64(), nil
	case *uint256.Int:
		if x == nil || !x.IsUint64() || x.Uint64() > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %s exceeds 64 bits", ErrOverflow, x)
		}
		return int64(x.Uint64()), nil
	case float32:
		return floatToInt64(float64(x))
	case float64:
		return floatToInt64(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d exceeds int64", ErrOverflow, u)
		}
		return int64(u), nil
	}
	return 0, typeErr(v, "an integer")
}

func asUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case json.Number:
		return parseUint64(string(x))
	case string:
		return parseUint64(x)
	case *big.Int:
		if x == nil {
			return 0, typeErr(v, "an integer")
		}
		if x.Sign() < 0 {
			return 0, fmt.Errorf("%w: %s", ErrNegativeValue, x)
		}
		if !x.IsUint64() {
			return 0, fmt.Errorf("%w: %s exceeds 64 bits", ErrOverflow, x)
		}
		return x.Uint64(), nil
	case *uint256.Int:
		if x == nil || !x.IsUint64() {
			return 0, fmt.Errorf("%w: %s exceeds 64 bits", ErrOverflow, x)
		}
		return x.Uint64(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	}

	i, err := asInt64(v)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeValue, i)
	}
	return uint64(i), nil
}

func asBig(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, typeErr(v, "an integer")
		}
		return new(big.Int).Set(x), nil
	case big.Int:
		return new(big.Int).Set(&x), nil
	case *uint256.Int:
		if x == nil {
			return nil, typeErr(v, "an integer")
		}
		return x.ToBig(), nil
	case json.Number:
		return parseBig(string(x))
	case string:
		return parseBig(x)
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) || x != math.Trunc(x) {
			return nil, typeErr(v, "an integral number")
		}
		b, _ := big.NewFloat(x).Int(nil)
		return b, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(rv.Uint()), nil
	}
	i, err := asInt64(v)
	if err != nil {
		return nil, err
	}
	return big.NewInt(i), nil
}

func parseInt64(s string) (int64, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, nil
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return 0, fmt.Errorf("%w: %s exceeds int64", ErrOverflow, s)
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrTypeMismatch, s)
	}
	return floatToInt64(f)
}

func parseUint64(s string) (uint64, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err == nil {
		return u, nil
	}
	i, ierr := parseInt64(s)
	if ierr != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, fmt.Errorf("%w: %s exceeds uint64", ErrOverflow, s)
		}
		return 0, ierr
	}
	if i < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeValue, i)
	}
	return uint64(i), nil
}

func parseBig(s string) (*big.Int, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a decimal integer", ErrTypeMismatch, s)
	}
	return b, nil
}

func floatToInt64(f float64) (int64, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %v is not integral", ErrTypeMismatch, f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v exceeds int64", ErrOverflow, f)
	}
	return int64(f), nil
}

func asFloat64(v any) (float64, error) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		if err != nil {
			return 0, typeErr(v, "a number")
		}
		return f, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, typeErr(v, "a number")
	}
	return f, nil
}

func asBool(v any) (bool, error) {
	if v == nil {
		return false, typeErr(v, "a bool")
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, typeErr(v, "a bool")
	}
	return b, nil
}

func asString(v any) (string, error) {
	if v == nil {
		return "", typeErr(v, "a string")
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", typeErr(v, "a string")
	}
	return s, nil
}

// narrowSigned converts v to T, failing if the value does not survive.
func narrowSigned[T constraints.Signed](v int64) (T, error) {
	t := T(v)
	if int64(t) != v {
		return 0, fmt.Errorf("%w: %d does not fit %T", ErrOverflow, v, t)
	}
	return t, nil
}

// narrowUnsigned converts v to T, failing if the value does not survive.
func narrowUnsigned[T constraints.Unsigned](v uint64) (T, error) {
	t := T(v)
	if uint64(t) != v {
		return 0, fmt.Errorf("%w: %d does not fit %T", ErrOverflow, v, t)
	}
	return t, nil
}
