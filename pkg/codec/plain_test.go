package codec

import (
	"container/list"
	"database/sql"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestPlain(t *testing.T) {
	l := list.New()
	l.PushBack(big.NewInt(7))
	v := int16(3)

	testCases := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"big", new(big.Int).Lsh(big.NewInt(1), 100), "1267650600228229401496703205376"},
		{"uint256", uint256.NewInt(9), "9"},
		{"absent option", None(), nil},
		{"present option", Some(uint8(1)), uint8(1)},
		{"null int32", sql.NullInt32{Int32: 4, Valid: true}, int32(4)},
		{"absent null float", sql.NullFloat64{}, nil},
		{"linked list", l, []any{"7"}},
		{"bytes", []uint8{1, 2}, []any{uint8(1), uint8(2)}},
		{"nested", [][]int8{{1}, {2}}, []any{[]any{int8(1)}, []any{int8(2)}}},
		{"hash set", map[string]struct{}{"b": {}, "a": {}}, []any{"a", "b"}},
		{"frozen set", FrozenSet{items: []any{true}}, []any{true}},
		{"pointer", &v, int16(3)},
		{"nil pointer", (*int16)(nil), nil},
		{"scalar", 1.5, 1.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Plain(tc.in))
		})
	}
}
