package layout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitspec/pkg/codec"
)

func recordOf(kv ...any) *Record {
	rec := NewRecord()
	for i := 0; i+1 < len(kv); i += 2 {
		rec.Set(kv[i].(string), kv[i+1])
	}
	return rec
}

// packetLayout is a small layout with a length taken from a sibling field.
func packetLayout(t *testing.T) *Layout {
	t.Helper()
	u8 := codec.Must(codec.NewInteger(8, codec.Uint8))
	l, err := NewBuilder("packet").
		Field("flag", codec.NewBool()).
		Field("externalLengthField", codec.Must(codec.NewInteger(32, codec.Int32))).
		Field("items", codec.Must(codec.NewListDynamic(codec.Named("externalLengthField"), u8, codec.ListSlice))).
		Field("label", codec.Must(codec.NewStringDynamic(codec.Auto(8, false)))).
		Build()
	require.NoError(t, err)
	return l
}
