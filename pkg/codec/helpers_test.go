package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitspec/pkg/bitio"
)

type mapContext map[string]any

func (m mapContext) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func encode(t *testing.T, c Codec, v any) bitio.Buffer {
	t.Helper()
	w := bitio.NewWriter()
	require.NoError(t, c.Write(w, v))
	return w.Buffer()
}

func decode(t *testing.T, c Codec, buf bitio.Buffer, ctx Context) any {
	t.Helper()
	r := bitio.NewReader(buf)
	v, err := c.Read(r, ctx)
	require.NoError(t, err)
	require.False(t, r.HasMore(), "%d bits left after %s", r.Remaining(), c)
	return v
}

func roundTrip(t *testing.T, c Codec, v any) any {
	t.Helper()
	return decode(t, c, encode(t, c, v), nil)
}
