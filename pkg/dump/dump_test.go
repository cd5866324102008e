package dump

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitspec/pkg/bitio"
	"github.com/ssargent/bitspec/pkg/codec"
	"github.com/ssargent/bitspec/pkg/layout"
)

func sampleLayout(t *testing.T) *layout.Layout {
	t.Helper()
	u4, err := codec.NewInteger(4, codec.Uint8)
	require.NoError(t, err)
	list, err := codec.NewListDynamic(codec.Named("n"), codec.NewBool(), codec.ListSlice)
	require.NoError(t, err)
	str, err := codec.NewStringDynamic(codec.Auto(8, false))
	require.NoError(t, err)

	l, err := layout.NewBuilder("sample").
		Field("on", codec.NewBool()).
		Field("n", u4).
		Field("bits", list).
		Field("name", str).
		Build()
	require.NoError(t, err)
	return l
}

func sampleBuffer(t *testing.T, l *layout.Layout, n int, bits []bool) bitio.Buffer {
	t.Helper()
	rec := layout.NewRecord()
	rec.Set("on", true)
	rec.Set("n", n)
	rec.Set("bits", bits)
	rec.Set("name", "A")
	buf, err := l.Encode(rec)
	require.NoError(t, err)
	return buf
}

func TestTrace(t *testing.T) {
	l := sampleLayout(t)
	traces, err := Trace(l, sampleBuffer(t, l, 2, []bool{true, false}))
	require.NoError(t, err)
	require.Len(t, traces, 4)

	assert.Equal(t, "on", traces[0].Name)
	assert.Equal(t, true, traces[0].Value)
	assert.Equal(t, []Group{{Value: 1, Bits: 1}}, traces[0].Groups)

	assert.Equal(t, []Group{{Value: 2, Bits: 4}}, traces[1].Groups)
	assert.Equal(t, 2, traces[2].Bits)
	assert.Equal(t, []Group{{Value: 1, Bits: 8}, {Value: 'A', Bits: 8}}, traces[3].Groups)
	assert.Equal(t, 16, traces[3].Bits)
}

func TestTrace_Failure(t *testing.T) {
	l := sampleLayout(t)
	// The list claims three elements but only two were written.
	buf := sampleBuffer(t, l, 3, []bool{true, false})

	traces, err := Trace(l, buf)
	require.Error(t, err)
	assert.NotEmpty(t, traces)
	assert.Equal(t, "on", traces[0].Name)
}

func TestFprint(t *testing.T) {
	l := sampleLayout(t)
	var out bytes.Buffer
	require.NoError(t, Fprint(&out, l, sampleBuffer(t, l, 2, []bool{true, false}), Options{}))

	want := "" +
		"on   -> 1 (true / 1 bits)\n" +
		"n    -> 0010 (2 / 4 bits)\n" +
		"bits -> 1 0 ([true, false] / 2 bits)\n" +
		"name -> 00000001 01000001 (\"A\" / 16 bits)\n"
	assert.Equal(t, want, out.String())
}

func TestFprint_EmptyField(t *testing.T) {
	l := sampleLayout(t)
	var out bytes.Buffer
	require.NoError(t, Fprint(&out, l, sampleBuffer(t, l, 0, nil), Options{}))
	assert.Contains(t, out.String(), "bits -> - ([] / 0 bits)\n")
}

func TestFprint_Color(t *testing.T) {
	l := sampleLayout(t)
	var out bytes.Buffer
	require.NoError(t, Fprint(&out, l, sampleBuffer(t, l, 1, []bool{true}), Options{Color: true}))
	assert.Contains(t, out.String(), "0001")
	assert.Contains(t, out.String(), "bits")
}

func TestFprintRecord(t *testing.T) {
	l := sampleLayout(t)
	rec := l.Defaults()
	rec.Set("bits", []bool{true})

	var out bytes.Buffer
	require.NoError(t, FprintRecord(&out, l, rec))
	want := "" +
		"on   -> false\n" +
		"n    -> 0\n" +
		"bits -> [true]\n" +
		"name -> \"\"\n"
	assert.Equal(t, want, out.String())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "null", FormatValue(nil))
	assert.Equal(t, `"x"`, FormatValue("x"))
	assert.Equal(t, "[1, [2, 3]]", FormatValue([]any{1, []int{2, 3}}))
	assert.Equal(t, "7", FormatValue(codec.Some(7)))
}
