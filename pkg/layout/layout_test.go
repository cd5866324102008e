package layout

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitspec/pkg/bitio"
	"github.com/ssargent/bitspec/pkg/codec"
)

func TestLayout_RoundTrip(t *testing.T) {
	l := packetLayout(t)

	in := recordOf(
		"flag", true,
		"externalLengthField", int32(3),
		"items", []uint8{1, 2, 3},
		"label", "hi",
	)
	buf, err := l.Encode(in)
	require.NoError(t, err)
	// 1 + 32 + 3*8 + 8 + 2*8 bits
	assert.Equal(t, 81, buf.BitLen())
	assert.Equal(t, 7, buf.Padding())

	out, err := l.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"flag", "externalLengthField", "items", "label"}, out.Names())
	assert.Equal(t, in.Map(), out.Map())

	v, _ := out.Get("items")
	assert.Equal(t, []uint8{1, 2, 3}, v)
}

func TestLayout_WrongExternalLength(t *testing.T) {
	l := packetLayout(t)

	buf, err := l.Encode(recordOf(
		"flag", false,
		"externalLengthField", 2,
		"items", []uint8{1, 2, 3},
		"label", "",
	))
	require.NoError(t, err)

	_, err = l.Decode(buf)
	require.Error(t, err)
	assert.True(t,
		errors.Is(err, codec.ErrTrailingData) || errors.Is(err, codec.ErrOutOfData),
		"unexpected error %v", err)
}

func TestLayout_TrailingData(t *testing.T) {
	l, err := New("one", Field{Name: "b", Codec: codec.NewBool()})
	require.NoError(t, err)

	w := bitio.NewWriter()
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteBool(false))

	_, err = l.Decode(w.Buffer())
	assert.ErrorIs(t, err, codec.ErrTrailingData)

	// DecodeFrom leaves the rest for the caller.
	r := bitio.NewReader(w.Buffer())
	rec, err := l.DecodeFrom(r)
	require.NoError(t, err)
	v, _ := rec.Get("b")
	assert.Equal(t, true, v)
	assert.Equal(t, 1, r.Remaining())
}

func TestLayout_PaddingIsNotTrailingData(t *testing.T) {
	l, err := New("one", Field{Name: "b", Codec: codec.NewBool()})
	require.NoError(t, err)

	buf, err := bitio.NewBuffer([]byte{0x80}, 7)
	require.NoError(t, err)
	rec, err := l.Decode(buf)
	require.NoError(t, err)
	v, _ := rec.Get("b")
	assert.Equal(t, true, v)
}

func TestLayout_OutOfData(t *testing.T) {
	l := packetLayout(t)
	_, err := l.Decode(bitio.FromBytes([]byte{0x80}))
	assert.ErrorIs(t, err, codec.ErrOutOfData)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "packet", fe.Layout)
	assert.Equal(t, "externalLengthField", fe.Field)
}

func TestLayout_ForwardReference(t *testing.T) {
	u8 := codec.Must(codec.NewInteger(8, codec.Uint8))
	l, err := New("forward",
		Field{Name: "items", Codec: codec.Must(codec.NewListDynamic(codec.Named("n"), u8, codec.ListSlice))},
		Field{Name: "n", Codec: u8},
	)
	require.NoError(t, err)

	_, err = l.Decode(bitio.FromBytes([]byte{1, 2}))
	assert.ErrorIs(t, err, codec.ErrUnresolvedLengthField)
}

func TestNew_Validation(t *testing.T) {
	b := codec.NewBool()
	u8 := codec.Must(codec.NewInteger(8, codec.Uint8))

	tests := []struct {
		name   string
		layout string
		fields []Field
	}{
		{"no name", "", []Field{{Name: "a", Codec: b}}},
		{"empty field name", "x", []Field{{Name: "", Codec: b}}},
		{"nil codec", "x", []Field{{Name: "a"}}},
		{"duplicate", "x", []Field{{Name: "a", Codec: b}, {Name: "a", Codec: b}}},
		{"unknown length field", "x", []Field{
			{Name: "a", Codec: codec.Must(codec.NewListDynamic(codec.Named("n"), u8, codec.ListSlice))},
		}},
		{"unknown nested length field", "x", []Field{
			{Name: "n", Codec: u8},
			{Name: "a", Codec: codec.Must(codec.NewListFixed(2,
				codec.Must(codec.NewStringDynamic(codec.Named("m"))), codec.ListSlice))},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.layout, tt.fields...)
			assert.ErrorIs(t, err, codec.ErrSchema)
		})
	}
}

func TestLayout_EmptyLayout(t *testing.T) {
	l, err := New("empty")
	require.NoError(t, err)

	buf, err := l.Encode(NewRecord())
	require.NoError(t, err)
	assert.True(t, buf.IsEmpty())

	rec, err := l.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Len())
}

func TestLayout_EncodeErrors(t *testing.T) {
	l := packetLayout(t)

	t.Run("missing field", func(t *testing.T) {
		_, err := l.Encode(recordOf("flag", true))
		assert.ErrorIs(t, err, codec.ErrSchema)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "externalLengthField", fe.Field)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := l.Defaults()
		rec.Set("bogus", 1)
		_, err := l.Encode(rec)
		assert.ErrorIs(t, err, codec.ErrSchema)
	})

	t.Run("codec failure", func(t *testing.T) {
		rec := l.Defaults()
		rec.Set("items", []uint8{1, 2})
		rec.Set("label", string(make([]byte, 300)))
		_, err := l.Encode(rec)
		assert.ErrorIs(t, err, codec.ErrLengthOverflow)
	})
}

func TestLayout_Defaults(t *testing.T) {
	l := packetLayout(t)
	rec := l.Defaults()

	assert.Equal(t, []string{"flag", "externalLengthField", "items", "label"}, rec.Names())
	v, _ := rec.Get("flag")
	assert.Equal(t, false, v)
	v, _ = rec.Get("externalLengthField")
	assert.Equal(t, int32(0), v)
	v, _ = rec.Get("label")
	assert.Equal(t, "", v)

	buf, err := l.Encode(rec)
	require.NoError(t, err)
	_, err = l.Decode(buf)
	require.NoError(t, err)
}

func TestLayout_Fingerprint(t *testing.T) {
	a := packetLayout(t)
	b := packetLayout(t)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.FingerprintHex(), 64)

	c, err := NewBuilder("packet").Field("flag", codec.NewBool()).Build()
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	d, err := NewBuilder("other").Field("flag", codec.NewBool()).Build()
	require.NoError(t, err)
	assert.NotEqual(t, c.Fingerprint(), d.Fingerprint())
}

func TestLayout_Accessors(t *testing.T) {
	l := packetLayout(t)
	assert.Equal(t, "packet", l.Name())
	assert.Equal(t, 4, l.Len())

	f, ok := l.Field("items")
	require.True(t, ok)
	assert.Equal(t, "items:list[@externalLengthField,slice](uint8(8))", f.String())
	_, ok = l.Field("nope")
	assert.False(t, ok)

	fields := l.Fields()
	fields[0].Name = "changed"
	assert.Equal(t, "flag", l.Fields()[0].Name)
}

func TestDecoder_Stepwise(t *testing.T) {
	l := packetLayout(t)
	buf, err := l.Encode(recordOf(
		"flag", true,
		"externalLengthField", 1,
		"items", []uint8{9},
		"label", "x",
	))
	require.NoError(t, err)

	d := l.NewDecoder(bitio.NewReader(buf))
	assert.Equal(t, NotStarted, d.State())

	f, v, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, "flag", f.Name)
	assert.Equal(t, true, v)
	assert.Equal(t, FieldsInProgress, d.State())
	assert.Equal(t, 1, d.Record().Len())

	for i := 0; i < 3; i++ {
		_, _, err = d.Next()
		require.NoError(t, err)
	}
	_, _, err = d.Next()
	assert.Equal(t, io.EOF, err)

	rec, err := d.Finish()
	require.NoError(t, err)
	assert.Equal(t, Complete, d.State())
	assert.Equal(t, 4, rec.Len())
}

func TestDecoder_FailedIsSticky(t *testing.T) {
	l := packetLayout(t)
	d := l.NewDecoder(bitio.NewReader(bitio.FromBytes([]byte{0x80})))

	_, _, err := d.Next()
	require.NoError(t, err)
	_, _, err = d.Next()
	require.ErrorIs(t, err, codec.ErrOutOfData)
	assert.Equal(t, Failed, d.State())

	_, _, again := d.Next()
	assert.Equal(t, err, again)
	_, err = d.Finish()
	assert.ErrorIs(t, err, codec.ErrOutOfData)
}

func TestEncoder_States(t *testing.T) {
	l := packetLayout(t)
	w := bitio.NewWriter()
	e := l.NewEncoder(w)
	assert.Equal(t, NotStarted, e.State())

	require.NoError(t, e.Encode(l.Defaults()))
	assert.Equal(t, Flushed, e.State())
	assert.Error(t, e.Encode(l.Defaults()))

	bad := l.NewEncoder(bitio.NewWriter())
	err := bad.Encode(recordOf("flag", "maybe"))
	require.Error(t, err)
	assert.Equal(t, Failed, bad.State())
	assert.Equal(t, err, bad.Encode(l.Defaults()))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "not-started", NotStarted.String())
	assert.Equal(t, "fields-in-progress", FieldsInProgress.String())
	assert.Equal(t, "complete", Complete.String())
	assert.Equal(t, "flushed", Flushed.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
