package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitspec/pkg/bitio"
)

func TestStringTerminated(t *testing.T) {
	c := Must(NewStringTerminated(0))

	buf := encode(t, c, "hello")
	assert.Equal(t, []byte("hello\x00"), buf.Bytes())
	assert.Equal(t, "hello", decode(t, c, buf, nil))
	assert.Equal(t, "", roundTrip(t, c, ""))

	err := c.Write(bitio.NewWriter(), "hel\x00lo")
	assert.ErrorIs(t, err, ErrIllegalContent)

	_, err = NewStringTerminated(0x80)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestStringTerminated_ReadsToEndOfStream(t *testing.T) {
	c := Must(NewStringTerminated('\n'))
	r := bitio.NewReader(bitio.FromBytes([]byte("abc")))

	v, err := c.Read(r, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
	assert.False(t, r.HasMore())
}

func TestStringTerminated_Unaligned(t *testing.T) {
	c := Must(NewStringTerminated(';'))
	w := bitio.NewWriter()
	require.NoError(t, w.WriteBits(1, 3))
	require.NoError(t, c.Write(w, "a"))

	r := bitio.NewReader(w.Buffer())
	_, err := r.ReadBits(3)
	require.NoError(t, err)
	v, err := c.Read(r, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestStringFixed(t *testing.T) {
	testCases := []struct {
		name    string
		opts    FixedOptions
		in      string
		want    string
		wantErr error
	}{
		{"exact", FixedOptions{}, "hello", "hello", nil},
		{"padded", FixedOptions{AutoResize: true}, "hi", "hi\x00\x00\x00", nil},
		{"padded and cut", FixedOptions{AutoResize: true, CutPadding: true}, "hi", "hi", nil},
		{"too short", FixedOptions{}, "hi", "", ErrLengthMismatch},
		{"sliced", FixedOptions{Slice: true}, "hello world", "hello", nil},
		{"too long", FixedOptions{AutoResize: true}, "hello world", "", ErrLengthMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Must(NewStringFixed(5, tc.opts))
			w := bitio.NewWriter()
			err := c.Write(w, tc.in)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 40, w.BitLen())
			assert.Equal(t, tc.want, decode(t, c, w.Buffer(), nil))
		})
	}
}

func TestStringFixed_CutPaddingIsLossy(t *testing.T) {
	c := Must(NewStringFixed(3, FixedOptions{CutPadding: true}))
	assert.Equal(t, "a", roundTrip(t, c, "a\x00\x00"))
}

func TestStringFixed_Defaults(t *testing.T) {
	assert.Equal(t, "", Must(NewStringFixed(4, DefaultFixedOptions)).Default())

	strict := Must(NewStringFixed(4, FixedOptions{}))
	def := strict.Default()
	assert.Equal(t, "\x00\x00\x00\x00", def)
	assert.NoError(t, strict.Write(bitio.NewWriter(), def))

	_, err := NewStringFixed(-1, DefaultFixedOptions)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestStringDynamic_Auto(t *testing.T) {
	c := Must(NewStringDynamic(Auto(8, false)))
	buf := encode(t, c, "hello")
	assert.Equal(t, 8+40, buf.BitLen())
	assert.Equal(t, byte(5), buf.Bytes()[0])
	assert.Equal(t, "hello", decode(t, c, buf, nil))

	def := Must(NewStringDynamic(DefaultAuto))
	assert.Equal(t, 16, encode(t, def, "").BitLen())
}

func TestStringDynamic_LengthOverflow(t *testing.T) {
	c := Must(NewStringDynamic(Auto(2, false)))
	assert.Equal(t, "abc", roundTrip(t, c, "abc"))

	err := c.Write(bitio.NewWriter(), "abcd")
	assert.ErrorIs(t, err, ErrLengthOverflow)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestStringDynamic_Named(t *testing.T) {
	c := Must(NewStringDynamic(Named("n")))
	buf := encode(t, c, "abc")
	assert.Equal(t, 24, buf.BitLen())

	assert.Equal(t, "abc", decode(t, c, buf, mapContext{"n": int16(3)}))

	_, err := c.Read(bitio.NewReader(buf), nil)
	assert.ErrorIs(t, err, ErrUnresolvedLengthField)

	_, err = c.Read(bitio.NewReader(buf), mapContext{"n": int8(-1)})
	assert.ErrorIs(t, err, ErrCorruptData)

	_, err = c.Read(bitio.NewReader(buf), mapContext{"n": "three"})
	assert.ErrorIs(t, err, ErrSchema)

	_, err = c.Read(bitio.NewReader(buf), mapContext{"n": uint8(4)})
	assert.ErrorIs(t, err, ErrOutOfData)
}

func TestStringDynamic_NegativeAutoLength(t *testing.T) {
	c := Must(NewStringDynamic(Auto(4, true)))
	buf, err := bitio.NewBuffer([]byte{0xF0}, 4)
	require.NoError(t, err)

	_, err = c.Read(bitio.NewReader(buf), nil)
	assert.ErrorIs(t, err, ErrCorruptData)

	_, err = NewStringDynamic(Auto(0, false))
	assert.ErrorIs(t, err, ErrSchema)
}
