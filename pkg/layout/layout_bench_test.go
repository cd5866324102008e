//go:build bench
// +build bench

package layout

import (
	"strconv"
	"testing"

	"github.com/ssargent/bitspec/pkg/codec"
)

func benchLayout(b *testing.B, n int) (*Layout, *Record) {
	b.Helper()
	l, err := NewBuilder("bench").
		Field("count", codec.Must(codec.NewInteger(16, codec.Uint16))).
		Field("samples", codec.Must(codec.NewListDynamic(
			codec.Named("count"),
			codec.Must(codec.NewInteger(12, codec.Int16)),
			codec.ListSlice,
		))).
		Field("label", codec.Must(codec.NewStringDynamic(codec.Auto(8, false)))).
		Build()
	if err != nil {
		b.Fatal(err)
	}

	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(i%4096 - 2048)
	}
	rec := NewRecord()
	rec.Set("count", n)
	rec.Set("samples", samples)
	rec.Set("label", "benchmark")
	return l, rec
}

func BenchmarkLayout_Encode(b *testing.B) {
	for _, n := range []int{0, 16, 1024} {
		l, rec := benchLayout(b, n)
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := l.Encode(rec); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkLayout_Decode(b *testing.B) {
	for _, n := range []int{0, 16, 1024} {
		l, rec := benchLayout(b, n)
		buf, err := l.Encode(rec)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(buf.Len()))
			for i := 0; i < b.N; i++ {
				if _, err := l.Decode(buf); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
