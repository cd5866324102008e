// Package codec maps declared field shapes to bit-level read and write
// algorithms.
//
// A Codec reads one value from a bitio.Reader and writes one value to a
// bitio.Writer. Scalar codecs cover integers of any width, LEB128 varints,
// IEEE-754 floats, booleans, enums and three string encodings. Structural
// codecs wrap an element codec and add repetition, length or presence logic:
// fixed and dynamic arrays, lists, sets and optionals.
//
// # Lengths
//
// Dynamic codecs take their element count from a LengthSource:
//
//	codec.Auto(16, false) // 16-bit unsigned prefix written before the data
//	codec.Named("count")  // value of the field "count", decoded earlier
//
// Named lengths are resolved through the Context passed to Read. They write
// nothing; the referenced field is responsible for carrying the count.
//
// # Value Types
//
// Every codec reports the Go type it decodes into through Type:
//
//	int(n), uint(n)     int8..int64, uint8..uint64, *big.Int, *uint256.Int
//	varint, uvarint     int8..int64, uint8..uint64
//	float32, float64    float32, float64
//	bool                bool
//	strings             string
//	enum                the variant type E
//	array               nested []T
//	list                []T, *list.List or FrozenList
//	set                 map[T]struct{}, *OrderedSet or FrozenSet
//	optional            *T, Option, sql.NullInt32, sql.NullInt64 or sql.NullFloat64
//
// Writers are lenient: integer codecs accept any Go integer, integral
// float64, json.Number and decimal strings; sequence codecs accept any slice
// or array; optionals accept nil for absence. Plain converts decoded values
// back into that document-friendly form.
//
// # Registry
//
// Registry maps shape names ("int", "string-dynamic", "array", ...) to
// factories that validate parameters and build codecs. NewDefaultRegistry
// holds every built-in shape; applications register more with Register.
//
// # Error Handling
//
// Failures wrap the sentinels in errors.go and are matched with errors.Is.
// They are terminal: a Reader or Writer that returned an error should be
// discarded along with the partial result.
//
// # Thread Safety
//
// Codecs are immutable after construction and safe for concurrent use.
package codec
