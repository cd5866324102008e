// Package layout drives field-by-field encoding and decoding of records.
//
// A Layout is an ordered, immutable list of named fields, each bound to a
// codec.Codec. The wire format is the concatenation of each field's encoding
// in declared order with no header, no separators and no versioning:
//
//	l, err := layout.NewBuilder("packet").
//		Field("kind", codec.Must(codec.NewEnum(codec.EnumAutoBits, "ping", "pong"))).
//		Field("count", codec.Must(codec.NewInteger(4, codec.Uint8))).
//		Field("payload", codec.Must(codec.NewListDynamic(codec.Named("count"), u16, codec.ListSlice))).
//		Build()
//
// Decoding stores each value in the Record before moving to the next field,
// so dynamic codecs can take their length from a field decoded earlier. A
// decode that leaves content bits unread fails with codec.ErrTrailingData.
//
// Layouts are safe for concurrent use. Records, Decoders and Encoders belong
// to a single pass and are not.
package layout
