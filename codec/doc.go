// Package codec encodes Go values to the native binary wire format and
// decodes them back.
//
// A Compiler turns a Go type into a CompiledType once: field offsets, element
// types, one-of cases and enum values are resolved up front and cached, so
// encoding and decoding walk raw memory without reflection on the hot path.
//
// # Encoding
//
// The Encoder writes back to front through a wasmschema.ReverseWriter. The
// writer comes from a factory, which decides where the bytes land:
//
//	data, err := codec.Encode(order, buffer.Growable{})
//	region, err := codec.Encode(order, wasmmem.Factory{Memory: m, Start: p, End: p + n})
//
// # Decoding
//
// The Decoder reads front to back with a bounds check before every read.
// Strings and byte slices alias the input; slices and pointers come from the
// MemoryManager:
//
//	arena := mem.Get()
//	defer arena.Release()
//	order, err := codec.Decode[Order](data, arena)
//
// DecodeBorrowed wraps the result in a value.Borrowed tied to the arena's
// scopes. WithCopyStrings detaches strings and byte slices from the input.
//
// # Limits
//
// Limits caps string sizes, list lengths and nesting depth on both sides.
// Decoding also refuses any list whose count could not fit in the remaining
// input before allocating it.
package codec
