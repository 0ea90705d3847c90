// Package wasmschema is a schema-driven binary codec.
//
// It maps native Go values onto a compact little-endian wire format, describes
// aggregate message shapes as schemas, and converts between the two with
// zero-copy decoding wherever the wire representation allows it.
//
// # Architecture Overview
//
//	wasmschema/          Root package with Scope, MemoryManager and writer interfaces
//	├── types/           Wire-level type descriptors
//	├── value/           Go type to descriptor mapping, borrowed values, adapters
//	├── schema/          Struct, enum, one-of and state object schema model
//	├── mem/             Two-scope decode arena
//	├── buffer/          Reverse writers (growable and fixed)
//	├── wasmmem/         Reverse writer and input views over wazero linear memory
//	├── codec/           Compiler, encoder, decoder and the codec facade
//	├── envelope/        Persisted frame with schema fingerprint and compression
//	├── config/          YAML configuration
//	├── errors/          Structured error types
//	└── cmd/schemactl/   Schema inspection CLI
//
// # Quick Start
//
//	type Order struct {
//	    ID   uint32
//	    Name string
//	    Tags []string
//	}
//
//	data, err := codec.EncodeBytes(Order{ID: 7, Name: "abc"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	arena := mem.Get()
//	defer arena.Release()
//
//	order, err := codec.Decode[Order](data, arena)
//
// Decoded strings and byte slices alias data. They stay valid until the arena
// is released or its input scope is ended with EndInput; use
// codec.DecodeBorrowed to have that checked at runtime, or value.Clone to
// detach a result from the input.
//
// # Wire Format
//
// Fixed-width integers are little-endian. Strings, bytes and addresses carry a
// u32 length prefix, lists a u32 element count. Nullable values start with a
// presence byte, enums are i32 and one-of values are an i32 discriminant
// followed by the selected case. Struct fields are written in declaration
// order.
//
// Encoding writes back to front: the last field is emitted first and every
// earlier piece is prepended, so no size pre-pass is needed.
package wasmschema
