// Package schema describes aggregate message shapes.
//
// A Schema is an immutable, ordered collection of named types (structs,
// enums, one-ofs and state objects) plus message descriptors. Add returns a
// new Schema and never changes the receiver, so a Schema can be shared by any
// number of readers without locking.
//
// Types order by name only. Sorted, Diff and Fingerprint use that order, so
// two schemas listing the same types in different orders hash identically.
// Name uniqueness is enforced by Builder and Validate, not by Add.
//
// Schemas are authored as YAML or JSONC files:
//
//	types:
//	  - kind: struct
//	    name: Order
//	    fields:
//	      - {name: id, type: u32}
//	      - {name: tags, type: list<string>}
//	messages:
//	  - name: PlaceOrder
//	    request: struct Order
//	    response: u64
package schema
