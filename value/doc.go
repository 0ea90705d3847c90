// Package value maps Go types onto wire descriptors.
//
// Every serializable Go type has exactly one descriptor, returned by Describe.
// Decoding produces the scope-bound form of a type: strings and byte slices
// alias the input buffer, slices and pointers live in the decode arena.
// BorrowedOf relates a scope-free handle (String, List) to that scope-bound
// form, and the two paths always agree on the descriptor.
//
// Named aggregates are plain Go structs. Enums are integer types implementing
// Enum; one-of values are structs implementing OneOf with one pointer field per
// case, exactly one of which is set. Feature types the codec does not know
// natively are added with RegisterAdapter.
//
// Borrowed wraps a decoded value together with the scopes it depends on, and
// Clone produces the owned counterpart.
package value
