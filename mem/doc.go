// Package mem provides the memory managers decoding allocates from.
//
// An Arena hands out typed slices and single values from append-only slabs.
// Slabs never move or grow in place, so a slice handed out stays valid and
// unaliased until the arena is released. Every arena carries two scopes:
//
//	input  - ends when the caller gives up the encoded buffer (EndInput)
//	output - ends when the arena itself is released (Release)
//
// Decoded values may alias both: strings and byte slices point into the
// input, slices and pointers into the arena. value.Borrowed checks both
// scopes before handing a value out.
//
// Arenas are pooled:
//
//	arena := mem.Get()
//	defer arena.Release()
//
// Heap is the alternative for callers that own results immediately. It
// allocates from the Go heap and its scopes never end.
package mem
