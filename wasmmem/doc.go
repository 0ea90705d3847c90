// Package wasmmem reads and writes encoded values in WebAssembly linear
// memory through wazero.
//
// Wrap adapts a wazero api.Memory. Factory is a writer factory that encodes
// straight into a guest region, filling it from its end:
//
//	m := wasmmem.Wrap(module.ExportedMemory("memory"))
//	region, err := codec.Encode(order, wasmmem.Factory{Memory: m, Start: ptr, End: ptr + size})
//
// Input returns a view of a region for decoding. The view aliases guest
// memory and stays valid only until the guest grows its memory or writes
// over the region, so decoded values borrowed from it must be owned before
// control returns to the guest.
package wasmmem
