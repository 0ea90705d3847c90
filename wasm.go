package wasmschema

import "reflect"

// Scope is a validity window. Values borrowed under a scope must not be
// read once Alive reports false.
type Scope interface {
	Alive() bool
}

// MemoryManager supplies decode-time allocations. Storage it hands out is
// valid while both the input and the output scope are alive.
type MemoryManager interface {
	InputScope() Scope
	OutputScope() Scope
	Alive() bool
	// MakeSlice returns a slice of sliceType with len == cap == n.
	MakeSlice(sliceType reflect.Type, n int) (reflect.Value, error)
	// New returns a pointer to a zero value of t.
	New(t reflect.Type) (reflect.Value, error)
	Bytes(n int) ([]byte, error)
}

// ReverseWriter builds a buffer from its end toward its start. Every prepend
// returns the relative offset of the written data, measured from the end of
// the eventual output.
type ReverseWriter interface {
	Prepend(p []byte) (int, error)
	PrependByte(b byte) (int, error)
	PrependU16(v uint16) (int, error)
	PrependU32(v uint32) (int, error)
	PrependU64(v uint64) (int, error)
	Len() int
}

// OutputWriter is a ReverseWriter that produces an output artifact.
type OutputWriter[O any] interface {
	ReverseWriter
	Finish() (O, error)
	// Discard releases the writer without producing output.
	Discard()
}

// WriterFactory creates one writer per encode call.
type WriterFactory[O any] interface {
	NewWriter() (OutputWriter[O], error)
}

// Memory represents WASM linear memory
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	Size() uint32
}
