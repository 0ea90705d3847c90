package mem

import (
	"reflect"

	wasmschema "github.com/wippyai/wasm-schema"
	"github.com/wippyai/wasm-schema/errors"
)

var _ wasmschema.MemoryManager = Heap{}

// Heap allocates from the Go heap. Its scopes never end, so values decoded
// with it are owned by the garbage collector, except for strings and byte
// slices that alias the input unless the codec copies them.
type Heap struct{}

func (Heap) InputScope() wasmschema.Scope  { return liveScope{} }
func (Heap) OutputScope() wasmschema.Scope { return liveScope{} }
func (Heap) Alive() bool                   { return true }

func (Heap) MakeSlice(sliceType reflect.Type, n int) (reflect.Value, error) {
	if sliceType.Kind() != reflect.Slice {
		return reflect.Value{}, errors.TypeMismatch(errors.PhaseDecode, nil, sliceType.String(), "slice")
	}
	if n < 0 {
		return reflect.Value{}, errors.InvalidData(errors.PhaseDecode, nil, "negative slice length")
	}
	return reflect.MakeSlice(sliceType, n, n), nil
}

func (Heap) New(t reflect.Type) (reflect.Value, error) {
	return reflect.New(t), nil
}

func (Heap) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "negative slice length")
	}
	return make([]byte, n), nil
}
