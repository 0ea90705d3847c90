package value

import (
	wasmschema "github.com/wippyai/wasm-schema"
	"github.com/wippyai/wasm-schema/errors"
)

// Borrowed is a decoded value bound to the scopes it may reference: the input
// buffer it aliases and the arena that holds its slices and pointers.
type Borrowed[V any] struct {
	value  V
	input  wasmschema.Scope
	output wasmschema.Scope
}

// Bind ties v to its scopes. A nil scope is always alive.
func Bind[V any](v V, input, output wasmschema.Scope) Borrowed[V] {
	return Borrowed[V]{value: v, input: input, output: output}
}

// Owned wraps a value that references no scope.
func Owned[V any](v V) Borrowed[V] {
	return Borrowed[V]{value: v}
}

func (b Borrowed[V]) IsLive() bool {
	return alive(b.input) && alive(b.output)
}

// Get returns the value while both scopes are alive.
func (b Borrowed[V]) Get() (V, error) {
	var zero V
	if !alive(b.input) {
		return zero, errors.ScopeEnded("input")
	}
	if !alive(b.output) {
		return zero, errors.ScopeEnded("output")
	}
	return b.value, nil
}

// Own returns a deep copy that references neither scope.
func (b Borrowed[V]) Own() (V, error) {
	v, err := b.Get()
	if err != nil {
		return v, err
	}
	return Clone(v), nil
}

func alive(s wasmschema.Scope) bool {
	return s == nil || s.Alive()
}
