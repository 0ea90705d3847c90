package codec

import (
	"reflect"
	"sync"
	"unsafe"

	wasmschema "github.com/wippyai/wasm-schema"
	"github.com/wippyai/wasm-schema/buffer"
	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/mem"
	"github.com/wippyai/wasm-schema/value"
)

// NativeBinary is the codec for the native binary wire format. It is safe for
// concurrent use.
type NativeBinary struct {
	compiler *Compiler
	encoder  *Encoder
	decoder  *Decoder
	limits   Limits
}

func New(opts ...Option) *NativeBinary {
	o := options{limits: DefaultLimits()}
	for _, opt := range opts {
		opt(&o)
	}
	c := &NativeBinary{
		compiler: NewCompiler(),
		encoder:  NewEncoder(o.limits),
		decoder:  NewDecoder(o.limits, o.copyStrings),
		limits:   o.limits,
	}
	c.compiler.logger = o.logger
	return c
}

var defaultCodec = sync.OnceValue(func() *NativeBinary {
	return New()
})

// Default returns the shared codec used by the package-level functions.
func Default() *NativeBinary {
	return defaultCodec()
}

func (c *NativeBinary) Compiler() *Compiler {
	return c.compiler
}

func (c *NativeBinary) Limits() Limits {
	return c.limits
}

// EncodeValue prepends v to w. v may be a value or a pointer to one; a pointer
// is encoded as nullable only when its type says so.
func (c *NativeBinary) EncodeValue(v any, w wasmschema.ReverseWriter) error {
	if v == nil {
		return errors.NilPointer(errors.PhaseEncode, nil, "any")
	}
	rv := reflect.ValueOf(v)
	ct, err := c.compiler.Compile(rv.Type())
	if err != nil {
		return err
	}
	boxed := reflect.New(rv.Type())
	boxed.Elem().Set(rv)
	return c.encoder.EncodeTo(ct, boxed.UnsafePointer(), w)
}

// DecodeValue decodes data into target, which must be a non-nil pointer. On
// failure target is left zeroed.
func (c *NativeBinary) DecodeValue(data []byte, target any, mm wasmschema.MemoryManager) error {
	if target == nil {
		return errors.NilPointer(errors.PhaseDecode, nil, "any")
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.NilPointer(errors.PhaseDecode, nil, rv.Type().String())
	}
	ct, err := c.compiler.Compile(rv.Type().Elem())
	if err != nil {
		return err
	}
	tmp := reflect.New(rv.Type().Elem())
	if err := c.decodeInto(ct, data, tmp.UnsafePointer(), mm); err != nil {
		rv.Elem().SetZero()
		return err
	}
	rv.Elem().Set(tmp.Elem())
	return nil
}

func (c *NativeBinary) decodeInto(ct *CompiledType, data []byte, ptr unsafe.Pointer, mm wasmschema.MemoryManager) error {
	if mm == nil {
		mm = mem.Heap{}
	}
	if !mm.Alive() {
		return errors.ScopeEnded("output")
	}
	return c.decoder.DecodeInto(ct, data, ptr, mm)
}

// Encode encodes v with the default codec into a writer from f.
func Encode[V, O any](v V, f wasmschema.WriterFactory[O]) (O, error) {
	return EncodeWith(Default(), v, f)
}

// EncodeWith encodes v with c into a writer from f. The writer is discarded
// when encoding fails.
func EncodeWith[V, O any](c *NativeBinary, v V, f wasmschema.WriterFactory[O]) (O, error) {
	var zero O
	ct, err := c.compiler.Compile(reflect.TypeFor[V]())
	if err != nil {
		return zero, err
	}
	w, err := f.NewWriter()
	if err != nil {
		return zero, err
	}
	if err := c.encoder.EncodeTo(ct, unsafe.Pointer(&v), w); err != nil {
		w.Discard()
		return zero, err
	}
	return w.Finish()
}

// EncodeBytes encodes v with the default codec into a new byte slice.
func EncodeBytes[V any](v V) ([]byte, error) {
	return Encode[V, []byte](v, buffer.Growable{})
}

// Decode decodes data as V with the default codec. Slices and pointers in the
// result come from mm; strings and byte slices alias data. A nil mm allocates
// from the Go heap.
func Decode[V any](data []byte, mm wasmschema.MemoryManager) (V, error) {
	return DecodeWith[V](Default(), data, mm)
}

func DecodeWith[V any](c *NativeBinary, data []byte, mm wasmschema.MemoryManager) (V, error) {
	var v V
	ct, err := c.compiler.Compile(reflect.TypeFor[V]())
	if err != nil {
		return v, err
	}
	if err := c.decodeInto(ct, data, unsafe.Pointer(&v), mm); err != nil {
		var zero V
		return zero, err
	}
	return v, nil
}

// DecodeBorrowed decodes data and binds the result to mm's scopes.
func DecodeBorrowed[V any](data []byte, mm wasmschema.MemoryManager) (value.Borrowed[V], error) {
	return DecodeBorrowedWith[V](Default(), data, mm)
}

func DecodeBorrowedWith[V any](c *NativeBinary, data []byte, mm wasmschema.MemoryManager) (value.Borrowed[V], error) {
	if mm == nil {
		mm = mem.Heap{}
	}
	v, err := DecodeWith[V](c, data, mm)
	if err != nil {
		return value.Borrowed[V]{}, err
	}
	return value.Bind(v, mm.InputScope(), mm.OutputScope()), nil
}
