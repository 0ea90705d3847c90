package value

import (
	"reflect"
	"sync"

	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/types"
)

// Adapter maps a Go type the codec does not know natively onto a carrier type
// it does. Values are converted to the carrier before encoding and back after
// decoding, so adapted values are always owned.
type Adapter struct {
	Native   reflect.Type
	Carrier  reflect.Type
	Type     types.Type
	toWire   func(reflect.Value) (reflect.Value, error)
	fromWire func(reflect.Value) (reflect.Value, error)
}

var adapters sync.Map // reflect.Type -> *Adapter

// RegisterAdapter adds a mapping from T to the wire form of its carrier C.
// Registering the same native type twice fails.
func RegisterAdapter[T, C any](toWire func(T) (C, error), fromWire func(C) (T, error)) (*Adapter, error) {
	native := reflect.TypeFor[T]()
	carrier := reflect.TypeFor[C]()

	if native == carrier {
		return nil, errors.InvalidInput(errors.PhaseCompile, "adapter carrier must differ from "+native.String())
	}
	if _, ok := LookupAdapter(carrier); ok {
		return nil, errors.InvalidInput(errors.PhaseCompile, "adapter carrier "+carrier.String()+" is itself adapted")
	}
	desc, err := Describe(carrier)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		Native:  native,
		Carrier: carrier,
		Type:    desc,
		toWire: func(v reflect.Value) (reflect.Value, error) {
			c, err := toWire(v.Interface().(T))
			return reflect.ValueOf(&c).Elem(), err
		},
		fromWire: func(v reflect.Value) (reflect.Value, error) {
			n, err := fromWire(v.Interface().(C))
			return reflect.ValueOf(&n).Elem(), err
		},
	}

	if _, loaded := adapters.LoadOrStore(native, a); loaded {
		return nil, errors.DuplicateName(errors.PhaseCompile, nil, native.String())
	}
	return a, nil
}

// LookupAdapter returns the adapter registered for t.
func LookupAdapter(t reflect.Type) (*Adapter, bool) {
	a, ok := adapters.Load(t)
	if !ok {
		return nil, false
	}
	return a.(*Adapter), true
}

// ToWire converts a native value to an addressable carrier value.
func (a *Adapter) ToWire(native reflect.Value) (reflect.Value, error) {
	c, err := a.toWire(native)
	if err != nil {
		return reflect.Value{}, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			GoType(a.Native.String()).
			WireType(a.Type.String()).
			Cause(err).
			Detail("adapter rejected value").
			Build()
	}
	return c, nil
}

// FromWire converts a decoded carrier value to an addressable native value.
func (a *Adapter) FromWire(carrier reflect.Value) (reflect.Value, error) {
	n, err := a.fromWire(carrier)
	if err != nil {
		return reflect.Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			GoType(a.Native.String()).
			WireType(a.Type.String()).
			Cause(err).
			Detail("adapter rejected value").
			Build()
	}
	return n, nil
}
