package value

import (
	"reflect"
	"time"

	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/types"
)

// String is the scope-free handle for text. Its scope-bound form is string.
type String string

// List is the scope-free handle for a list. Its scope-bound form is a slice of
// the scope-bound element type.
type List[T any] []T

type handle interface {
	scopeFree()
}

func (String) scopeFree()  {}
func (List[T]) scopeFree() {}

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
	uint128Type  = reflect.TypeFor[Uint128]()
	int128Type   = reflect.TypeFor[Int128]()
	addressType  = reflect.TypeFor[Address]()
	stringType   = reflect.TypeFor[string]()
	handleString = reflect.TypeFor[String]()

	handleIface  = reflect.TypeFor[handle]()
	enumIface    = reflect.TypeFor[Enum]()
	unsealIface  = reflect.TypeFor[Unsealed]()
	oneOfIface   = reflect.TypeFor[OneOf]()
	namedIface   = reflect.TypeFor[Named]()
	stateIface   = reflect.TypeFor[StateObject]()
	retainIface  = reflect.TypeFor[DeletionRetainer]()
)

// DescriptorOf returns the descriptor of V.
func DescriptorOf[V any]() (types.Type, error) {
	return Describe(reflect.TypeFor[V]())
}

// ScalarDescriptor returns the descriptor of a scalar type. Unlike
// DescriptorOf it cannot fail: non-scalar types do not satisfy the constraint.
func ScalarDescriptor[S Scalar]() types.Type {
	t, _ := Describe(reflect.TypeFor[S]())
	return t
}

// Describe returns the wire descriptor of a Go type.
func Describe(t reflect.Type) (types.Type, error) {
	return describe(t, nil)
}

func describe(t reflect.Type, path []string) (types.Type, error) {
	if t == nil {
		return types.Type{}, errors.NilPointer(errors.PhaseCompile, path, "nil")
	}
	if a, ok := LookupAdapter(t); ok {
		return a.Type, nil
	}

	switch t {
	case timeType:
		return types.Time(), nil
	case durationType:
		return types.Duration(), nil
	case uint128Type:
		return types.UIntN(16), nil
	case int128Type:
		return types.IntN(16), nil
	case addressType:
		return types.Address(), nil
	}

	if IsEnum(t) {
		switch t.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Int8, reflect.Int16, reflect.Int32:
		default:
			return types.Type{}, errors.TypeMismatch(errors.PhaseCompile, path, t.String(), "enum (integer of at most 32 bits)")
		}
		name := TypeName(t)
		if name == "" {
			return types.Type{}, unnamed(path, t)
		}
		return types.EnumRef(name), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return types.Bool(), nil
	case reflect.Uint8:
		return types.U8(), nil
	case reflect.Uint16:
		return types.U16(), nil
	case reflect.Uint32:
		return types.U32(), nil
	case reflect.Uint64:
		return types.U64(), nil
	case reflect.Int8:
		return types.I8(), nil
	case reflect.Int16:
		return types.I16(), nil
	case reflect.Int32:
		return types.I32(), nil
	case reflect.Int64:
		return types.I64(), nil
	case reflect.String:
		return types.Str(), nil

	case reflect.Slice:
		if isByteElem(t.Elem()) {
			return types.Bytes(), nil
		}
		elem, err := describe(t.Elem(), append(append([]string{}, path...), "[elem]"))
		if err != nil {
			return types.Type{}, err
		}
		if !elem.IsListElement() {
			return types.Type{}, errors.New(errors.PhaseCompile, errors.KindUnsupported).
				Path(path...).
				GoType(t.String()).
				Detail("%s is not a list element type", elem).
				Build()
		}
		return types.List(elem), nil

	case reflect.Pointer:
		inner, err := describe(t.Elem(), append(append([]string{}, path...), "[some]"))
		if err != nil {
			return types.Type{}, err
		}
		if inner.Kind == types.KindNullable {
			return types.Type{}, errors.New(errors.PhaseCompile, errors.KindUnsupported).
				Path(path...).
				GoType(t.String()).
				Detail("nullable of nullable").
				Build()
		}
		return types.Nullable(inner), nil

	case reflect.Struct:
		name := TypeName(t)
		if name == "" {
			return types.Type{}, unnamed(path, t)
		}
		if IsOneOf(t) {
			return types.OneOfRef(name), nil
		}
		return types.StructRef(name), nil
	}

	return types.Type{}, errors.New(errors.PhaseCompile, errors.KindUnsupported).
		Path(path...).
		GoType(t.String()).
		Detail("no wire mapping for %s", t.Kind()).
		Build()
}

func unnamed(path []string, t reflect.Type) error {
	return errors.New(errors.PhaseCompile, errors.KindUnsupported).
		Path(path...).
		GoType(t.String()).
		Detail("anonymous types have no schema name").
		Build()
}

func isByteElem(t reflect.Type) bool {
	if t.Kind() != reflect.Uint8 || IsEnum(t) {
		return false
	}
	_, adapted := LookupAdapter(t)
	return !adapted
}

// BorrowedOf returns the scope-bound type decoding produces for t. Scope-free
// handles map to their native forms; every other type maps to itself, with
// pointers and slices mapped element-wise.
func BorrowedOf(t reflect.Type) (reflect.Type, error) {
	if _, err := Describe(t); err != nil {
		return nil, err
	}
	return borrowedOf(t), nil
}

func borrowedOf(t reflect.Type) reflect.Type {
	if t == handleString {
		return stringType
	}
	if _, ok := LookupAdapter(t); ok {
		return t
	}
	switch t.Kind() {
	case reflect.Slice:
		if t.Implements(handleIface) {
			return reflect.SliceOf(borrowedOf(t.Elem()))
		}
		if elem := borrowedOf(t.Elem()); elem != t.Elem() {
			return reflect.SliceOf(elem)
		}
	case reflect.Pointer:
		if elem := borrowedOf(t.Elem()); elem != t.Elem() {
			return reflect.PointerTo(elem)
		}
	}
	return t
}

// BorrowedType is the generic form of BorrowedOf.
func BorrowedType[V any]() (reflect.Type, error) {
	return BorrowedOf(reflect.TypeFor[V]())
}

// TypeName is the schema name of a named Go type.
func TypeName(t reflect.Type) string {
	if n, ok := as[Named](t, namedIface); ok {
		return n.SchemaName()
	}
	return t.Name()
}

func IsEnum(t reflect.Type) bool {
	return implements(t, enumIface)
}

func IsOneOf(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && implements(t, oneOfIface)
}

func IsStateObject(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && implements(t, stateIface)
}

// EnumCasesOf returns the declared cases of an enum type and whether it is
// sealed.
func EnumCasesOf(t reflect.Type) (cases []EnumCase, sealed bool, ok bool) {
	e, ok := as[Enum](t, enumIface)
	if !ok {
		return nil, false, false
	}
	return e.EnumCases(), IsSealed(t), true
}

// IsSealed reports whether t rejects values outside its declared cases.
// Types are sealed unless they implement Unsealed.
func IsSealed(t reflect.Type) bool {
	return !implements(t, unsealIface)
}

// StateKeyOf returns the key field names of a state object type.
func StateKeyOf(t reflect.Type) (keys []string, retainDeletions bool, ok bool) {
	s, ok := as[StateObject](t, stateIface)
	if !ok {
		return nil, false, false
	}
	if r, ok := as[DeletionRetainer](t, retainIface); ok {
		retainDeletions = r.RetainDeletions()
	}
	return s.StateKey(), retainDeletions, true
}

// Pointer types never implement the marker interfaces themselves; a *Color
// is a nullable enum, not an enum.
func implements(t reflect.Type, iface reflect.Type) bool {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return false
	}
	return t.Implements(iface) || reflect.PointerTo(t).Implements(iface)
}

// as returns a zero value of t viewed as I. Methods with pointer receivers
// are reached through a fresh pointer.
func as[I any](t reflect.Type, iface reflect.Type) (I, bool) {
	var zero I
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return zero, false
	}
	switch {
	case t.Implements(iface):
		return reflect.Zero(t).Interface().(I), true
	case reflect.PointerTo(t).Implements(iface):
		return reflect.New(t).Interface().(I), true
	}
	return zero, false
}
