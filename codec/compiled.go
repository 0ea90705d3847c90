package codec

import (
	"reflect"

	"github.com/wippyai/wasm-schema/types"
	"github.com/wippyai/wasm-schema/value"
)

// CompiledType is the codec's plan for one Go type: its wire kind, the
// offsets of its fields and the plans of its element and case types.
type CompiledType struct {
	GoType    reflect.Type
	SliceType reflect.Type // list: the Go slice type
	Elem      *CompiledType
	Adapter   *value.Adapter
	Cases     []Case
	Fields    []Field
	Enum      *EnumInfo
	State     *StateInfo
	Wire      types.Type
	Name      string
	GoSize    uintptr
	MinSize   int
	Kind      types.Kind
	GoKind    reflect.Kind
}

type Field struct {
	Type     *CompiledType
	Name     string
	GoName   string
	GoOffset uintptr
}

// Case is one alternative of a one-of. The Go field is a pointer to the
// payload type.
type Case struct {
	Type         *CompiledType
	Name         string
	GoName       string
	GoOffset     uintptr
	Discriminant int32
}

type EnumInfo struct {
	Cases  []value.EnumCase
	values map[int32]struct{}
	Sealed bool
}

// Declared reports whether v is one of the declared cases.
func (e *EnumInfo) Declared(v int32) bool {
	_, ok := e.values[v]
	return ok
}

// StateInfo records the key split of a state object. Key fields come first
// in Fields.
type StateInfo struct {
	KeyCount        int
	RetainDeletions bool
}

// IsNamed reports whether the type is a schema type (struct, enum, one-of).
func (ct *CompiledType) IsNamed() bool {
	return ct.Adapter == nil && ct.Kind.IsNamed()
}

func (ct *CompiledType) caseByDiscriminant(d int32) (*Case, bool) {
	for i := range ct.Cases {
		if ct.Cases[i].Discriminant == d {
			return &ct.Cases[i], true
		}
	}
	return nil, false
}

// minSize is the fewest bytes any encoding of ct occupies. A type that
// reaches itself without passing through a nullable or list contributes 0.
func minSize(ct *CompiledType, visiting map[*CompiledType]bool) int {
	if ct.Adapter != nil {
		return minSize(ct.Elem, visiting)
	}
	if size, ok := ct.Wire.FixedSize(); ok {
		return size
	}
	switch ct.Kind {
	case types.KindString, types.KindBytes, types.KindAddress, types.KindList:
		return 4
	case types.KindNullable:
		return 1
	}

	if visiting[ct] {
		return 0
	}
	visiting[ct] = true
	defer delete(visiting, ct)

	switch ct.Kind {
	case types.KindStruct:
		total := 0
		for _, f := range ct.Fields {
			total += minSize(f.Type, visiting)
		}
		return total
	case types.KindOneOf:
		smallest := -1
		for _, c := range ct.Cases {
			if n := minSize(c.Type, visiting); smallest < 0 || n < smallest {
				smallest = n
			}
		}
		return 4 + max(smallest, 0)
	}
	return 0
}
