package schema

import (
	"slices"
	"strings"

	"github.com/wippyai/wasm-schema/types"
)

// Kind identifies a schema type variant.
type Kind uint8

const (
	KindStruct Kind = iota + 1
	KindEnum
	KindOneOf
	KindStateObject
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindOneOf:
		return "oneof"
	case KindStateObject:
		return "state_object"
	default:
		return "unknown"
	}
}

func parseKind(s string) (Kind, bool) {
	switch s {
	case "struct":
		return KindStruct, true
	case "enum":
		return KindEnum, true
	case "oneof", "one_of":
		return KindOneOf, true
	case "state_object":
		return KindStateObject, true
	}
	return 0, false
}

// Type is one named entry in a Schema. The set of implementations is closed.
type Type interface {
	Name() string
	Kind() Kind
	schemaType()
}

type Field struct {
	Name string     `cbor:"1,keyasint" yaml:"name" json:"name"`
	Type types.Type `cbor:"2,keyasint" yaml:"type" json:"type"`
}

type EnumValue struct {
	Name  string `cbor:"1,keyasint" yaml:"name" json:"name"`
	Value int32  `cbor:"2,keyasint" yaml:"value" json:"value"`
}

type OneOfCase struct {
	Name         string     `cbor:"1,keyasint" yaml:"name" json:"name"`
	Discriminant int32      `cbor:"2,keyasint" yaml:"discriminant" json:"discriminant"`
	Type         types.Type `cbor:"3,keyasint" yaml:"type" json:"type"`
}

// StructType is a record with named, ordered fields.
type StructType struct {
	TypeName string
	Fields   []Field
	Sealed   bool
}

// EnumType is a closed or open set of named i32 values.
type EnumType struct {
	TypeName string
	Values   []EnumValue
	Sealed   bool
}

// OneOfType selects exactly one of its cases.
type OneOfType struct {
	TypeName string
	Cases    []OneOfCase
}

// StateObjectType is a record persisted as application state. Key fields
// identify an object; value fields hold its current version.
type StateObjectType struct {
	TypeName        string
	KeyFields       []Field
	ValueFields     []Field
	RetainDeletions bool
}

func (t *StructType) Name() string      { return t.TypeName }
func (t *EnumType) Name() string        { return t.TypeName }
func (t *OneOfType) Name() string       { return t.TypeName }
func (t *StateObjectType) Name() string { return t.TypeName }

func (*StructType) Kind() Kind      { return KindStruct }
func (*EnumType) Kind() Kind        { return KindEnum }
func (*OneOfType) Kind() Kind       { return KindOneOf }
func (*StateObjectType) Kind() Kind { return KindStateObject }

func (*StructType) schemaType()      {}
func (*EnumType) schemaType()        {}
func (*OneOfType) schemaType()       {}
func (*StateObjectType) schemaType() {}

// Fields returns key fields followed by value fields, the order in which a
// state object is encoded.
func (t *StateObjectType) Fields() []Field {
	out := make([]Field, 0, len(t.KeyFields)+len(t.ValueFields))
	out = append(out, t.KeyFields...)
	return append(out, t.ValueFields...)
}

// Compare orders schema types by name. Two types with the same name compare
// equal even when their structure differs.
func Compare(a, b Type) int {
	return strings.Compare(a.Name(), b.Name())
}

func Less(a, b Type) bool {
	return Compare(a, b) < 0
}

// Equal reports structural equality.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() || a.Name() != b.Name() {
		return false
	}
	switch at := a.(type) {
	case *StructType:
		bt := b.(*StructType)
		return at.Sealed == bt.Sealed && fieldsEqual(at.Fields, bt.Fields)
	case *EnumType:
		bt := b.(*EnumType)
		return at.Sealed == bt.Sealed && slices.Equal(at.Values, bt.Values)
	case *OneOfType:
		bt := b.(*OneOfType)
		return slices.EqualFunc(at.Cases, bt.Cases, func(x, y OneOfCase) bool {
			return x.Name == y.Name && x.Discriminant == y.Discriminant && x.Type.Equal(y.Type)
		})
	case *StateObjectType:
		bt := b.(*StateObjectType)
		return at.RetainDeletions == bt.RetainDeletions &&
			fieldsEqual(at.KeyFields, bt.KeyFields) &&
			fieldsEqual(at.ValueFields, bt.ValueFields)
	}
	return false
}

func fieldsEqual(a, b []Field) bool {
	return slices.EqualFunc(a, b, func(x, y Field) bool {
		return x.Name == y.Name && x.Type.Equal(y.Type)
	})
}

// clone copies the slices of t so later changes by the caller cannot reach a
// Schema holding it.
func clone(t Type) Type {
	switch v := t.(type) {
	case *StructType:
		c := *v
		c.Fields = cloneFields(v.Fields)
		return &c
	case *EnumType:
		c := *v
		c.Values = slices.Clone(v.Values)
		return &c
	case *OneOfType:
		c := *v
		c.Cases = slices.Clone(v.Cases)
		for i := range c.Cases {
			c.Cases[i].Type = c.Cases[i].Type.Clone()
		}
		return &c
	case *StateObjectType:
		c := *v
		c.KeyFields = cloneFields(v.KeyFields)
		c.ValueFields = cloneFields(v.ValueFields)
		return &c
	}
	return t
}

func cloneFields(fields []Field) []Field {
	out := slices.Clone(fields)
	for i := range out {
		out[i].Type = out[i].Type.Clone()
	}
	return out
}
