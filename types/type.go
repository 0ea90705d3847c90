package types

import (
	"strconv"
	"strings"

	"github.com/wippyai/wasm-schema/errors"
)

// MaxIntWidth bounds the byte width of UIntN/IntN descriptors.
const MaxIntWidth = 32

// Type identifies one wire shape. Values are immutable; composite
// descriptors share their element through a pointer that is never mutated.
type Type struct {
	Elem  *Type
	Name  string
	Width int
	Kind  Kind
}

func Bool() Type     { return Type{Kind: KindBool} }
func U8() Type       { return Type{Kind: KindU8} }
func U16() Type      { return Type{Kind: KindU16} }
func U32() Type      { return Type{Kind: KindU32} }
func U64() Type      { return Type{Kind: KindU64} }
func I8() Type       { return Type{Kind: KindI8} }
func I16() Type      { return Type{Kind: KindI16} }
func I32() Type      { return Type{Kind: KindI32} }
func I64() Type      { return Type{Kind: KindI64} }
func Str() Type      { return Type{Kind: KindString} }
func Bytes() Type    { return Type{Kind: KindBytes} }
func Time() Type     { return Type{Kind: KindTime} }
func Duration() Type { return Type{Kind: KindDuration} }
func Address() Type  { return Type{Kind: KindAddress} }

// UIntN is an unsigned integer of width bytes. 128-bit integers use UIntN(16)
// rather than a dedicated kind.
func UIntN(width int) Type { return Type{Kind: KindUIntN, Width: width} }

// IntN is a two's complement signed integer of width bytes.
func IntN(width int) Type { return Type{Kind: KindIntN, Width: width} }

func Nullable(inner Type) Type {
	return Type{Kind: KindNullable, Elem: &inner}
}

func List(elem Type) Type {
	return Type{Kind: KindList, Elem: &elem}
}

func StructRef(name string) Type { return Type{Kind: KindStruct, Name: name} }
func EnumRef(name string) Type   { return Type{Kind: KindEnum, Name: name} }
func OneOfRef(name string) Type  { return Type{Kind: KindOneOf, Name: name} }

// IsListElement reports whether t may appear as a list element. Nullable
// values and nested lists are not valid elements.
func (t Type) IsListElement() bool {
	switch t.Kind {
	case KindInvalid, KindNullable, KindList:
		return false
	default:
		return true
	}
}

// FixedSize returns the encoded width of fixed-size kinds.
func (t Type) FixedSize() (int, bool) {
	switch t.Kind {
	case KindBool, KindU8, KindI8:
		return 1, true
	case KindU16, KindI16:
		return 2, true
	case KindU32, KindI32, KindEnum:
		return 4, true
	case KindU64, KindI64, KindTime, KindDuration:
		return 8, true
	case KindUIntN, KindIntN:
		return t.Width, true
	default:
		return 0, false
	}
}

// Clone returns a copy of t that shares no inner descriptors with it.
func (t Type) Clone() Type {
	if t.Elem != nil {
		elem := t.Elem.Clone()
		t.Elem = &elem
	}
	return t
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Width != o.Width || t.Name != o.Name {
		return false
	}
	if t.Elem == nil || o.Elem == nil {
		return t.Elem == o.Elem
	}
	return t.Elem.Equal(*o.Elem)
}

func (t Type) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t Type) write(b *strings.Builder) {
	switch t.Kind {
	case KindUIntN, KindIntN:
		b.WriteString(t.Kind.String())
		b.WriteByte('<')
		b.WriteString(strconv.Itoa(t.Width))
		b.WriteByte('>')
	case KindNullable, KindList:
		b.WriteString(t.Kind.String())
		b.WriteByte('<')
		if t.Elem != nil {
			t.Elem.write(b)
		}
		b.WriteByte('>')
	case KindStruct, KindEnum, KindOneOf:
		b.WriteString(t.Kind.String())
		b.WriteByte(' ')
		b.WriteString(t.Name)
	default:
		b.WriteString(t.Kind.String())
	}
}

// Validate checks structural well-formedness of a descriptor.
func (t Type) Validate() error {
	return t.validate(nil)
}

func (t Type) validate(path []string) error {
	switch t.Kind {
	case KindInvalid:
		return errors.InvalidData(errors.PhaseValidate, path, "invalid descriptor")
	case KindUIntN, KindIntN:
		if t.Width <= 0 || t.Width > MaxIntWidth {
			return errors.New(errors.PhaseValidate, errors.KindOutOfRange).
				Path(path...).
				WireType(t.String()).
				Detail("integer width %d not in 1..%d", t.Width, MaxIntWidth).
				Build()
		}
	case KindNullable:
		if t.Elem == nil {
			return errors.InvalidData(errors.PhaseValidate, path, "nullable without inner type")
		}
		if t.Elem.Kind == KindNullable {
			return errors.New(errors.PhaseValidate, errors.KindUnsupported).
				Path(path...).
				WireType(t.String()).
				Detail("nullable of nullable").
				Build()
		}
		return t.Elem.validate(append(append([]string{}, path...), "[some]"))
	case KindList:
		if t.Elem == nil {
			return errors.InvalidData(errors.PhaseValidate, path, "list without element type")
		}
		if !t.Elem.IsListElement() {
			return errors.New(errors.PhaseValidate, errors.KindUnsupported).
				Path(path...).
				WireType(t.String()).
				Detail("%s is not a list element type", t.Elem.Kind).
				Build()
		}
		return t.Elem.validate(append(append([]string{}, path...), "[elem]"))
	case KindStruct, KindEnum, KindOneOf:
		if t.Name == "" {
			return errors.InvalidData(errors.PhaseValidate, path, t.Kind.String()+" reference without name")
		}
	default:
		if t.Kind > KindOneOf {
			return errors.InvalidData(errors.PhaseValidate, path, "unknown kind "+strconv.Itoa(int(t.Kind)))
		}
	}
	return nil
}
