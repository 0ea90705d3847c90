package witexport

import (
	"slices"
	"strings"
	"unicode"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/internal/layout"
	"github.com/wippyai/wasm-schema/schema"
	"github.com/wippyai/wasm-schema/types"
)

// Export converts every type of s to a named WIT typedef, in schema order.
// References between types point at the returned typedefs.
func Export(s schema.Schema) ([]*wit.TypeDef, error) {
	e := exporter{defs: make(map[string]*wit.TypeDef, s.Len())}

	all := s.Types()
	out := make([]*wit.TypeDef, 0, len(all))
	for _, t := range all {
		name := Name(t.Name())
		td := &wit.TypeDef{Name: &name}
		e.defs[t.Name()] = td
		out = append(out, td)
	}

	for i, t := range all {
		kind, err := e.kind(t)
		if err != nil {
			return nil, err
		}
		out[i].Kind = kind
	}
	return out, nil
}

// Layout reports the Canonical ABI size and alignment of an exported typedef.
func Layout(td *wit.TypeDef) layout.Info {
	return layout.NewCalculator().Of(td)
}

type exporter struct {
	defs map[string]*wit.TypeDef
}

func (e *exporter) kind(t schema.Type) (wit.TypeDefKind, error) {
	switch t := t.(type) {
	case *schema.StructType:
		return e.record(t.TypeName, t.Fields)
	case *schema.StateObjectType:
		return e.record(t.TypeName, t.Fields())
	case *schema.EnumType:
		values := slices.Clone(t.Values)
		slices.SortStableFunc(values, func(a, b schema.EnumValue) int {
			return int(a.Value) - int(b.Value)
		})
		cases := make([]wit.EnumCase, len(values))
		for i, v := range values {
			cases[i] = wit.EnumCase{Name: Name(v.Name)}
		}
		return &wit.Enum{Cases: cases}, nil
	case *schema.OneOfType:
		cases := make([]wit.Case, len(t.Cases))
		for i, c := range t.Cases {
			payload, err := e.typ(c.Type, []string{t.TypeName, c.Name})
			if err != nil {
				return nil, err
			}
			cases[i] = wit.Case{Name: Name(c.Name), Type: payload}
		}
		return &wit.Variant{Cases: cases}, nil
	default:
		return nil, errors.Unsupported(errors.PhaseSchema, "schema type "+t.Kind().String())
	}
}

func (e *exporter) record(typeName string, fields []schema.Field) (wit.TypeDefKind, error) {
	out := make([]wit.Field, len(fields))
	for i, f := range fields {
		ft, err := e.typ(f.Type, []string{typeName, f.Name})
		if err != nil {
			return nil, err
		}
		out[i] = wit.Field{Name: Name(f.Name), Type: ft}
	}
	return &wit.Record{Fields: out}, nil
}

func (e *exporter) typ(t types.Type, path []string) (wit.Type, error) {
	switch t.Kind {
	case types.KindBool:
		return wit.Bool{}, nil
	case types.KindU8:
		return wit.U8{}, nil
	case types.KindU16:
		return wit.U16{}, nil
	case types.KindU32:
		return wit.U32{}, nil
	case types.KindU64:
		return wit.U64{}, nil
	case types.KindI8:
		return wit.S8{}, nil
	case types.KindI16:
		return wit.S16{}, nil
	case types.KindI32:
		return wit.S32{}, nil
	case types.KindI64, types.KindTime, types.KindDuration:
		return wit.S64{}, nil
	case types.KindString:
		return wit.String{}, nil
	case types.KindBytes, types.KindAddress:
		return &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}, nil
	case types.KindUIntN, types.KindIntN:
		return wideInt(t.Width, t.Kind == types.KindIntN), nil
	case types.KindNullable, types.KindList:
		if t.Elem == nil {
			return nil, errors.InvalidData(errors.PhaseSchema, path, t.Kind.String()+" without element type")
		}
		elem, err := e.typ(*t.Elem, path)
		if err != nil {
			return nil, err
		}
		if t.Kind == types.KindNullable {
			return &wit.TypeDef{Kind: &wit.Option{Type: elem}}, nil
		}
		return &wit.TypeDef{Kind: &wit.List{Type: elem}}, nil
	case types.KindStruct, types.KindEnum, types.KindOneOf:
		td, ok := e.defs[t.Name]
		if !ok {
			return nil, withPath(errors.NotFound(errors.PhaseSchema, "type", t.Name), path)
		}
		return td, nil
	default:
		return nil, errors.Unsupported(errors.PhaseSchema, "descriptor "+t.String())
	}
}

// wideInt maps an integer of width bytes to the narrowest WIT integer, or to
// a tuple of 64-bit words when it is wider than 8 bytes.
func wideInt(width int, signed bool) wit.Type {
	switch {
	case width <= 1:
		return pick(signed, wit.S8{}, wit.U8{})
	case width <= 2:
		return pick(signed, wit.S16{}, wit.U16{})
	case width <= 4:
		return pick(signed, wit.S32{}, wit.U32{})
	case width <= 8:
		return pick(signed, wit.S64{}, wit.U64{})
	}
	words := make([]wit.Type, (width+7)/8)
	for i := range words {
		words[i] = wit.U64{}
	}
	if signed {
		words[len(words)-1] = wit.S64{}
	}
	return &wit.TypeDef{Kind: &wit.Tuple{Types: words}}
}

func pick(signed bool, s, u wit.Type) wit.Type {
	if signed {
		return s
	}
	return u
}

func withPath(err *errors.Error, path []string) *errors.Error {
	err.Path = path
	return err
}

// Name converts a CamelCase or snake_case identifier to a WIT kebab-case
// name. Names that collide with WIT keywords get a % prefix.
func Name(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
		case unicode.IsUpper(r):
			if i > 0 && b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('-')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if keywords[name] {
		return "%" + name
	}
	return name
}

var keywords = map[string]bool{
	"bool": true, "char": true, "enum": true, "export": true, "flags": true,
	"func": true, "import": true, "interface": true, "list": true, "option": true,
	"package": true, "record": true, "resource": true, "result": true,
	"string": true, "tuple": true, "type": true, "use": true, "variant": true,
	"world": true, "u8": true, "u16": true, "u32": true, "u64": true,
	"s8": true, "s16": true, "s32": true, "s64": true, "f32": true, "f64": true,
}
