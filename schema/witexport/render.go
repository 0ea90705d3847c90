package witexport

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"
)

// Render writes defs as WIT declarations, one per block, in the given order.
func Render(defs []*wit.TypeDef) string {
	var b strings.Builder
	for i, td := range defs {
		if i > 0 {
			b.WriteByte('\n')
		}
		renderDef(&b, td)
	}
	return b.String()
}

func renderDef(b *strings.Builder, td *wit.TypeDef) {
	name := "unnamed"
	if td.Name != nil {
		name = *td.Name
	}
	switch k := td.Kind.(type) {
	case *wit.Record:
		fmt.Fprintf(b, "record %s {\n", name)
		for _, f := range k.Fields {
			fmt.Fprintf(b, "    %s: %s,\n", f.Name, TypeString(f.Type))
		}
		b.WriteString("}\n")
	case *wit.Enum:
		fmt.Fprintf(b, "enum %s {\n", name)
		for _, c := range k.Cases {
			fmt.Fprintf(b, "    %s,\n", c.Name)
		}
		b.WriteString("}\n")
	case *wit.Variant:
		fmt.Fprintf(b, "variant %s {\n", name)
		for _, c := range k.Cases {
			if c.Type == nil {
				fmt.Fprintf(b, "    %s,\n", c.Name)
				continue
			}
			fmt.Fprintf(b, "    %s(%s),\n", c.Name, TypeString(c.Type))
		}
		b.WriteString("}\n")
	default:
		fmt.Fprintf(b, "type %s = %s;\n", name, TypeString(td))
	}
}

// TypeString is the WIT spelling of t as it appears in a field or case.
func TypeString(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		switch k := v.Kind.(type) {
		case *wit.List:
			return "list<" + TypeString(k.Type) + ">"
		case *wit.Option:
			return "option<" + TypeString(k.Type) + ">"
		case *wit.Tuple:
			parts := make([]string, len(k.Types))
			for i, e := range k.Types {
				parts[i] = TypeString(e)
			}
			return "tuple<" + strings.Join(parts, ", ") + ">"
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}
