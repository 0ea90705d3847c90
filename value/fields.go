package value

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/wippyai/wasm-schema/errors"
)

// FieldInfo describes one encoded struct field or one-of case.
type FieldInfo struct {
	Type         reflect.Type
	Name         string
	GoName       string
	Offset       uintptr
	Discriminant int32
}

// StructFields lists the encoded fields of a struct in declaration order.
// Unexported fields and fields tagged `schema:"-"` are skipped.
func StructFields(t reflect.Type) ([]FieldInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, errors.TypeMismatch(errors.PhaseCompile, nil, t.String(), "struct")
	}
	fields := make([]FieldInfo, 0, t.NumField())
	seen := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, skip, err := parseTag(t, f)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		if _, dup := seen[name]; dup {
			return nil, errors.DuplicateName(errors.PhaseCompile, []string{t.Name()}, name)
		}
		seen[name] = struct{}{}
		fields = append(fields, FieldInfo{
			Type:   f.Type,
			Name:   name,
			GoName: f.Name,
			Offset: f.Offset,
		})
	}
	return fields, nil
}

// OneOfCases lists the cases of a one-of struct. Every exported field must be
// a pointer; the case payload is the pointed-to type.
func OneOfCases(t reflect.Type) ([]FieldInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, errors.TypeMismatch(errors.PhaseCompile, nil, t.String(), "struct")
	}
	cases := make([]FieldInfo, 0, t.NumField())
	discs := make(map[int32]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, disc, skip, err := parseTag(t, f)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		if f.Type.Kind() != reflect.Pointer {
			return nil, errors.TypeMismatch(errors.PhaseCompile, []string{t.Name(), name}, f.Type.String(), "pointer")
		}
		d := int32(len(cases))
		if disc != nil {
			d = *disc
		}
		if prev, dup := discs[d]; dup {
			return nil, errors.New(errors.PhaseCompile, errors.KindDuplicateName).
				Path(t.Name(), name).
				Value(d).
				Detail("discriminant %d already used by %q", d, prev).
				Build()
		}
		discs[d] = name
		cases = append(cases, FieldInfo{
			Type:         f.Type.Elem(),
			Name:         name,
			GoName:       f.Name,
			Offset:       f.Offset,
			Discriminant: d,
		})
	}
	if len(cases) == 0 {
		return nil, errors.InvalidData(errors.PhaseCompile, []string{t.Name()}, "one-of without cases")
	}
	return cases, nil
}

// parseTag reads `schema:"name,disc"`. A discriminant that is not an int32
// is an error.
func parseTag(owner reflect.Type, f reflect.StructField) (name string, disc *int32, skip bool, err error) {
	tag := f.Tag.Get("schema")
	if tag == "-" {
		return "", nil, true, nil
	}
	name, rest, _ := strings.Cut(tag, ",")
	if name == "" {
		name = toSnakeCase(f.Name)
	}
	if rest != "" {
		n, perr := strconv.ParseInt(rest, 10, 32)
		if perr != nil {
			return "", nil, false, errors.New(errors.PhaseCompile, errors.KindInvalidData).
				Path(owner.Name(), name).
				GoType(owner.String()).
				Detail("discriminant %q in schema tag is not an int32", rest).
				Cause(perr).
				Build()
		}
		d := int32(n)
		disc = &d
	}
	return name, disc, false, nil
}

// toSnakeCase converts OrderID to order_id and HTTPServer to http_server.
func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
