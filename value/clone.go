package value

import (
	"reflect"
	"strings"
)

// Clone deep-copies strings, byte slices, slices, pointers and struct fields
// so the result shares no memory with v. Values must be trees; cyclic pointer
// graphs are not supported.
func Clone[V any](v V) V {
	src := reflect.ValueOf(&v).Elem()
	out := reflect.New(src.Type())
	cloneValue(out.Elem(), src)
	return *out.Interface().(*V)
}

func cloneValue(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.String:
		dst.SetString(strings.Clone(src.String()))

	case reflect.Slice:
		if src.IsNil() {
			return
		}
		n := src.Len()
		s := reflect.MakeSlice(src.Type(), n, n)
		if src.Type().Elem().Kind() == reflect.Uint8 {
			reflect.Copy(s, src)
		} else {
			for i := 0; i < n; i++ {
				cloneValue(s.Index(i), src.Index(i))
			}
		}
		dst.Set(s)

	case reflect.Pointer:
		if src.IsNil() {
			return
		}
		p := reflect.New(src.Type().Elem())
		cloneValue(p.Elem(), src.Elem())
		dst.Set(p)

	case reflect.Struct:
		dst.Set(src)
		for i := 0; i < src.NumField(); i++ {
			if f := dst.Field(i); f.CanSet() {
				cloneValue(f, src.Field(i))
			}
		}

	case reflect.Array:
		for i := 0; i < src.Len(); i++ {
			cloneValue(dst.Index(i), src.Index(i))
		}

	default:
		dst.Set(src)
	}
}
