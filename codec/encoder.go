package codec

import (
	"math"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"
	"unsafe"

	wasmschema "github.com/wippyai/wasm-schema"
	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/types"
	"github.com/wippyai/wasm-schema/value"
)

// zeroTimeNanos encodes the zero time.Time, which has no unix-nanosecond form.
const zeroTimeNanos = math.MinInt64

var (
	minTime = time.Unix(0, math.MinInt64+1)
	maxTime = time.Unix(0, math.MaxInt64)
)

// Encoder writes values back to front. Fields are emitted last to first and
// list elements in reverse, each piece prepended to what follows it.
type Encoder struct {
	limits Limits
}

func NewEncoder(limits Limits) *Encoder {
	return &Encoder{limits: limits}
}

// EncodeTo prepends the value at ptr to w.
func (e *Encoder) EncodeTo(ct *CompiledType, ptr unsafe.Pointer, w wasmschema.ReverseWriter) error {
	return e.encode(ct, ptr, w, 0)
}

func (e *Encoder) encode(ct *CompiledType, ptr unsafe.Pointer, w wasmschema.ReverseWriter, depth int) error {
	if ct.Adapter != nil {
		return e.encodeAdapted(ct, ptr, w, depth)
	}

	var err error
	switch ct.Kind {
	case types.KindBool:
		var b byte
		if *(*bool)(ptr) {
			b = 1
		}
		_, err = w.PrependByte(b)

	case types.KindU8, types.KindI8:
		_, err = w.PrependByte(*(*uint8)(ptr))

	case types.KindU16, types.KindI16:
		_, err = w.PrependU16(*(*uint16)(ptr))

	case types.KindU32, types.KindI32:
		_, err = w.PrependU32(*(*uint32)(ptr))

	case types.KindU64, types.KindI64, types.KindDuration:
		_, err = w.PrependU64(*(*uint64)(ptr))

	case types.KindUIntN:
		v := (*value.Uint128)(ptr)
		if _, err = w.PrependU64(v.Hi); err == nil {
			_, err = w.PrependU64(v.Lo)
		}

	case types.KindIntN:
		v := (*value.Int128)(ptr)
		if _, err = w.PrependU64(uint64(v.Hi)); err == nil {
			_, err = w.PrependU64(v.Lo)
		}

	case types.KindTime:
		err = e.encodeTime(*(*time.Time)(ptr), w)

	case types.KindString:
		s := *(*string)(ptr)
		if !utf8.ValidString(s) {
			return errors.InvalidUTF8(errors.PhaseEncode, nil, []byte(s))
		}
		err = e.encodeBytes(unsafe.Slice(unsafe.StringData(s), len(s)), e.limits.MaxStringSize, w)

	case types.KindBytes, types.KindAddress:
		err = e.encodeBytes(*(*[]byte)(ptr), e.limits.MaxStringSize, w)

	case types.KindEnum:
		err = e.encodeEnum(ct, ptr, w)

	case types.KindNullable:
		err = e.encodeNullable(ct, ptr, w, depth)

	case types.KindList:
		err = e.encodeList(ct, ptr, w, depth)

	case types.KindStruct:
		err = e.encodeStruct(ct, ptr, w, depth)

	case types.KindOneOf:
		err = e.encodeOneOf(ct, ptr, w, depth)

	default:
		return errors.Unsupported(errors.PhaseEncode, ct.Wire.String())
	}
	return err
}

func (e *Encoder) enter(depth int) error {
	if e.limits.MaxDepth > 0 && depth >= e.limits.MaxDepth {
		return errors.New(errors.PhaseEncode, errors.KindOutOfRange).
			Value(depth).
			Detail("nesting depth exceeds maximum %d", e.limits.MaxDepth).
			Build()
	}
	return nil
}

func (e *Encoder) encodeTime(t time.Time, w wasmschema.ReverseWriter) error {
	var nanos int64 = zeroTimeNanos
	if !t.IsZero() {
		if t.Before(minTime) || t.After(maxTime) {
			return errors.Overflow(errors.PhaseEncode, nil, t, "time (i64 unix nanoseconds)")
		}
		nanos = t.UnixNano()
	}
	_, err := w.PrependU64(uint64(nanos))
	return err
}

func (e *Encoder) encodeBytes(b []byte, limit int, w wasmschema.ReverseWriter) error {
	if uint64(len(b)) > math.MaxUint32 {
		return errors.Overflow(errors.PhaseEncode, nil, len(b), "u32 length")
	}
	if limit > 0 && len(b) > limit {
		return errors.New(errors.PhaseEncode, errors.KindOutOfRange).
			Value(len(b)).
			Detail("length %d exceeds maximum %d", len(b), limit).
			Build()
	}
	if len(b) > 0 {
		if _, err := w.Prepend(b); err != nil {
			return err
		}
	}
	_, err := w.PrependU32(uint32(len(b)))
	return err
}

func (e *Encoder) encodeEnum(ct *CompiledType, ptr unsafe.Pointer, w wasmschema.ReverseWriter) error {
	v := readEnum(ptr, ct.GoKind)
	if v < math.MinInt32 || v > math.MaxInt32 {
		return errors.OutOfRange(errors.PhaseEncode, nil, v, "enum "+ct.Name)
	}
	if ct.Enum.Sealed && !ct.Enum.Declared(int32(v)) {
		return errors.UnknownVariant(errors.PhaseEncode, nil, v, ct.Name)
	}
	_, err := w.PrependU32(uint32(int32(v)))
	return err
}

func (e *Encoder) encodeNullable(ct *CompiledType, ptr unsafe.Pointer, w wasmschema.ReverseWriter, depth int) error {
	p := *(*unsafe.Pointer)(ptr)
	if p == nil {
		_, err := w.PrependByte(0)
		return err
	}
	if err := e.enter(depth); err != nil {
		return err
	}
	if err := e.encode(ct.Elem, p, w, depth+1); err != nil {
		return withPath(err, "[some]")
	}
	_, err := w.PrependByte(1)
	return err
}

func (e *Encoder) encodeList(ct *CompiledType, ptr unsafe.Pointer, w wasmschema.ReverseWriter, depth int) error {
	// Every slice header has the layout of []byte.
	n := len(*(*[]byte)(ptr))
	if uint64(n) > math.MaxUint32 {
		return errors.Overflow(errors.PhaseEncode, nil, n, "u32 count")
	}
	if e.limits.MaxListLength > 0 && n > e.limits.MaxListLength {
		return errors.New(errors.PhaseEncode, errors.KindOutOfRange).
			Value(n).
			Detail("list length %d exceeds maximum %d", n, e.limits.MaxListLength).
			Build()
	}
	if n > 0 {
		if err := e.enter(depth); err != nil {
			return err
		}
		base := *(*unsafe.Pointer)(ptr)
		stride := ct.Elem.GoSize
		for i := n - 1; i >= 0; i-- {
			if err := e.encode(ct.Elem, unsafe.Add(base, uintptr(i)*stride), w, depth+1); err != nil {
				return withPath(err, "["+strconv.Itoa(i)+"]")
			}
		}
	}
	_, err := w.PrependU32(uint32(n))
	return err
}

func (e *Encoder) encodeStruct(ct *CompiledType, ptr unsafe.Pointer, w wasmschema.ReverseWriter, depth int) error {
	if err := e.enter(depth); err != nil {
		return err
	}
	for i := len(ct.Fields) - 1; i >= 0; i-- {
		f := &ct.Fields[i]
		if err := e.encode(f.Type, unsafe.Add(ptr, f.GoOffset), w, depth+1); err != nil {
			return withPath(err, f.Name)
		}
	}
	return nil
}

func (e *Encoder) encodeOneOf(ct *CompiledType, ptr unsafe.Pointer, w wasmschema.ReverseWriter, depth int) error {
	var active *Case
	var payload unsafe.Pointer
	for i := range ct.Cases {
		p := *(*unsafe.Pointer)(unsafe.Add(ptr, ct.Cases[i].GoOffset))
		if p == nil {
			continue
		}
		if active != nil {
			return errors.InvalidData(errors.PhaseEncode, nil,
				"one-of "+ct.Name+" has both "+active.Name+" and "+ct.Cases[i].Name+" set")
		}
		active, payload = &ct.Cases[i], p
	}
	if active == nil {
		return errors.InvalidData(errors.PhaseEncode, nil, "one-of "+ct.Name+" has no case set")
	}
	if err := e.enter(depth); err != nil {
		return err
	}
	if err := e.encode(active.Type, payload, w, depth+1); err != nil {
		return withPath(err, active.Name)
	}
	_, err := w.PrependU32(uint32(active.Discriminant))
	return err
}

func (e *Encoder) encodeAdapted(ct *CompiledType, ptr unsafe.Pointer, w wasmschema.ReverseWriter, depth int) error {
	carrier, err := ct.Adapter.ToWire(reflect.NewAt(ct.GoType, ptr).Elem())
	if err != nil {
		return err
	}
	return e.encode(ct.Elem, carrier.Addr().UnsafePointer(), w, depth)
}

func readEnum(ptr unsafe.Pointer, k reflect.Kind) int64 {
	switch k {
	case reflect.Int8:
		return int64(*(*int8)(ptr))
	case reflect.Int16:
		return int64(*(*int16)(ptr))
	case reflect.Int32:
		return int64(*(*int32)(ptr))
	case reflect.Uint8:
		return int64(*(*uint8)(ptr))
	case reflect.Uint16:
		return int64(*(*uint16)(ptr))
	case reflect.Uint32:
		return int64(*(*uint32)(ptr))
	}
	return 0
}
