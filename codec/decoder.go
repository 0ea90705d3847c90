package codec

import (
	"encoding/binary"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"
	"unsafe"

	wasmschema "github.com/wippyai/wasm-schema"
	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/mem"
	"github.com/wippyai/wasm-schema/types"
	"github.com/wippyai/wasm-schema/value"
)

// Decoder reads values front to back. Every read is bounds-checked before it
// happens, so malformed input fails without reading past the end.
type Decoder struct {
	limits      Limits
	copyStrings bool
}

func NewDecoder(limits Limits, copyStrings bool) *Decoder {
	return &Decoder{limits: limits, copyStrings: copyStrings}
}

// decodeState is the cursor over one input.
type decodeState struct {
	mm          wasmschema.MemoryManager
	data        []byte
	pos         int
	limits      Limits
	copyStrings bool
}

// DecodeInto decodes data into the zeroed value at ptr. The whole input must
// be consumed.
func (d *Decoder) DecodeInto(ct *CompiledType, data []byte, ptr unsafe.Pointer, mm wasmschema.MemoryManager) error {
	st := &decodeState{
		mm:          mm,
		data:        data,
		limits:      d.limits,
		copyStrings: d.copyStrings,
	}
	if err := st.decode(ct, ptr, 0); err != nil {
		return err
	}
	if st.pos != len(data) {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Value(len(data) - st.pos).
			Detail("%d trailing bytes after value", len(data)-st.pos).
			Build()
	}
	return nil
}

func (st *decodeState) remaining() int {
	return len(st.data) - st.pos
}

// take returns the next n bytes of a fixed-width value.
func (st *decodeState) take(n int) ([]byte, error) {
	if st.remaining() < n {
		return nil, errors.Truncated(nil, n, st.remaining())
	}
	b := st.data[st.pos : st.pos+n : st.pos+n]
	st.pos += n
	return b, nil
}

func (st *decodeState) u8() (uint8, error) {
	if st.remaining() < 1 {
		return 0, errors.Truncated(nil, 1, st.remaining())
	}
	v := st.data[st.pos]
	st.pos++
	return v, nil
}

func (st *decodeState) u16() (uint16, error) {
	b, err := st.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (st *decodeState) u32() (uint32, error) {
	b, err := st.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (st *decodeState) u64() (uint64, error) {
	b, err := st.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// length reads a u32 prefix and checks that n*unit bytes remain.
func (st *decodeState) length(limit, unit int) (int, error) {
	v, err := st.u32()
	if err != nil {
		return 0, err
	}
	if limit > 0 && uint64(v) > uint64(limit) {
		return 0, errors.New(errors.PhaseDecode, errors.KindOutOfRange).
			Value(v).
			Detail("length %d exceeds maximum %d", v, limit).
			Build()
	}
	if uint64(v)*uint64(unit) > uint64(st.remaining()) {
		return 0, errors.OutOfBounds(errors.PhaseDecode, nil, st.pos+int(v)*unit, len(st.data))
	}
	return int(v), nil
}

func (st *decodeState) enter(depth int) error {
	if st.limits.MaxDepth > 0 && depth >= st.limits.MaxDepth {
		return errors.New(errors.PhaseDecode, errors.KindOutOfRange).
			Value(depth).
			Detail("nesting depth exceeds maximum %d", st.limits.MaxDepth).
			Build()
	}
	return nil
}

func (st *decodeState) decode(ct *CompiledType, ptr unsafe.Pointer, depth int) error {
	if ct.Adapter != nil {
		return st.decodeAdapted(ct, ptr, depth)
	}

	switch ct.Kind {
	case types.KindBool:
		b, err := st.u8()
		if err != nil {
			return err
		}
		if b > 1 {
			return errors.OutOfRange(errors.PhaseDecode, nil, b, "bool")
		}
		*(*bool)(ptr) = b == 1

	case types.KindU8, types.KindI8:
		b, err := st.u8()
		if err != nil {
			return err
		}
		*(*uint8)(ptr) = b

	case types.KindU16, types.KindI16:
		v, err := st.u16()
		if err != nil {
			return err
		}
		*(*uint16)(ptr) = v

	case types.KindU32, types.KindI32:
		v, err := st.u32()
		if err != nil {
			return err
		}
		*(*uint32)(ptr) = v

	case types.KindU64, types.KindI64, types.KindDuration:
		v, err := st.u64()
		if err != nil {
			return err
		}
		*(*uint64)(ptr) = v

	case types.KindUIntN, types.KindIntN:
		b, err := st.take(16)
		if err != nil {
			return err
		}
		// Uint128 and Int128 share the {Lo, Hi} layout.
		v := (*value.Uint128)(ptr)
		v.Lo = binary.LittleEndian.Uint64(b)
		v.Hi = binary.LittleEndian.Uint64(b[8:])

	case types.KindTime:
		v, err := st.u64()
		if err != nil {
			return err
		}
		if nanos := int64(v); nanos == zeroTimeNanos {
			*(*time.Time)(ptr) = time.Time{}
		} else {
			*(*time.Time)(ptr) = time.Unix(0, nanos).UTC()
		}

	case types.KindString:
		return st.decodeString(ptr)

	case types.KindBytes, types.KindAddress:
		return st.decodeBytes(ptr)

	case types.KindEnum:
		return st.decodeEnum(ct, ptr)

	case types.KindNullable:
		return st.decodeNullable(ct, ptr, depth)

	case types.KindList:
		return st.decodeList(ct, ptr, depth)

	case types.KindStruct:
		return st.decodeStruct(ct, ptr, depth)

	case types.KindOneOf:
		return st.decodeOneOf(ct, ptr, depth)

	default:
		return errors.Unsupported(errors.PhaseDecode, ct.Wire.String())
	}
	return nil
}

func (st *decodeState) decodeString(ptr unsafe.Pointer) error {
	n, err := st.length(st.limits.MaxStringSize, 1)
	if err != nil {
		return err
	}
	if n == 0 {
		*(*string)(ptr) = ""
		return nil
	}
	data := st.data[st.pos : st.pos+n]
	if !utf8.Valid(data) {
		return errors.InvalidUTF8(errors.PhaseDecode, nil, data)
	}
	if st.copyStrings {
		owned, err := st.mm.Bytes(n)
		if err != nil {
			return err
		}
		copy(owned, data)
		data = owned
	}
	st.pos += n
	*(*string)(ptr) = unsafe.String(unsafe.SliceData(data), n)
	return nil
}

func (st *decodeState) decodeBytes(ptr unsafe.Pointer) error {
	n, err := st.length(st.limits.MaxStringSize, 1)
	if err != nil {
		return err
	}
	if n == 0 {
		*(*[]byte)(ptr) = nil
		return nil
	}
	data := st.data[st.pos : st.pos+n : st.pos+n]
	if st.copyStrings {
		owned, err := st.mm.Bytes(n)
		if err != nil {
			return err
		}
		copy(owned, data)
		data = owned
	}
	st.pos += n
	*(*[]byte)(ptr) = data
	return nil
}

func (st *decodeState) decodeEnum(ct *CompiledType, ptr unsafe.Pointer) error {
	raw, err := st.u32()
	if err != nil {
		return err
	}
	v := int32(raw)
	if ct.Enum.Sealed && !ct.Enum.Declared(v) {
		return errors.UnknownVariant(errors.PhaseDecode, nil, int64(v), ct.Name)
	}
	if !fitsGoKind(int64(v), ct.GoKind) {
		return errors.OutOfRange(errors.PhaseDecode, nil, v, ct.GoType.String())
	}
	switch ct.GoKind {
	case reflect.Int8, reflect.Uint8:
		*(*uint8)(ptr) = uint8(v)
	case reflect.Int16, reflect.Uint16:
		*(*uint16)(ptr) = uint16(v)
	default:
		*(*uint32)(ptr) = uint32(v)
	}
	return nil
}

func (st *decodeState) decodeNullable(ct *CompiledType, ptr unsafe.Pointer, depth int) error {
	present, err := st.u8()
	if err != nil {
		return err
	}
	switch present {
	case 0:
		*(*unsafe.Pointer)(ptr) = nil
		return nil
	case 1:
	default:
		return errors.OutOfRange(errors.PhaseDecode, nil, present, "presence byte")
	}
	if err := st.enter(depth); err != nil {
		return err
	}

	elem, err := st.mm.New(ct.Elem.GoType)
	if err != nil {
		return err
	}
	p := elem.UnsafePointer()
	if err := st.decode(ct.Elem, p, depth+1); err != nil {
		return withPath(err, "[some]")
	}
	*(*unsafe.Pointer)(ptr) = p
	return nil
}

func (st *decodeState) decodeList(ct *CompiledType, ptr unsafe.Pointer, depth int) error {
	n, err := st.length(st.limits.MaxListLength, ct.Elem.MinSize)
	if err != nil {
		return err
	}
	if n == 0 {
		*(*[]byte)(ptr) = nil
		return nil
	}
	if err := st.enter(depth); err != nil {
		return err
	}

	slice, err := st.mm.MakeSlice(ct.SliceType, n)
	if err != nil {
		return err
	}
	base := slice.UnsafePointer()
	stride := ct.Elem.GoSize

	if ct.Elem.Adapter != nil || !st.decodeNumbers(ct.Elem.Kind, base, n) {
		for i := 0; i < n; i++ {
			if err := st.decode(ct.Elem, unsafe.Add(base, uintptr(i)*stride), depth+1); err != nil {
				return withPath(err, "["+strconv.Itoa(i)+"]")
			}
		}
	}
	reflect.NewAt(ct.SliceType, ptr).Elem().Set(slice)
	return nil
}

// decodeNumbers fills a list of fixed-width integers in one pass. The length
// check already guaranteed n*width bytes remain.
func (st *decodeState) decodeNumbers(kind types.Kind, base unsafe.Pointer, n int) bool {
	switch kind {
	case types.KindU8, types.KindI8:
		copy(unsafe.Slice((*byte)(base), n), st.data[st.pos:st.pos+n])
		st.pos += n
	case types.KindU16, types.KindI16:
		dst := unsafe.Slice((*uint16)(base), n)
		for i := range dst {
			dst[i] = binary.LittleEndian.Uint16(st.data[st.pos:])
			st.pos += 2
		}
	case types.KindU32, types.KindI32:
		dst := unsafe.Slice((*uint32)(base), n)
		for i := range dst {
			dst[i] = binary.LittleEndian.Uint32(st.data[st.pos:])
			st.pos += 4
		}
	case types.KindU64, types.KindI64, types.KindDuration:
		dst := unsafe.Slice((*uint64)(base), n)
		for i := range dst {
			dst[i] = binary.LittleEndian.Uint64(st.data[st.pos:])
			st.pos += 8
		}
	default:
		return false
	}
	return true
}

func (st *decodeState) decodeStruct(ct *CompiledType, ptr unsafe.Pointer, depth int) error {
	if err := st.enter(depth); err != nil {
		return err
	}
	for i := range ct.Fields {
		f := &ct.Fields[i]
		if err := st.decode(f.Type, unsafe.Add(ptr, f.GoOffset), depth+1); err != nil {
			return withPath(err, f.Name)
		}
	}
	return nil
}

func (st *decodeState) decodeOneOf(ct *CompiledType, ptr unsafe.Pointer, depth int) error {
	raw, err := st.u32()
	if err != nil {
		return err
	}
	c, ok := ct.caseByDiscriminant(int32(raw))
	if !ok {
		return errors.UnknownVariant(errors.PhaseDecode, nil, int64(int32(raw)), ct.Name)
	}
	if err := st.enter(depth); err != nil {
		return err
	}

	payload, err := st.mm.New(c.Type.GoType)
	if err != nil {
		return err
	}
	p := payload.UnsafePointer()
	if err := st.decode(c.Type, p, depth+1); err != nil {
		return withPath(err, c.Name)
	}
	for i := range ct.Cases {
		*(*unsafe.Pointer)(unsafe.Add(ptr, ct.Cases[i].GoOffset)) = nil
	}
	*(*unsafe.Pointer)(unsafe.Add(ptr, c.GoOffset)) = p
	return nil
}

// decodeAdapted decodes the carrier into owned heap memory, so the adapter
// never sees values borrowed from the input or the arena.
func (st *decodeState) decodeAdapted(ct *CompiledType, ptr unsafe.Pointer, depth int) error {
	carrier := reflect.New(ct.Elem.GoType)
	sub := decodeState{
		mm:          mem.Heap{},
		data:        st.data,
		pos:         st.pos,
		limits:      st.limits,
		copyStrings: true,
	}
	if err := sub.decode(ct.Elem, carrier.UnsafePointer(), depth); err != nil {
		return err
	}
	st.pos = sub.pos

	native, err := ct.Adapter.FromWire(carrier.Elem())
	if err != nil {
		return err
	}
	reflect.NewAt(ct.GoType, ptr).Elem().Set(native)
	return nil
}
