package codec

import (
	"bytes"
	"reflect"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/wippyai/wasm-schema/buffer"
	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/mem"
	"github.com/wippyai/wasm-schema/schema"
	"github.com/wippyai/wasm-schema/types"
	"github.com/wippyai/wasm-schema/value"
)

func roundTrip[V any](t *testing.T, v V) V {
	t.Helper()
	data, err := EncodeBytes(v)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := Decode[V](data, mem.Heap{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return got
}

func TestRoundTrip_Everything(t *testing.T) {
	want := sampleEverything()
	got := roundTrip(t, want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestRoundTrip_Scalars(t *testing.T) {
	if got := roundTrip(t, uint32(7)); got != 7 {
		t.Errorf("u32 = %d", got)
	}
	if got := roundTrip(t, "text"); got != "text" {
		t.Errorf("string = %q", got)
	}
	if got := roundTrip(t, Green); got != Green {
		t.Errorf("enum = %d", got)
	}
	if got := roundTrip(t, time.Time{}); !got.IsZero() {
		t.Errorf("zero time = %v", got)
	}
	if got := roundTrip(t, value.I128(-2)); got != value.I128(-2) {
		t.Errorf("int128 = %v", got)
	}
	if got := roundTrip[*uint32](t, nil); got != nil {
		t.Errorf("nil pointer = %v", got)
	}
}

func TestEncode_WireBytes(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []byte
	}{
		{"bool", true, []byte{1}},
		{"u16", uint16(0x0102), []byte{0x02, 0x01}},
		{"i32", int32(-2), []byte{0xfe, 0xff, 0xff, 0xff}},
		{"string", "hi", []byte{2, 0, 0, 0, 'h', 'i'}},
		{"enum", Blue, []byte{2, 0, 0, 0}},
		{"uint128", value.Uint128{Lo: 1, Hi: 2}, []byte{1, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0}},
		{"duration", time.Duration(1), []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{"absent", Optional{}, []byte{0}},
		{"present", Optional{V: u32p(5)}, []byte{1, 5, 0, 0, 0}},
		{"one-of", Shape{Circle: &Circle{Radius: 3}}, []byte{4, 0, 0, 0, 3, 0, 0, 0}},
		{"list", []uint16{1, 2}, []byte{2, 0, 0, 0, 1, 0, 2, 0}},
		{"zero time", time.Time{}, []byte{0, 0, 0, 0, 0, 0, 0, 0x80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := buffer.Growable{}.NewWriter()
			if err := Default().EncodeValue(tt.value, w); err != nil {
				t.Fatalf("EncodeValue failed: %v", err)
			}
			got, _ := w.Finish()
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %x, want %x", got, tt.want)
			}
		})
	}
}

func TestOrder_ZeroCopy(t *testing.T) {
	data, err := EncodeBytes(Order{ID: 7, Name: "abc", Tags: []string{"x", "y"}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	want := []byte{
		7, 0, 0, 0,
		3, 0, 0, 0, 'a', 'b', 'c',
		2, 0, 0, 0,
		1, 0, 0, 0, 'x',
		1, 0, 0, 0, 'y',
	}
	if !bytes.Equal(data, want) {
		t.Fatalf("got %x, want %x", data, want)
	}

	arena := mem.Get()
	defer arena.Release()

	order, err := Decode[Order](data, arena)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if order.ID != 7 || order.Name != "abc" || len(order.Tags) != 2 || order.Tags[1] != "y" {
		t.Fatalf("order = %+v", order)
	}

	start := uintptr(unsafe.Pointer(unsafe.SliceData(data)))
	end := start + uintptr(len(data))
	name := uintptr(unsafe.Pointer(unsafe.StringData(order.Name)))
	if name < start || name >= end {
		t.Error("name should alias the input buffer")
	}
	if cap(order.Tags) != len(order.Tags) {
		t.Errorf("tags cap %d != len %d", cap(order.Tags), len(order.Tags))
	}
}

func TestCopyStrings(t *testing.T) {
	c := New(WithCopyStrings(true))
	data, _ := EncodeBytes(Order{Name: "abc"})

	arena := mem.NewArena()
	defer arena.Release()

	order, err := DecodeWith[Order](c, data, arena)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	for i := range data {
		data[i] = 0
	}
	if order.Name != "abc" {
		t.Errorf("copied name changed to %q", order.Name)
	}
}

func TestDecode_TruncatedAtEveryByte(t *testing.T) {
	data, err := EncodeBytes(sampleEverything())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	for i := 0; i < len(data); i++ {
		_, err := Decode[Everything](data[:i], mem.Heap{})
		if err == nil {
			t.Fatalf("decode of %d/%d bytes succeeded", i, len(data))
		}
		if !errors.IsDecode(err) {
			t.Fatalf("cut at %d: not a decode error: %v", i, err)
		}
		kind, _ := errors.KindOf(err)
		if kind != errors.KindTruncated && kind != errors.KindOutOfBounds {
			t.Fatalf("cut at %d: kind %v", i, kind)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		decode func() error
		kind   errors.Kind
	}{
		{
			name:   "trailing bytes",
			decode: func() error { _, err := Decode[uint8]([]byte{1, 2}, nil); return err },
			kind:   errors.KindInvalidData,
		},
		{
			name:   "bool out of range",
			decode: func() error { _, err := Decode[bool]([]byte{2}, nil); return err },
			kind:   errors.KindOutOfRange,
		},
		{
			name:   "presence byte out of range",
			decode: func() error { _, err := Decode[Optional]([]byte{2, 0, 0, 0, 0}, nil); return err },
			kind:   errors.KindOutOfRange,
		},
		{
			name:   "unknown discriminant",
			decode: func() error { _, err := Decode[Shape]([]byte{5, 0, 0, 0, 0, 0, 0, 0}, nil); return err },
			kind:   errors.KindUnknownVariant,
		},
		{
			name:   "undeclared sealed enum",
			decode: func() error { _, err := Decode[Color]([]byte{7, 0, 0, 0}, nil); return err },
			kind:   errors.KindUnknownVariant,
		},
		{
			name:   "unsealed enum beyond Go type",
			decode: func() error { _, err := Decode[Level]([]byte{0x2c, 1, 0, 0}, nil); return err },
			kind:   errors.KindOutOfRange,
		},
		{
			name:   "string length escapes input",
			decode: func() error { _, err := Decode[string]([]byte{9, 0, 0, 0, 'a'}, nil); return err },
			kind:   errors.KindOutOfBounds,
		},
		{
			name:   "invalid utf-8",
			decode: func() error { _, err := Decode[string]([]byte{1, 0, 0, 0, 0xff}, nil); return err },
			kind:   errors.KindInvalidUTF8,
		},
		{
			name:   "fixed read past end",
			decode: func() error { _, err := Decode[uint64]([]byte{1, 2, 3}, nil); return err },
			kind:   errors.KindTruncated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode()
			if err == nil {
				t.Fatal("expected error")
			}
			if kind, _ := errors.KindOf(err); kind != tt.kind {
				t.Errorf("kind = %v, want %v (%v)", kind, tt.kind, err)
			}
			if !errors.IsDecode(err) {
				t.Errorf("not a decode error: %v", err)
			}
		})
	}
}

func TestDecode_UnsealedEnum(t *testing.T) {
	got, err := Decode[Level]([]byte{99, 0, 0, 0}, nil)
	if err != nil {
		t.Fatalf("unsealed enum rejected: %v", err)
	}
	if got != 99 {
		t.Errorf("got %d", got)
	}
}

func TestDecode_ListCountCheckedBeforeAllocation(t *testing.T) {
	arena := mem.NewArena()
	defer arena.Release()

	data := []byte{0xe8, 0x03, 0, 0, 1, 0, 0, 0}
	_, err := Decode[[]uint32](data, arena)
	if kind, _ := errors.KindOf(err); kind != errors.KindOutOfBounds {
		t.Fatalf("expected out_of_bounds, got %v", err)
	}
	if arena.Stats().Allocations != 0 {
		t.Error("decoder allocated before rejecting the count")
	}
}

func TestDecode_EmptyStructList(t *testing.T) {
	got, err := Decode[[]Unit]([]byte{3, 0, 0, 0}, nil)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d", len(got))
	}
}

func TestDecode_PathInError(t *testing.T) {
	data, _ := EncodeBytes(Order{ID: 1, Name: "n", Tags: []string{"ok", "bad"}})
	data[len(data)-1] = 0xff

	_, err := Decode[Order](data, nil)
	e, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("expected *errors.Error, got %T", err)
	}
	if want := []string{"tags", "[1]"}; !reflect.DeepEqual(e.Path, want) {
		t.Errorf("path = %v, want %v", e.Path, want)
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		encode func() error
		kind   errors.Kind
	}{
		{
			name:   "one-of without case",
			encode: func() error { _, err := EncodeBytes(Shape{}); return err },
			kind:   errors.KindInvalidData,
		},
		{
			name: "one-of with two cases",
			encode: func() error {
				_, err := EncodeBytes(Shape{Circle: &Circle{}, Square: &Square{}})
				return err
			},
			kind: errors.KindInvalidData,
		},
		{
			name:   "undeclared sealed enum",
			encode: func() error { _, err := EncodeBytes(Color(9)); return err },
			kind:   errors.KindUnknownVariant,
		},
		{
			name:   "invalid utf-8",
			encode: func() error { _, err := EncodeBytes("\xff"); return err },
			kind:   errors.KindInvalidUTF8,
		},
		{
			name: "time out of range",
			encode: func() error {
				_, err := EncodeBytes(time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC))
				return err
			},
			kind: errors.KindOverflow,
		},
		{
			name: "fixed buffer too small",
			encode: func() error {
				_, err := Encode[Order, []byte](Order{Name: "abcdef"}, buffer.Fixed(8))
				return err
			},
			kind: errors.KindCapacity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.encode()
			if err == nil {
				t.Fatal("expected error")
			}
			if kind, _ := errors.KindOf(err); kind != tt.kind {
				t.Errorf("kind = %v, want %v (%v)", kind, tt.kind, err)
			}
			if !errors.IsEncode(err) {
				t.Errorf("not an encode error: %v", err)
			}
		})
	}
}

func TestCompile_Rejected(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"int", reflect.TypeFor[int]()},
		{"float", reflect.TypeFor[float64]()},
		{"map", reflect.TypeFor[map[string]int]()},
		{"nested list", reflect.TypeFor[[][]uint32]()},
		{"list of nullable", reflect.TypeFor[[]*uint32]()},
		{"struct with float field", reflect.TypeFor[struct{ F float32 }]()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompiler().Compile(tt.typ)
			if err == nil {
				t.Fatal("expected compile error")
			}
			if phase, _ := errors.PhaseOf(err); phase != errors.PhaseCompile {
				t.Errorf("phase = %v", phase)
			}
		})
	}
}

func TestCompile_Cached(t *testing.T) {
	c := NewCompiler()
	a, err := c.Compile(reflect.TypeFor[Everything]())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	b, _ := c.Compile(reflect.TypeFor[Everything]())
	if a != b {
		t.Error("second compile should hit the cache")
	}

	child := a.Fields[len(a.Fields)-1]
	if child.Type.Kind != types.KindNullable || child.Type.Elem != a {
		t.Error("recursive field should point back at the same plan")
	}
}

func TestLimits(t *testing.T) {
	c := New(WithLimits(Limits{MaxStringSize: 2, MaxListLength: 1, MaxDepth: 3}))

	data, _ := EncodeBytes("abc")
	if _, err := DecodeWith[string](c, data, nil); err == nil {
		t.Error("string over limit should fail to decode")
	}
	if _, err := EncodeWith[string, []byte](c, "abc", buffer.Growable{}); err == nil {
		t.Error("string over limit should fail to encode")
	}

	if _, err := DecodeWith[[]Color](c, []byte{2, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0}, nil); err == nil {
		t.Error("list over limit should fail")
	}

	deep := Everything{Shape: Shape{Circle: &Circle{}}}
	for i := 0; i < 4; i++ {
		inner := deep
		deep = Everything{Shape: Shape{Circle: &Circle{}}, Child: &inner}
	}
	if _, err := EncodeWith[Everything, []byte](c, deep, buffer.Growable{}); err == nil {
		t.Error("nesting over limit should fail to encode")
	}
	data, _ = EncodeBytes(deep)
	if _, err := DecodeWith[Everything](c, data, nil); err == nil {
		t.Error("nesting over limit should fail to decode")
	}
}

func TestAdapter(t *testing.T) {
	want := Reading{Sensor: "s1", Temp: 21.5}
	got := roundTrip(t, want)
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	data, _ := EncodeBytes(want)
	if !bytes.Equal(data[len(data)-8:], []byte{0xfc, 0x53, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("carrier bytes = %x", data[len(data)-8:])
	}
}

func TestStateObject_KeyFirst(t *testing.T) {
	data, err := EncodeBytes(Balance{Amount: value.U128(5), Owner: value.Address{0xab}, Memo: "m"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !bytes.Equal(data[:5], []byte{1, 0, 0, 0, 0xab}) {
		t.Errorf("key field should lead: %x", data[:5])
	}
	got, err := Decode[Balance](data, nil)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Amount != value.U128(5) || !got.Owner.Equal(value.Address{0xab}) || got.Memo != "m" {
		t.Errorf("got %+v", got)
	}
}

func TestDecodeBorrowed(t *testing.T) {
	data, _ := EncodeBytes(Order{ID: 1, Name: "abc", Tags: []string{"t"}})
	arena := mem.NewArena()

	b, err := DecodeBorrowed[Order](data, arena)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !b.IsLive() {
		t.Fatal("fresh borrow should be live")
	}
	owned, err := b.Own()
	if err != nil {
		t.Fatalf("Own failed: %v", err)
	}

	arena.EndInput()
	if _, err := b.Get(); err == nil {
		t.Error("Get after EndInput should fail")
	}
	arena.Release()

	if owned.Name != "abc" || owned.Tags[0] != "t" {
		t.Errorf("owned copy = %+v", owned)
	}
}

func TestDecode_ReleasedArena(t *testing.T) {
	arena := mem.NewArena()
	arena.Release()
	_, err := Decode[Order]([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, arena)
	if kind, _ := errors.KindOf(err); kind != errors.KindScopeEnded {
		t.Errorf("expected scope_ended, got %v", err)
	}
}

func TestDecodeValue(t *testing.T) {
	data, _ := EncodeBytes(Order{ID: 3})
	var o Order
	o.Name = "stale"
	if err := Default().DecodeValue(data, &o, nil); err != nil {
		t.Fatalf("DecodeValue failed: %v", err)
	}
	if o.ID != 3 || o.Name != "" {
		t.Errorf("o = %+v", o)
	}
	if err := Default().DecodeValue(data, o, nil); err == nil {
		t.Error("non-pointer target should fail")
	}
	if err := Default().DecodeValue(data, nil, nil); err == nil {
		t.Error("nil target should fail")
	}
}

func TestDecodeValue_FailureLeavesZero(t *testing.T) {
	data, err := EncodeBytes(Order{ID: 7, Name: "abc", Tags: []string{"x"}})
	if err != nil {
		t.Fatalf("EncodeBytes failed: %v", err)
	}

	for _, cut := range []int{6, 10, len(data) - 1} {
		o := Order{ID: 1, Name: "stale"}
		if err := Default().DecodeValue(data[:cut], &o, nil); err == nil {
			t.Fatalf("cut %d: expected error", cut)
		}
		if o.ID != 0 || o.Name != "" || o.Tags != nil {
			t.Errorf("cut %d: partial value exposed: %+v", cut, o)
		}
	}
}

func TestConcurrentUse(t *testing.T) {
	c := New()
	want := sampleEverything()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			arena := mem.Get()
			defer arena.Release()
			for j := 0; j < 50; j++ {
				data, err := EncodeWith[Everything, []byte](c, want, buffer.Growable{})
				if err != nil {
					t.Errorf("encode failed: %v", err)
					return
				}
				got, err := DecodeWith[Everything](c, data, arena)
				if err != nil {
					t.Errorf("decode failed: %v", err)
					return
				}
				if got.S != want.S || len(got.Shapes) != len(want.Shapes) {
					t.Errorf("got %+v", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestSchemaOf(t *testing.T) {
	s, err := SchemaOf(reflect.TypeFor[Everything](), reflect.TypeFor[Balance]())
	if err != nil {
		t.Fatalf("SchemaOf failed: %v", err)
	}

	names := make([]string, 0, s.Len())
	for _, typ := range s.Sorted() {
		names = append(names, typ.Name())
	}
	want := []string{"Balance", "Circle", "Color", "Everything", "Level", "Shape", "Square"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}

	shape, _ := s.Lookup("Shape")
	cases := shape.(*schema.OneOfType).Cases
	if cases[0].Discriminant != 4 || !cases[1].Type.Equal(types.StructRef("Square")) {
		t.Errorf("cases = %+v", cases)
	}

	level, _ := s.Lookup("Level")
	if level.(*schema.EnumType).Sealed {
		t.Error("Level is unsealed")
	}

	balance, _ := s.Lookup("Balance")
	st := balance.(*schema.StateObjectType)
	if len(st.KeyFields) != 1 || st.KeyFields[0].Name != "owner" || !st.RetainDeletions {
		t.Errorf("balance = %+v", st)
	}

	everything, _ := s.Lookup("Everything")
	fields := everything.(*schema.StructType).Fields
	if fields[9].Name != "big" || !fields[9].Type.Equal(types.UIntN(16)) {
		t.Errorf("field 9 = %+v", fields[9])
	}
}

func TestSchemaOf_NameClash(t *testing.T) {
	type Circle struct{ R uint8 }
	type Holder struct {
		A Shape
		B Circle
	}
	if _, err := SchemaOf(reflect.TypeFor[Holder]()); err == nil {
		t.Error("two Go types named Circle should clash")
	}
}
