package schema

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/types"
)

func orderType() *StructType {
	return &StructType{
		TypeName: "Order",
		Fields: []Field{
			{Name: "id", Type: types.U32()},
			{Name: "name", Type: types.Str()},
			{Name: "tags", Type: types.List(types.Str())},
			{Name: "color", Type: types.Nullable(types.EnumRef("Color"))},
		},
	}
}

func colorType() *EnumType {
	return &EnumType{
		TypeName: "Color",
		Values:   []EnumValue{{Name: "red", Value: 0}, {Name: "green", Value: 1}},
		Sealed:   true,
	}
}

func shapeType() *OneOfType {
	return &OneOfType{
		TypeName: "Shape",
		Cases: []OneOfCase{
			{Name: "order", Discriminant: 0, Type: types.StructRef("Order")},
			{Name: "size", Discriminant: 7, Type: types.U64()},
		},
	}
}

func balanceType() *StateObjectType {
	return &StateObjectType{
		TypeName:        "Balance",
		KeyFields:       []Field{{Name: "owner", Type: types.Address()}},
		ValueFields:     []Field{{Name: "amount", Type: types.UIntN(16)}},
		RetainDeletions: true,
	}
}

func testSchema(t *testing.T) Schema {
	t.Helper()
	s, err := NewBuilder().
		Add(orderType(), colorType(), shapeType(), balanceType()).
		AddMessage(MessageDescriptor{
			Name:         "PlaceOrder",
			RequestType:  types.StructRef("Order"),
			ResponseType: types.U64(),
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return s
}

func TestType_NameAndKind(t *testing.T) {
	tests := []struct {
		typ  Type
		name string
		kind Kind
	}{
		{orderType(), "Order", KindStruct},
		{colorType(), "Color", KindEnum},
		{shapeType(), "Shape", KindOneOf},
		{balanceType(), "Balance", KindStateObject},
	}
	for _, tt := range tests {
		if tt.typ.Name() != tt.name || tt.typ.Kind() != tt.kind {
			t.Errorf("got %s %s, want %s %s", tt.typ.Kind(), tt.typ.Name(), tt.kind, tt.name)
		}
	}
	if KindStateObject.String() != "state_object" {
		t.Errorf("KindStateObject = %q", KindStateObject.String())
	}
}

func TestCompare(t *testing.T) {
	a := &StructType{TypeName: "A"}
	b := &EnumType{TypeName: "B"}
	otherA := &OneOfType{TypeName: "A"}

	if !Less(a, b) || Less(b, a) {
		t.Error("A should sort before B")
	}
	if Compare(a, otherA) != 0 {
		t.Error("same-name types compare equal")
	}
	if Equal(a, otherA) {
		t.Error("same-name types of different kinds are not equal")
	}
	if Compare(&StructType{TypeName: "Z"}, &StructType{TypeName: "a"}) >= 0 {
		t.Error("ordering is byte-wise")
	}
}

func TestSchema_Sorted(t *testing.T) {
	first := &StructType{TypeName: "Dup", Fields: []Field{{Name: "x", Type: types.U8()}}}
	second := &StructType{TypeName: "Dup"}
	s := Schema{}.
		Add(&StructType{TypeName: "Zeta"}).
		Add(first).
		Add(&EnumType{TypeName: "Alpha"}).
		Add(second)

	sorted := s.Sorted()
	want := []string{"Alpha", "Dup", "Dup", "Zeta"}
	for i, typ := range sorted {
		if typ.Name() != want[i] {
			t.Fatalf("sorted[%d] = %s, want %s", i, typ.Name(), want[i])
		}
	}
	if len(sorted[1].(*StructType).Fields) != 1 {
		t.Error("sort is not stable")
	}

	if s.Types()[0].Name() != "Zeta" {
		t.Error("Sorted must not reorder the schema")
	}
}

func TestSchema_AddIsCopyOnWrite(t *testing.T) {
	s1 := Schema{}.Add(orderType())
	s2 := s1.Add(colorType())
	s3 := s1.Add(shapeType())

	if s1.Len() != 1 {
		t.Fatalf("s1 changed: %d types", s1.Len())
	}
	if s2.Len() != 2 || s3.Len() != 2 {
		t.Fatalf("s2=%d s3=%d", s2.Len(), s3.Len())
	}
	if s2.Types()[1].Name() != "Color" || s3.Types()[1].Name() != "Shape" {
		t.Error("sibling schemas share storage")
	}
	if s2.Types()[0].Name() != "Order" {
		t.Error("insertion order lost")
	}

	added := orderType()
	s4 := Schema{}.Add(added)
	added.Fields[0].Name = "mutated"
	if got, _ := s4.Lookup("Order"); got.(*StructType).Fields[0].Name != "id" {
		t.Error("caller mutation reached the schema")
	}

	if (Schema{}).Add(nil).Len() != 0 {
		t.Error("adding nil should be a no-op")
	}
}

func TestSchema_AccessorsReturnCopies(t *testing.T) {
	s1 := Schema{}.Add(orderType())
	s2 := s1.Add(colorType())

	s2.Types()[0].(*StructType).TypeName = "Z"
	s2.Types()[0].(*StructType).Fields[0].Name = "mutated"
	s2.Sorted()[1].(*StructType).Fields[2].Type.Elem.Kind = types.KindU8
	if got, ok := s2.Lookup("Order"); ok {
		got.(*StructType).Fields[1].Name = "mutated"
	}
	s2.Types()[1].(*EnumType).Values[0].Name = "mutated"

	for _, s := range []Schema{s1, s2} {
		got, ok := s.Lookup("Order")
		if !ok {
			t.Fatal("Order missing")
		}
		if !Equal(got, orderType()) {
			t.Errorf("schema changed through an accessor: %+v", got)
		}
	}
	if got, _ := s2.Lookup("Color"); !Equal(got, colorType()) {
		t.Errorf("enum changed through an accessor: %+v", got)
	}
}

func TestSchema_AddMessage(t *testing.T) {
	s1 := Schema{}.Add(orderType())
	s2 := s1.AddMessage(MessageDescriptor{Name: "Ping", RequestType: types.StructRef("Order")})
	if len(s1.Messages()) != 0 || len(s2.Messages()) != 1 {
		t.Fatal("AddMessage must not mutate the receiver")
	}
	m, ok := s2.Message("Ping")
	if !ok || m.HasResponse() || m.HasError() {
		t.Errorf("message = %+v, %v", m, ok)
	}
}

func TestBuilder_Duplicates(t *testing.T) {
	_, err := NewBuilder().Add(orderType(), &EnumType{TypeName: "Order"}).Build()
	if kind, _ := errors.KindOf(err); kind != errors.KindDuplicateName {
		t.Fatalf("expected duplicate_name, got %v", err)
	}

	_, err = NewBuilder().
		AddMessage(MessageDescriptor{Name: "M", RequestType: types.U8()}).
		AddMessage(MessageDescriptor{Name: "M", RequestType: types.U8()}).
		Build()
	if kind, _ := errors.KindOf(err); kind != errors.KindDuplicateName {
		t.Fatalf("expected duplicate_name for message, got %v", err)
	}

	if _, err := NewBuilder().Add(&StructType{}).Build(); err == nil {
		t.Error("unnamed type should fail")
	}

	b := From(testSchema(t))
	if !b.Has("Order") {
		t.Error("From should carry types")
	}
	if _, err := b.Add(colorType()).Build(); err == nil {
		t.Error("From should carry names for duplicate detection")
	}
}

func TestSchema_Validate(t *testing.T) {
	if err := testSchema(t).Validate(); err != nil {
		t.Fatalf("valid schema rejected: %v", err)
	}

	tests := []struct {
		name   string
		schema Schema
		kind   errors.Kind
	}{
		{
			name:   "duplicate type",
			schema: Schema{}.Add(colorType()).Add(colorType()),
			kind:   errors.KindDuplicateName,
		},
		{
			name:   "unresolved reference",
			schema: Schema{}.Add(orderType()),
			kind:   errors.KindNotFound,
		},
		{
			name: "reference kind mismatch",
			schema: Schema{}.Add(colorType()).Add(&StructType{
				TypeName: "S",
				Fields:   []Field{{Name: "c", Type: types.StructRef("Color")}},
			}),
			kind: errors.KindTypeMismatch,
		},
		{
			name: "list of nullable",
			schema: Schema{}.Add(&StructType{
				TypeName: "S",
				Fields:   []Field{{Name: "l", Type: types.List(types.Nullable(types.U8()))}},
			}),
			kind: errors.KindUnsupported,
		},
		{
			name: "duplicate field",
			schema: Schema{}.Add(&StructType{
				TypeName: "S",
				Fields:   []Field{{Name: "a", Type: types.U8()}, {Name: "a", Type: types.U16()}},
			}),
			kind: errors.KindDuplicateName,
		},
		{
			name: "duplicate enum value",
			schema: Schema{}.Add(&EnumType{
				TypeName: "E",
				Values:   []EnumValue{{Name: "a", Value: 1}, {Name: "b", Value: 1}},
			}),
			kind: errors.KindDuplicateName,
		},
		{
			name:   "empty one-of",
			schema: Schema{}.Add(&OneOfType{TypeName: "O"}),
			kind:   errors.KindInvalidData,
		},
		{
			name: "duplicate discriminant",
			schema: Schema{}.Add(&OneOfType{TypeName: "O", Cases: []OneOfCase{
				{Name: "a", Discriminant: 2, Type: types.U8()},
				{Name: "b", Discriminant: 2, Type: types.U8()},
			}}),
			kind: errors.KindDuplicateName,
		},
		{
			name:   "state object without key",
			schema: Schema{}.Add(&StateObjectType{TypeName: "S"}),
			kind:   errors.KindInvalidData,
		},
		{
			name: "key and value share a name",
			schema: Schema{}.Add(&StateObjectType{
				TypeName:    "S",
				KeyFields:   []Field{{Name: "id", Type: types.U64()}},
				ValueFields: []Field{{Name: "id", Type: types.U64()}},
			}),
			kind: errors.KindDuplicateName,
		},
		{
			name: "message with unresolved request",
			schema: Schema{}.AddMessage(MessageDescriptor{
				Name:        "M",
				RequestType: types.StructRef("Missing"),
			}),
			kind: errors.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if kind, _ := errors.KindOf(err); kind != tt.kind {
				t.Errorf("kind = %v, want %v (%v)", kind, tt.kind, err)
			}
		})
	}
}

func TestSchema_ValidateStructRefToStateObject(t *testing.T) {
	s := Schema{}.Add(balanceType()).Add(&StructType{
		TypeName: "Snapshot",
		Fields:   []Field{{Name: "balances", Type: types.List(types.StructRef("Balance"))}},
	})
	if err := s.Validate(); err != nil {
		t.Errorf("struct reference to state object rejected: %v", err)
	}
}

func TestDiff(t *testing.T) {
	old := Schema{}.Add(orderType()).Add(colorType()).Add(&StructType{TypeName: "Gone"})

	changedColor := colorType()
	changedColor.Values = append(changedColor.Values, EnumValue{Name: "blue", Value: 2})
	updated := Schema{}.Add(changedColor).Add(&StructType{TypeName: "Added"}).Add(orderType())

	changes := Diff(old, updated)
	want := []struct {
		name string
		kind ChangeKind
	}{
		{"Added", ChangeAdded},
		{"Color", ChangeModified},
		{"Gone", ChangeRemoved},
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes: %+v", len(changes), changes)
	}
	for i, w := range want {
		if changes[i].Name != w.name || changes[i].Kind != w.kind {
			t.Errorf("change %d = %s %s, want %s %s", i, changes[i].Kind, changes[i].Name, w.kind, w.name)
		}
	}
	if changes[0].Old != nil || changes[2].New != nil {
		t.Error("added/removed changes carry only one side")
	}

	if len(Diff(old, old)) != 0 {
		t.Error("identical schemas should have no changes")
	}
}

func TestFingerprint(t *testing.T) {
	a := Schema{}.Add(orderType()).Add(colorType())
	b := Schema{}.Add(colorType()).Add(orderType())

	fa, err := a.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	fb, err := b.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if fa != fb {
		t.Error("fingerprint depends on insertion order")
	}

	c := Schema{}.Add(orderType()).Add(&EnumType{TypeName: "Color", Sealed: true})
	fc, _ := c.Fingerprint()
	if fc == fa {
		t.Error("different schemas share a fingerprint")
	}
	if len(fa.String()) != 64 || len(fa.Short()) != 12 {
		t.Errorf("String=%q Short=%q", fa.String(), fa.Short())
	}
}

func TestCBOR(t *testing.T) {
	s := testSchema(t)
	data, err := s.MarshalCBOR()
	if err != nil {
		t.Fatalf("MarshalCBOR failed: %v", err)
	}
	again, _ := s.MarshalCBOR()
	if !bytes.Equal(data, again) {
		t.Error("CBOR encoding is not deterministic")
	}

	var back Schema
	if err := back.UnmarshalCBOR(data); err != nil {
		t.Fatalf("UnmarshalCBOR failed: %v", err)
	}
	if !back.Equal(s) {
		t.Error("CBOR round trip changed the schema")
	}

	if err := back.UnmarshalCBOR([]byte{0xff}); err == nil {
		t.Error("garbage should fail")
	}
}

const yamlSchema = `
types:
  - kind: struct
    name: Order
    fields:
      - {name: id, type: u32}
      - {name: name, type: string}
      - {name: tags, type: list<string>}
      - {name: color, type: nullable<enum Color>}
  - kind: enum
    name: Color
    sealed: true
    values:
      - {name: red, value: 0}
      - {name: green, value: 1}
  - kind: oneof
    name: Shape
    cases:
      - {name: order, discriminant: 0, type: struct Order}
      - {name: size, discriminant: 7, type: u64}
  - kind: state_object
    name: Balance
    key_fields:
      - {name: owner, type: address}
    value_fields:
      - {name: amount, type: u128}
    retain_deletions: true
messages:
  - name: PlaceOrder
    request: struct Order
    response: u64
`

func TestLoadYAML(t *testing.T) {
	s, err := LoadYAML(strings.NewReader(yamlSchema))
	if err != nil {
		t.Fatalf("LoadYAML failed: %v", err)
	}
	if !s.Equal(testSchema(t)) {
		t.Error("loaded schema differs from the built one")
	}

	var buf bytes.Buffer
	if err := s.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	again, err := LoadYAML(&buf)
	if err != nil {
		t.Fatalf("reloading written YAML failed: %v\n%s", err, buf.String())
	}
	if !again.Equal(s) {
		t.Error("WriteYAML output does not reload to the same schema")
	}
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown kind":  "types:\n  - {kind: table, name: T}\n",
		"unknown key":   "types:\n  - {kind: struct, name: T, colour: red}\n",
		"bad type":      "types:\n  - kind: struct\n    name: T\n    fields:\n      - {name: a, type: float}\n",
		"unresolved":    "types:\n  - kind: struct\n    name: T\n    fields:\n      - {name: a, type: struct U}\n",
		"duplicate":     "types:\n  - {kind: struct, name: T}\n  - {kind: enum, name: T}\n",
		"not a mapping": "- 1\n- 2\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadYAML(strings.NewReader(src)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadJSONC(t *testing.T) {
	src := []byte(`{
		// orders placed by clients
		"types": [
			{"kind": "enum", "name": "Color", "sealed": true, "values": [
				{"name": "red", "value": 0},
				{"name": "green", "value": 1},
			]},
			/* the order itself */
			{"kind": "struct", "name": "Order", "fields": [
				{"name": "id", "type": "u32"},
				{"name": "name", "type": "string"},
				{"name": "tags", "type": "list<string>"},
				{"name": "color", "type": "nullable<enum Color>"},
			]},
		],
	}`)
	s, err := LoadJSONC(src)
	if err != nil {
		t.Fatalf("LoadJSONC failed: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("got %d types", s.Len())
	}
	order, ok := s.Lookup("Order")
	if !ok || !Equal(order, orderType()) {
		t.Errorf("Order = %+v", order)
	}

	if _, err := LoadJSONC([]byte(`{"types": [`)); err == nil {
		t.Error("truncated JSON should fail")
	}
}
