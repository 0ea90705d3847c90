package codec

import (
	"reflect"

	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/schema"
	"github.com/wippyai/wasm-schema/value"
)

// SchemaOf derives the schema of the named types reachable from goTypes,
// using the default codec's compiler.
func SchemaOf(goTypes ...reflect.Type) (schema.Schema, error) {
	return Default().SchemaOf(goTypes...)
}

// SchemaOf derives the schema of the named types reachable from goTypes.
// Types appear in the order they are first reached. Two distinct Go types
// with the same schema name are an error.
func (c *NativeBinary) SchemaOf(goTypes ...reflect.Type) (schema.Schema, error) {
	d := deriver{
		byName:  make(map[string]reflect.Type),
		visited: make(map[*CompiledType]bool),
		builder: schema.NewBuilder(),
	}
	for _, t := range goTypes {
		ct, err := c.compiler.Compile(t)
		if err != nil {
			return schema.Schema{}, err
		}
		if err := d.walk(ct); err != nil {
			return schema.Schema{}, err
		}
	}
	s, err := d.builder.Build()
	if err != nil {
		return schema.Schema{}, err
	}
	if err := s.Validate(); err != nil {
		return schema.Schema{}, err
	}
	return s, nil
}

type deriver struct {
	byName  map[string]reflect.Type
	visited map[*CompiledType]bool
	builder *schema.Builder
}

func (d *deriver) walk(ct *CompiledType) error {
	if ct == nil || d.visited[ct] {
		return nil
	}
	d.visited[ct] = true

	if ct.IsNamed() {
		if prev, ok := d.byName[ct.Name]; ok && prev != ct.GoType {
			return errors.New(errors.PhaseSchema, errors.KindDuplicateName).
				Path(ct.Name).
				GoType(ct.GoType.String()).
				Detail("schema name %q used by %s and %s", ct.Name, prev, ct.GoType).
				Build()
		}
		d.byName[ct.Name] = ct.GoType
		d.builder.Add(schemaType(ct))
	}

	if err := d.walk(ct.Elem); err != nil {
		return err
	}
	for _, f := range ct.Fields {
		if err := d.walk(f.Type); err != nil {
			return err
		}
	}
	for _, c := range ct.Cases {
		if err := d.walk(c.Type); err != nil {
			return err
		}
	}
	return nil
}

func schemaType(ct *CompiledType) schema.Type {
	switch {
	case ct.State != nil:
		return &schema.StateObjectType{
			TypeName:        ct.Name,
			KeyFields:       schemaFields(ct.Fields[:ct.State.KeyCount]),
			ValueFields:     schemaFields(ct.Fields[ct.State.KeyCount:]),
			RetainDeletions: ct.State.RetainDeletions,
		}
	case ct.Enum != nil:
		values := make([]schema.EnumValue, len(ct.Enum.Cases))
		for i, ec := range ct.Enum.Cases {
			values[i] = schema.EnumValue{Name: ec.Name, Value: ec.Value}
		}
		return &schema.EnumType{TypeName: ct.Name, Values: values, Sealed: ct.Enum.Sealed}
	case ct.Cases != nil:
		cases := make([]schema.OneOfCase, len(ct.Cases))
		for i, c := range ct.Cases {
			cases[i] = schema.OneOfCase{Name: c.Name, Discriminant: c.Discriminant, Type: c.Type.Wire}
		}
		return &schema.OneOfType{TypeName: ct.Name, Cases: cases}
	}
	return &schema.StructType{
		TypeName: ct.Name,
		Fields:   schemaFields(ct.Fields),
		Sealed:   value.IsSealed(ct.GoType),
	}
}

func schemaFields(fields []Field) []schema.Field {
	out := make([]schema.Field, len(fields))
	for i, f := range fields {
		out[i] = schema.Field{Name: f.Name, Type: f.Type.Wire}
	}
	return out
}
