package schema

import (
	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/types"
)

// Validate checks that names are unique, descriptors are well formed and every
// named reference resolves to a type of the matching kind.
func (s Schema) Validate() error {
	byName := make(map[string]Type, len(s.types))
	for _, t := range s.types {
		if t.Name() == "" {
			return errors.InvalidData(errors.PhaseValidate, nil, t.Kind().String()+" without name")
		}
		if _, dup := byName[t.Name()]; dup {
			return errors.DuplicateName(errors.PhaseValidate, nil, t.Name())
		}
		byName[t.Name()] = t
	}

	v := validator{byName: byName}
	for _, t := range s.types {
		if err := v.validateType(t); err != nil {
			return err
		}
	}

	msgs := make(map[string]struct{}, len(s.messages))
	for _, m := range s.messages {
		path := []string{"message " + m.Name}
		if m.Name == "" {
			return errors.InvalidData(errors.PhaseValidate, nil, "message without name")
		}
		if _, dup := msgs[m.Name]; dup {
			return errors.DuplicateName(errors.PhaseValidate, nil, m.Name)
		}
		msgs[m.Name] = struct{}{}

		if err := v.validateRef(m.RequestType, append(path, "request")); err != nil {
			return err
		}
		if m.HasResponse() {
			if err := v.validateRef(m.ResponseType, append(path, "response")); err != nil {
				return err
			}
		}
		if m.HasError() {
			if err := v.validateRef(m.ErrorType, append(path, "error")); err != nil {
				return err
			}
		}
	}
	return nil
}

type validator struct {
	byName map[string]Type
}

func (v validator) validateType(t Type) error {
	path := []string{t.Kind().String() + " " + t.Name()}
	switch st := t.(type) {
	case *StructType:
		return v.validateFields(st.Fields, path)

	case *EnumType:
		names := make(map[string]struct{}, len(st.Values))
		values := make(map[int32]string, len(st.Values))
		for _, ev := range st.Values {
			if ev.Name == "" {
				return errors.InvalidData(errors.PhaseValidate, path, "enum value without name")
			}
			if _, dup := names[ev.Name]; dup {
				return errors.DuplicateName(errors.PhaseValidate, path, ev.Name)
			}
			if prev, dup := values[ev.Value]; dup {
				return errors.New(errors.PhaseValidate, errors.KindDuplicateName).
					Path(append(path, ev.Name)...).
					Value(ev.Value).
					Detail("value %d already used by %q", ev.Value, prev).
					Build()
			}
			names[ev.Name] = struct{}{}
			values[ev.Value] = ev.Name
		}

	case *OneOfType:
		if len(st.Cases) == 0 {
			return errors.InvalidData(errors.PhaseValidate, path, "one-of without cases")
		}
		names := make(map[string]struct{}, len(st.Cases))
		discs := make(map[int32]string, len(st.Cases))
		for _, c := range st.Cases {
			if c.Name == "" {
				return errors.InvalidData(errors.PhaseValidate, path, "one-of case without name")
			}
			if _, dup := names[c.Name]; dup {
				return errors.DuplicateName(errors.PhaseValidate, path, c.Name)
			}
			if prev, dup := discs[c.Discriminant]; dup {
				return errors.New(errors.PhaseValidate, errors.KindDuplicateName).
					Path(append(path, c.Name)...).
					Value(c.Discriminant).
					Detail("discriminant %d already used by %q", c.Discriminant, prev).
					Build()
			}
			names[c.Name] = struct{}{}
			discs[c.Discriminant] = c.Name
			if err := v.validateRef(c.Type, append(append([]string{}, path...), c.Name)); err != nil {
				return err
			}
		}

	case *StateObjectType:
		if len(st.KeyFields) == 0 {
			return errors.InvalidData(errors.PhaseValidate, path, "state object without key fields")
		}
		return v.validateFields(st.Fields(), path)
	}
	return nil
}

func (v validator) validateFields(fields []Field, path []string) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return errors.InvalidData(errors.PhaseValidate, path, "field without name")
		}
		if _, dup := seen[f.Name]; dup {
			return errors.DuplicateName(errors.PhaseValidate, path, f.Name)
		}
		seen[f.Name] = struct{}{}
		if err := v.validateRef(f.Type, append(append([]string{}, path...), f.Name)); err != nil {
			return err
		}
	}
	return nil
}

// validateRef checks a descriptor and resolves the schema type it names.
func (v validator) validateRef(t types.Type, path []string) error {
	if err := t.Validate(); err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.Path = append(append([]string{}, path...), e.Path...)
		}
		return err
	}
	for t.Kind.IsComposite() {
		t = *t.Elem
	}
	if !t.Kind.IsNamed() {
		return nil
	}

	target, ok := v.byName[t.Name]
	if !ok {
		return errors.New(errors.PhaseValidate, errors.KindNotFound).
			Path(path...).
			WireType(t.String()).
			Detail("unresolved reference %q", t.Name).
			Build()
	}
	var match bool
	switch t.Kind {
	case types.KindStruct:
		match = target.Kind() == KindStruct || target.Kind() == KindStateObject
	case types.KindEnum:
		match = target.Kind() == KindEnum
	case types.KindOneOf:
		match = target.Kind() == KindOneOf
	}
	if !match {
		return errors.TypeMismatch(errors.PhaseValidate, path, target.Kind().String()+" "+target.Name(), t.String())
	}
	return nil
}
