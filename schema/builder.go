package schema

import (
	"github.com/wippyai/wasm-schema/errors"
)

// Builder assembles a Schema and rejects duplicate type and message names.
type Builder struct {
	types    []Type
	messages []MessageDescriptor
	names    map[string]struct{}
	msgNames map[string]struct{}
	err      error
}

func NewBuilder() *Builder {
	return &Builder{
		names:    make(map[string]struct{}),
		msgNames: make(map[string]struct{}),
	}
}

// From starts a builder holding the types and messages of s.
func From(s Schema) *Builder {
	b := NewBuilder()
	b.Add(s.types...)
	b.AddMessage(s.messages...)
	return b
}

// Add appends types. The first error is kept and reported by Build.
func (b *Builder) Add(ts ...Type) *Builder {
	for _, t := range ts {
		if b.err != nil {
			return b
		}
		if t == nil {
			b.err = errors.NilPointer(errors.PhaseSchema, nil, "schema.Type")
			return b
		}
		if t.Name() == "" {
			b.err = errors.InvalidData(errors.PhaseSchema, nil, t.Kind().String()+" without name")
			return b
		}
		if _, dup := b.names[t.Name()]; dup {
			b.err = errors.DuplicateName(errors.PhaseSchema, []string{"types"}, t.Name())
			return b
		}
		b.names[t.Name()] = struct{}{}
		b.types = append(b.types, clone(t))
	}
	return b
}

// Has reports whether a type named name was added.
func (b *Builder) Has(name string) bool {
	_, ok := b.names[name]
	return ok
}

func (b *Builder) AddMessage(ms ...MessageDescriptor) *Builder {
	for _, m := range ms {
		if b.err != nil {
			return b
		}
		if m.Name == "" {
			b.err = errors.InvalidData(errors.PhaseSchema, []string{"messages"}, "message without name")
			return b
		}
		if _, dup := b.msgNames[m.Name]; dup {
			b.err = errors.DuplicateName(errors.PhaseSchema, []string{"messages"}, m.Name)
			return b
		}
		b.msgNames[m.Name] = struct{}{}
		b.messages = append(b.messages, cloneMessage(m))
	}
	return b
}

func (b *Builder) Build() (Schema, error) {
	if b.err != nil {
		return Schema{}, b.err
	}
	return Schema{
		types:    append([]Type(nil), b.types...),
		messages: append([]MessageDescriptor(nil), b.messages...),
	}, nil
}
