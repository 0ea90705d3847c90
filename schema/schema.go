package schema

import (
	"slices"

	"github.com/wippyai/wasm-schema/types"
)

// MessageDescriptor names a message and the types it exchanges. A zero
// ResponseType or ErrorType means the message has none.
type MessageDescriptor struct {
	Name         string
	RequestType  types.Type
	ResponseType types.Type
	ErrorType    types.Type
}

func (m MessageDescriptor) HasResponse() bool { return m.ResponseType.Kind != types.KindInvalid }
func (m MessageDescriptor) HasError() bool    { return m.ErrorType.Kind != types.KindInvalid }

// Schema is an immutable ordered collection of schema types and message
// descriptors. The zero value is an empty schema.
type Schema struct {
	types    []Type
	messages []MessageDescriptor
}

// HasSchema is implemented by packages of messages that publish their schema.
type HasSchema interface {
	Schema() Schema
}

// Add returns a schema holding the receiver's types followed by t. The
// receiver is unchanged. Duplicate names are not rejected here; use Builder
// or Validate for that.
func (s Schema) Add(t Type) Schema {
	if t == nil {
		return s
	}
	next := make([]Type, len(s.types), len(s.types)+1)
	copy(next, s.types)
	return Schema{
		types:    append(next, clone(t)),
		messages: s.messages,
	}
}

// AddMessage returns a schema with m appended to the message descriptors.
func (s Schema) AddMessage(m MessageDescriptor) Schema {
	next := make([]MessageDescriptor, len(s.messages), len(s.messages)+1)
	copy(next, s.messages)
	return Schema{
		types:    s.types,
		messages: append(next, cloneMessage(m)),
	}
}

func cloneMessage(m MessageDescriptor) MessageDescriptor {
	m.RequestType = m.RequestType.Clone()
	m.ResponseType = m.ResponseType.Clone()
	m.ErrorType = m.ErrorType.Clone()
	return m
}

// Types returns copies of the schema types in insertion order. Changing them
// does not change the schema.
func (s Schema) Types() []Type {
	out := make([]Type, len(s.types))
	for i, t := range s.types {
		out[i] = clone(t)
	}
	return out
}

// Sorted returns copies of the schema types ordered by name. Types sharing a
// name keep their insertion order.
func (s Schema) Sorted() []Type {
	out := s.Types()
	slices.SortStableFunc(out, Compare)
	return out
}

func (s Schema) Messages() []MessageDescriptor {
	out := slices.Clone(s.messages)
	for i := range out {
		out[i] = cloneMessage(out[i])
	}
	return out
}

func (s Schema) Len() int {
	return len(s.types)
}

// Lookup returns a copy of the first type named name.
func (s Schema) Lookup(name string) (Type, bool) {
	for _, t := range s.types {
		if t.Name() == name {
			return clone(t), true
		}
	}
	return nil, false
}

// Message returns the message descriptor named name.
func (s Schema) Message(name string) (MessageDescriptor, bool) {
	for _, m := range s.messages {
		if m.Name == name {
			return cloneMessage(m), true
		}
	}
	return MessageDescriptor{}, false
}

// Equal reports whether both schemas hold structurally equal types and
// messages in the same order.
func (s Schema) Equal(o Schema) bool {
	return slices.EqualFunc(s.types, o.types, Equal) &&
		slices.EqualFunc(s.messages, o.messages, func(a, b MessageDescriptor) bool {
			return a.Name == b.Name &&
				a.RequestType.Equal(b.RequestType) &&
				a.ResponseType.Equal(b.ResponseType) &&
				a.ErrorType.Equal(b.ErrorType)
		})
}
