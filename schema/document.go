package schema

import (
	"encoding/json"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/types"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Descriptors serialize through MarshalText as their textual form.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("schema: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("schema: CBOR decoder initialization failed: " + err.Error())
	}
}

// document is the serialized form shared by CBOR, YAML and JSON.
type document struct {
	Types    []typeDoc    `cbor:"1,keyasint" yaml:"types" json:"types"`
	Messages []messageDoc `cbor:"2,keyasint,omitempty" yaml:"messages,omitempty" json:"messages,omitempty"`
}

type typeDoc struct {
	Kind            string      `cbor:"1,keyasint" yaml:"kind" json:"kind"`
	Name            string      `cbor:"2,keyasint" yaml:"name" json:"name"`
	Fields          []Field     `cbor:"3,keyasint,omitempty" yaml:"fields,omitempty" json:"fields,omitempty"`
	Values          []EnumValue `cbor:"4,keyasint,omitempty" yaml:"values,omitempty" json:"values,omitempty"`
	Cases           []OneOfCase `cbor:"5,keyasint,omitempty" yaml:"cases,omitempty" json:"cases,omitempty"`
	KeyFields       []Field     `cbor:"6,keyasint,omitempty" yaml:"key_fields,omitempty" json:"key_fields,omitempty"`
	ValueFields     []Field     `cbor:"7,keyasint,omitempty" yaml:"value_fields,omitempty" json:"value_fields,omitempty"`
	Sealed          bool        `cbor:"8,keyasint,omitempty" yaml:"sealed,omitempty" json:"sealed,omitempty"`
	RetainDeletions bool        `cbor:"9,keyasint,omitempty" yaml:"retain_deletions,omitempty" json:"retain_deletions,omitempty"`
}

type messageDoc struct {
	Name     string      `cbor:"1,keyasint" yaml:"name" json:"name"`
	Request  types.Type  `cbor:"2,keyasint" yaml:"request" json:"request"`
	Response *types.Type `cbor:"3,keyasint,omitempty" yaml:"response,omitempty" json:"response,omitempty"`
	Error    *types.Type `cbor:"4,keyasint,omitempty" yaml:"error,omitempty" json:"error,omitempty"`
}

func toDocument(ts []Type, ms []MessageDescriptor) document {
	doc := document{Types: make([]typeDoc, 0, len(ts))}
	for _, t := range ts {
		d := typeDoc{Kind: t.Kind().String(), Name: t.Name()}
		switch v := t.(type) {
		case *StructType:
			d.Fields = v.Fields
			d.Sealed = v.Sealed
		case *EnumType:
			d.Values = v.Values
			d.Sealed = v.Sealed
		case *OneOfType:
			d.Cases = v.Cases
		case *StateObjectType:
			d.KeyFields = v.KeyFields
			d.ValueFields = v.ValueFields
			d.RetainDeletions = v.RetainDeletions
		}
		doc.Types = append(doc.Types, d)
	}
	for _, m := range ms {
		md := messageDoc{Name: m.Name, Request: m.RequestType}
		if m.HasResponse() {
			r := m.ResponseType
			md.Response = &r
		}
		if m.HasError() {
			e := m.ErrorType
			md.Error = &e
		}
		doc.Messages = append(doc.Messages, md)
	}
	return doc
}

func (doc document) build() (Schema, error) {
	b := NewBuilder()
	for _, d := range doc.Types {
		kind, ok := parseKind(d.Kind)
		if !ok {
			return Schema{}, errors.New(errors.PhaseSchema, errors.KindInvalidInput).
				Path(d.Name).
				Value(d.Kind).
				Detail("unknown schema type kind %q", d.Kind).
				Build()
		}
		switch kind {
		case KindStruct:
			b.Add(&StructType{TypeName: d.Name, Fields: d.Fields, Sealed: d.Sealed})
		case KindEnum:
			b.Add(&EnumType{TypeName: d.Name, Values: d.Values, Sealed: d.Sealed})
		case KindOneOf:
			b.Add(&OneOfType{TypeName: d.Name, Cases: d.Cases})
		case KindStateObject:
			b.Add(&StateObjectType{
				TypeName:        d.Name,
				KeyFields:       d.KeyFields,
				ValueFields:     d.ValueFields,
				RetainDeletions: d.RetainDeletions,
			})
		}
	}
	for _, md := range doc.Messages {
		m := MessageDescriptor{Name: md.Name, RequestType: md.Request}
		if md.Response != nil {
			m.ResponseType = *md.Response
		}
		if md.Error != nil {
			m.ErrorType = *md.Error
		}
		b.AddMessage(m)
	}

	s, err := b.Build()
	if err != nil {
		return Schema{}, err
	}
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// MarshalCBOR encodes the schema in insertion order as Core Deterministic
// CBOR.
func (s Schema) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(toDocument(s.types, s.messages))
}

// UnmarshalCBOR decodes and validates a schema document.
func (s *Schema) UnmarshalCBOR(data []byte) error {
	var doc document
	if err := decMode.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(errors.PhaseSchema, errors.KindInvalidData, err, "decode CBOR schema")
	}
	built, err := doc.build()
	if err != nil {
		return err
	}
	*s = built
	return nil
}

// LoadYAML reads and validates a YAML schema definition. Unknown keys are
// rejected.
func LoadYAML(r io.Reader) (Schema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return Schema{}, errors.Wrap(errors.PhaseSchema, errors.KindInvalidInput, err, "parse YAML schema")
	}
	return doc.build()
}

// LoadJSONC reads and validates a JSON schema definition that may contain
// comments and trailing commas.
func LoadJSONC(data []byte) (Schema, error) {
	var doc document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return Schema{}, errors.Wrap(errors.PhaseSchema, errors.KindInvalidInput, err, "parse JSONC schema")
	}
	return doc.build()
}

// WriteYAML writes the schema in the format LoadYAML reads.
func (s Schema) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toDocument(s.types, s.messages)); err != nil {
		return errors.Wrap(errors.PhaseSchema, errors.KindInvalidData, err, "write YAML schema")
	}
	return enc.Close()
}
