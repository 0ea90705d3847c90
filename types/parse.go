package types

import (
	"strconv"
	"strings"

	"github.com/wippyai/wasm-schema/errors"
)

var scalarByName = map[string]Type{
	"bool":     Bool(),
	"u8":       U8(),
	"u16":      U16(),
	"u32":      U32(),
	"u64":      U64(),
	"u128":     UIntN(16),
	"i8":       I8(),
	"i16":      I16(),
	"i32":      I32(),
	"i64":      I64(),
	"i128":     IntN(16),
	"string":   Str(),
	"bytes":    Bytes(),
	"time":     Time(),
	"duration": Duration(),
	"address":  Address(),
}

// Parse reads the textual form produced by Type.String. It also accepts the
// u128/i128 shorthands.
func Parse(s string) (Type, error) {
	p := parser{src: s}
	t, err := p.parse()
	if err != nil {
		return Type{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Type{}, p.fail("unexpected trailing input")
	}
	return t, nil
}

// MustParse is like Parse but panics on error. For static tables.
func MustParse(s string) Type {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src string
	pos int
}

func (p *parser) fail(detail string) error {
	return errors.New(errors.PhaseSchema, errors.KindInvalidInput).
		Value(p.src).
		Detail("parse type %q at %d: %s", p.src, p.pos, detail).
		Build()
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '<' || c == '>' || c == ' ' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != c {
		return p.fail("expected " + strconv.QuoteRune(rune(c)))
	}
	p.pos++
	return nil
}

func (p *parser) parse() (Type, error) {
	word := p.ident()
	if word == "" {
		return Type{}, p.fail("expected type name")
	}
	if t, ok := scalarByName[word]; ok {
		return t, nil
	}

	switch word {
	case "uint", "int":
		if err := p.expect('<'); err != nil {
			return Type{}, err
		}
		num := p.ident()
		width, err := strconv.Atoi(num)
		if err != nil {
			return Type{}, p.fail("bad width " + strconv.Quote(num))
		}
		if err := p.expect('>'); err != nil {
			return Type{}, err
		}
		if word == "uint" {
			return UIntN(width), nil
		}
		return IntN(width), nil

	case "nullable", "list":
		if err := p.expect('<'); err != nil {
			return Type{}, err
		}
		inner, err := p.parse()
		if err != nil {
			return Type{}, err
		}
		if err := p.expect('>'); err != nil {
			return Type{}, err
		}
		if word == "list" {
			return List(inner), nil
		}
		return Nullable(inner), nil

	case "struct", "enum", "oneof":
		name := p.ident()
		if name == "" || strings.ContainsAny(name, "<>") {
			return Type{}, p.fail("expected " + word + " name")
		}
		switch word {
		case "struct":
			return StructRef(name), nil
		case "enum":
			return EnumRef(name), nil
		default:
			return OneOfRef(name), nil
		}
	}

	return Type{}, p.fail("unknown type " + strconv.Quote(word))
}

// MarshalText implements encoding.TextMarshaler so descriptors serialize as
// their textual form in YAML, JSON and CBOR documents.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
