package layout

import (
	"go.bytecodealliance.org/wit"
)

// Slot is where one record field sits inside its record.
type Slot struct {
	Name   string
	Offset uint32
	Size   uint32
}

// Info is the Canonical ABI layout of a type. Fields is set for records, in
// declaration order.
type Info struct {
	Fields []Slot
	Size   uint32
	Align  uint32
}

// Offset returns the offset of the record field called name.
func (i Info) Offset(name string) (uint32, bool) {
	for _, s := range i.Fields {
		if s.Name == name {
			return s.Offset, true
		}
	}
	return 0, false
}

// Padding is the number of bytes in a record not covered by any field.
func (i Info) Padding() uint32 {
	used := uint32(0)
	for _, s := range i.Fields {
		used += s.Size
	}
	return i.Size - used
}

var empty = Info{Size: 0, Align: 1}

// AlignTo rounds offset up to a multiple of align, which must be a power of
// two.
func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// DiscriminantSize is the width of a variant or enum tag with numCases cases.
func DiscriminantSize(numCases int) uint32 {
	switch {
	case numCases <= 1<<8:
		return 1
	case numCases <= 1<<16:
		return 2
	}
	return 4
}

// Calculator memoizes typedef layouts. It is not safe for concurrent use.
type Calculator struct {
	seen map[*wit.TypeDef]Info
}

func NewCalculator() *Calculator {
	return &Calculator{seen: make(map[*wit.TypeDef]Info)}
}

// Of returns the layout of t. Types the exporter never produces lay out as
// zero-sized.
func (c *Calculator) Of(t wit.Type) Info {
	switch t := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Info{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}
	case wit.String:
		return pointerPair
	case *wit.TypeDef:
		return c.def(t)
	}
	return empty
}

// pointerPair is the (ptr, len) pair strings and lists occupy in place.
var pointerPair = Info{Size: 8, Align: 4}

func (c *Calculator) def(td *wit.TypeDef) Info {
	if info, ok := c.seen[td]; ok {
		return info
	}

	var info Info
	switch k := td.Kind.(type) {
	case *wit.Record:
		names := make([]string, len(k.Fields))
		ts := make([]wit.Type, len(k.Fields))
		for i, f := range k.Fields {
			names[i], ts[i] = f.Name, f.Type
		}
		info = c.sequence(names, ts)
	case *wit.Tuple:
		info = c.sequence(nil, k.Types)
		info.Fields = nil
	case *wit.Variant:
		payloads := make([]wit.Type, len(k.Cases))
		for i, cs := range k.Cases {
			payloads[i] = cs.Type
		}
		info = c.tagged(len(k.Cases), payloads)
	case *wit.Option:
		info = c.tagged(2, []wit.Type{k.Type})
	case *wit.Enum:
		info = c.tagged(len(k.Cases), nil)
	case *wit.List:
		info = pointerPair
	case wit.Type:
		info = c.Of(k)
	default:
		info = empty
	}

	c.seen[td] = info
	return info
}

// sequence lays ts out one after another, each at its own alignment.
func (c *Calculator) sequence(names []string, ts []wit.Type) Info {
	if len(ts) == 0 {
		return empty
	}
	slots := make([]Slot, len(ts))
	align, off := uint32(1), uint32(0)
	for i, t := range ts {
		elem := c.Of(t)
		off = AlignTo(off, elem.Align)
		slots[i] = Slot{Offset: off, Size: elem.Size}
		if names != nil {
			slots[i].Name = names[i]
		}
		align = max(align, elem.Align)
		off += elem.Size
	}
	return Info{Fields: slots, Size: AlignTo(off, align), Align: align}
}

// tagged lays out a discriminant for cases cases followed by room for the
// largest payload. A nil payload takes no space.
func (c *Calculator) tagged(cases int, payloads []wit.Type) Info {
	if cases == 0 {
		return empty
	}
	disc := DiscriminantSize(cases)
	align, size := disc, uint32(0)
	for _, p := range payloads {
		if p == nil {
			continue
		}
		elem := c.Of(p)
		align = max(align, elem.Align)
		size = max(size, elem.Size)
	}
	return Info{Size: AlignTo(AlignTo(disc, align)+size, align), Align: align}
}
