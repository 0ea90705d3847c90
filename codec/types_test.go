package codec

import (
	"time"

	"github.com/wippyai/wasm-schema/value"
)

type Color int32

const (
	Red Color = iota
	Green
	Blue
)

func (Color) EnumCases() []value.EnumCase {
	return []value.EnumCase{{Name: "red", Value: 0}, {Name: "green", Value: 1}, {Name: "blue", Value: 2}}
}

type Level uint8

func (Level) EnumCases() []value.EnumCase {
	return []value.EnumCase{{Name: "low", Value: 1}, {Name: "high", Value: 2}}
}

func (Level) Unsealed() {}

type Circle struct {
	Radius uint32
}

type Square struct {
	Side  uint16
	Label string
}

type Shape struct {
	Circle *Circle `schema:"circle,4"`
	Square *Square `schema:"square,9"`
}

func (Shape) OneOf() {}

type Everything struct {
	B      bool
	U8     uint8
	U16    uint16
	U32    uint32
	U64    uint64
	I8     int8
	I16    int16
	I32    int32
	I64    int64
	Big    value.Uint128
	Signed value.Int128
	S      string
	Raw    []byte
	When   time.Time
	Took   time.Duration
	Addr   value.Address
	Maybe  *uint32
	Tags   []string
	Nums   []int64
	Color  Color
	Level  Level
	Shape  Shape
	Shapes []Shape
	Child  *Everything
}

type Order struct {
	ID   uint32
	Name string
	Tags []string
}

type Optional struct {
	V *uint32
}

type Unit struct{}

type Balance struct {
	Amount value.Uint128
	Owner  value.Address
	Memo   string
}

func (Balance) StateKey() []string { return []string{"owner"} }

func (Balance) RetainDeletions() bool { return true }

// Celsius has no wire mapping of its own; it travels as milli-degrees.
type Celsius float64

var _, _ = value.RegisterAdapter(
	func(c Celsius) (int64, error) { return int64(c * 1000), nil },
	func(m int64) (Celsius, error) { return Celsius(m) / 1000, nil },
)

type Reading struct {
	Sensor string
	Temp   Celsius
}

func u32p(v uint32) *uint32 { return &v }

func sampleEverything() Everything {
	return Everything{
		B:      true,
		U8:     0xfe,
		U16:    0xbeef,
		U32:    0xdeadbeef,
		U64:    1<<63 + 5,
		I8:     -3,
		I16:    -1234,
		I32:    -70000,
		I64:    -1 << 40,
		Big:    value.Uint128{Lo: 2, Hi: 1},
		Signed: value.I128(-5),
		S:      "héllo",
		Raw:    []byte{0, 1, 2, 255},
		When:   time.Date(2024, 3, 1, 12, 30, 0, 500, time.UTC),
		Took:   90 * time.Second,
		Addr:   value.Address{0xaa, 0xbb},
		Maybe:  u32p(42),
		Tags:   []string{"a", "", "ccc"},
		Nums:   []int64{-1, 0, 1 << 50},
		Color:  Blue,
		Level:  Level(77),
		Shape:  Shape{Square: &Square{Side: 3, Label: "sq"}},
		Shapes: []Shape{{Circle: &Circle{Radius: 9}}, {Square: &Square{Side: 1}}},
		Child: &Everything{
			S:     "child",
			Level: 1,
			Shape: Shape{Circle: &Circle{Radius: 1}},
		},
	}
}
