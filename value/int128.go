package value

import (
	"math/big"
)

// Uint128 is an unsigned 128-bit integer. It encodes as uint<16>.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// Int128 is a two's complement signed 128-bit integer. It encodes as int<16>.
type Int128 struct {
	Lo uint64
	Hi int64
}

func U128(v uint64) Uint128 { return Uint128{Lo: v} }

func I128(v int64) Int128 {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	return Int128{Lo: uint64(v), Hi: hi}
}

func (u Uint128) IsZero() bool { return u.Lo == 0 && u.Hi == 0 }

// Cmp returns -1, 0 or +1.
func (u Uint128) Cmp(o Uint128) int {
	switch {
	case u.Hi < o.Hi:
		return -1
	case u.Hi > o.Hi:
		return 1
	case u.Lo < o.Lo:
		return -1
	case u.Lo > o.Lo:
		return 1
	}
	return 0
}

func (u Uint128) Big() *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(u.Lo))
}

func (u Uint128) String() string { return u.Big().String() }

func (i Int128) IsNegative() bool { return i.Hi < 0 }

func (i Int128) Cmp(o Int128) int {
	switch {
	case i.Hi < o.Hi:
		return -1
	case i.Hi > o.Hi:
		return 1
	case i.Lo < o.Lo:
		return -1
	case i.Lo > o.Lo:
		return 1
	}
	return 0
}

func (i Int128) Big() *big.Int {
	b := new(big.Int).SetInt64(i.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(i.Lo))
}

func (i Int128) String() string { return i.Big().String() }
