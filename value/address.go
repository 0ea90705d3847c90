package value

import "encoding/hex"

// Address is an opaque account or contract address. It encodes as a
// length-prefixed byte string and decodes as a view into the input.
type Address []byte

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a)
}

func (a Address) Equal(o Address) bool {
	return string(a) == string(o)
}
