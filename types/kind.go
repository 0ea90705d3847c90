package types

type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindU8
	KindU16
	KindU32
	KindU64
	KindUIntN
	KindI8
	KindI16
	KindI32
	KindI64
	KindIntN
	KindString
	KindBytes
	KindTime
	KindDuration
	KindAddress
	KindNullable
	KindList
	KindStruct
	KindEnum
	KindOneOf
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindBool:     "bool",
	KindU8:       "u8",
	KindU16:      "u16",
	KindU32:      "u32",
	KindU64:      "u64",
	KindUIntN:    "uint",
	KindI8:       "i8",
	KindI16:      "i16",
	KindI32:      "i32",
	KindI64:      "i64",
	KindIntN:     "int",
	KindString:   "string",
	KindBytes:    "bytes",
	KindTime:     "time",
	KindDuration: "duration",
	KindAddress:  "address",
	KindNullable: "nullable",
	KindList:     "list",
	KindStruct:   "struct",
	KindEnum:     "enum",
	KindOneOf:    "oneof",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsScalar reports fixed-width kinds that carry no nested descriptor.
func (k Kind) IsScalar() bool {
	switch k {
	case KindBool, KindU8, KindU16, KindU32, KindU64, KindUIntN,
		KindI8, KindI16, KindI32, KindI64, KindIntN, KindTime, KindDuration:
		return true
	default:
		return false
	}
}

// IsComposite reports kinds that wrap an element descriptor.
func (k Kind) IsComposite() bool {
	return k == KindNullable || k == KindList
}

// IsNamed reports kinds that refer to a schema type by name.
func (k Kind) IsNamed() bool {
	return k == KindStruct || k == KindEnum || k == KindOneOf
}

// IsVarLen reports kinds encoded with a u32 length prefix.
func (k Kind) IsVarLen() bool {
	switch k {
	case KindString, KindBytes, KindAddress:
		return true
	default:
		return false
	}
}
