// Package types defines the wire-level type descriptors.
//
// A Type identifies how one value is physically encoded. The set of kinds is
// closed: fixed-width integers, bool, string, bytes, time, duration, address,
// the nullable and list wrappers, and named references to schema types
// (struct, enum, one-of).
//
// Integers wider than 64 bits use the width-parameterized UIntN/IntN kinds,
// so a 128-bit unsigned integer is UIntN(16).
//
// Descriptors have a textual form used in schema files:
//
//	u32
//	uint<16>
//	list<string>
//	nullable<struct Order>
package types
