// Package witexport maps a schema onto WIT type definitions so the same types
// can be declared at a component boundary.
//
// Structs and state objects become records, enums become enums and one-ofs
// become variants. Descriptors without a WIT counterpart are widened: time and
// duration travel as s64 nanoseconds, bytes and addresses as list<u8>, and
// wide integers as tuples of 64-bit words, low word first. Names are
// converted to kebab-case.
//
// WIT enums number their cases from zero, so an exported enum keeps the case
// names ordered by value but not the values themselves.
package witexport
