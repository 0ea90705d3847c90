// Package layout computes Canonical ABI size, alignment and field offsets for
// WIT types.
//
// The rules follow the Component Model:
//   - Primitives: size equals alignment (u8=1, u32=4, u64=8, etc.)
//   - Records: fields laid out sequentially with padding for alignment
//   - Variants: discriminant followed by largest payload case
//   - Lists/Strings: (pointer, length) pair in memory, content elsewhere
//
// Exported schemas use it to report how their records would sit in guest
// memory when passed through a component boundary.
package layout
