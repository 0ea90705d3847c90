// Package errors provides structured error types for the wasm-schema module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: field path, Go/wire type names, and cause chain.
//
// Encode and decode failures form two disjoint taxonomies, told apart by
// Phase. Use IsEncode and IsDecode to classify an error returned by the codec:
//
//	if errors.IsDecode(err) {
//		// truncated input, bad length, unknown variant, range check
//	}
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
//		Path("order", "items").
//		WireType("list<string>").
//		Detail("length %d escapes buffer", n).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Truncated(path, 4, 1)
//	err := errors.UnknownVariant(errors.PhaseDecode, path, 7, "Shape")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
