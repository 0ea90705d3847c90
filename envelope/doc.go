// Package envelope frames encoded payloads for storage.
//
// A frame is a fixed header followed by the payload:
//
//	"WSCH" | version u8 | compression u8 | fingerprint [32] | length u32 | payload
//
// The fingerprint names the schema the payload was encoded with and the length
// is the uncompressed payload size. Integers are little-endian, like the
// payload itself. Seal falls back to no compression when the payload does not
// shrink, so the compression byte always describes what is on disk.
package envelope
