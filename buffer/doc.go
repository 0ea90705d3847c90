// Package buffer provides reverse writers for the encoder.
//
// A reverse writer fills its buffer from the end towards the start. Every
// prepend returns the number of bytes written so far, which is the offset of
// the written bytes measured from the end of the output. The encoder emits
// the last field first, so the finished buffer reads front to back.
//
// Growable doubles its backing array as needed and copies the result out on
// Finish. Fixed never grows and fails with a capacity error instead:
//
//	out, err := codec.Encode(order, buffer.Growable{})
//	out, err := codec.Encode(order, buffer.Fixed(128))
package buffer
