package buffer

import (
	"encoding/binary"
	"sync"

	wasmschema "github.com/wippyai/wasm-schema"
	"github.com/wippyai/wasm-schema/errors"
)

const (
	defaultInitialSize = 256
	poolMaxCap         = 64 << 10
)

var backingPool = sync.Pool{
	New: func() any {
		buf := make([]byte, defaultInitialSize)
		return &buf
	},
}

func getBacking(n int) *[]byte {
	buf := backingPool.Get().(*[]byte)
	if cap(*buf) < n {
		*buf = make([]byte, n)
	}
	*buf = (*buf)[:cap(*buf)]
	return buf
}

func putBacking(buf *[]byte) {
	if buf == nil || cap(*buf) > poolMaxCap {
		return
	}
	backingPool.Put(buf)
}

var (
	_ wasmschema.OutputWriter[[]byte]  = (*Writer)(nil)
	_ wasmschema.WriterFactory[[]byte] = Growable{}
	_ wasmschema.WriterFactory[[]byte] = FixedFactory{}
)

// Writer is a reverse writer over a byte slice. The written bytes are
// buf[off:].
type Writer struct {
	buf     []byte
	off     int
	backing *[]byte
	fixed   bool
	done    bool
}

// Into returns a fixed writer that fills dst from its end. Finish returns the
// written tail of dst without copying.
func Into(dst []byte) *Writer {
	return &Writer{buf: dst, off: len(dst), fixed: true}
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf) - w.off
}

// reserve makes room for n more bytes and returns the slice to fill.
func (w *Writer) reserve(n int) ([]byte, error) {
	if w.done {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("write after finish").
			Build()
	}
	if w.off < n {
		if w.fixed {
			return nil, errors.CapacityExceeded(w.Len()+n, len(w.buf))
		}
		w.grow(n)
	}
	w.off -= n
	return w.buf[w.off : w.off+n], nil
}

// grow moves the written tail to the end of a larger array.
func (w *Writer) grow(n int) {
	used := w.Len()
	size := 2 * len(w.buf)
	if size < used+n {
		size = used + n
	}
	next := getBacking(size)
	copy((*next)[len(*next)-used:], w.buf[w.off:])
	putBacking(w.backing)
	w.backing = next
	w.buf = *next
	w.off = len(w.buf) - used
}

func (w *Writer) Prepend(p []byte) (int, error) {
	dst, err := w.reserve(len(p))
	if err != nil {
		return 0, err
	}
	copy(dst, p)
	return w.Len(), nil
}

func (w *Writer) PrependByte(b byte) (int, error) {
	dst, err := w.reserve(1)
	if err != nil {
		return 0, err
	}
	dst[0] = b
	return w.Len(), nil
}

func (w *Writer) PrependU16(v uint16) (int, error) {
	dst, err := w.reserve(2)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint16(dst, v)
	return w.Len(), nil
}

func (w *Writer) PrependU32(v uint32) (int, error) {
	dst, err := w.reserve(4)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint32(dst, v)
	return w.Len(), nil
}

func (w *Writer) PrependU64(v uint64) (int, error) {
	dst, err := w.reserve(8)
	if err != nil {
		return 0, err
	}
	binary.LittleEndian.PutUint64(dst, v)
	return w.Len(), nil
}

// Finish returns the written bytes. A growable writer copies them out of its
// pooled array; a fixed writer returns a view of its buffer. The writer
// accepts no further writes.
func (w *Writer) Finish() ([]byte, error) {
	if w.done {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("finish called twice").
			Build()
	}
	w.done = true
	if w.backing == nil {
		return w.buf[w.off:], nil
	}
	out := make([]byte, w.Len())
	copy(out, w.buf[w.off:])
	w.release()
	return out, nil
}

// Discard drops the written bytes after a failed encode.
func (w *Writer) Discard() {
	w.done = true
	w.release()
}

func (w *Writer) release() {
	putBacking(w.backing)
	w.backing = nil
	w.buf = nil
	w.off = 0
}

// Growable is the factory for growable writers. The zero value starts each
// writer with a pooled array of the default size.
type Growable struct {
	InitialSize int
}

func (g Growable) NewWriter() (wasmschema.OutputWriter[[]byte], error) {
	size := g.InitialSize
	if size <= 0 {
		size = defaultInitialSize
	}
	backing := getBacking(size)
	return &Writer{buf: *backing, off: len(*backing), backing: backing}, nil
}

// FixedFactory creates fixed-capacity writers.
type FixedFactory struct {
	size int
}

// Fixed returns a factory whose writers hold at most n bytes. Writing more
// fails with a capacity error.
func Fixed(n int) FixedFactory {
	return FixedFactory{size: n}
}

func (f FixedFactory) NewWriter() (wasmschema.OutputWriter[[]byte], error) {
	if f.size < 0 {
		return nil, errors.InvalidInput(errors.PhaseEncode, "negative buffer size")
	}
	return Into(make([]byte, f.size)), nil
}
