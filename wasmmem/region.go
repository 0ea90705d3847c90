package wasmmem

import (
	wasmschema "github.com/wippyai/wasm-schema"
	"github.com/wippyai/wasm-schema/buffer"
	"github.com/wippyai/wasm-schema/errors"
)

// Region locates an encoded value in guest memory.
type Region struct {
	Ptr uint32
	Len uint32
}

// End returns the address one past the last byte.
func (r Region) End() uint32 {
	return r.Ptr + r.Len
}

// Input returns a view of r for decoding.
func Input(mem wasmschema.Memory, r Region) ([]byte, error) {
	if mem == nil {
		return nil, errors.NilPointer(errors.PhaseDecode, nil, "wasmschema.Memory")
	}
	if uint64(r.Ptr)+uint64(r.Len) > uint64(mem.Size()) {
		return nil, errors.OutOfBounds(errors.PhaseDecode, nil, int(r.End()), int(mem.Size()))
	}
	return mem.Read(r.Ptr, r.Len)
}

var _ wasmschema.WriterFactory[Region] = Factory{}

// Factory creates writers that fill the guest range [Start, End) from End
// downwards. The finished Region ends at End.
type Factory struct {
	Memory wasmschema.Memory
	Start  uint32
	End    uint32
}

func (f Factory) NewWriter() (wasmschema.OutputWriter[Region], error) {
	if f.Memory == nil {
		return nil, errors.NilPointer(errors.PhaseEncode, nil, "wasmschema.Memory")
	}
	if f.End < f.Start {
		return nil, errors.InvalidInput(errors.PhaseEncode, "region end before start")
	}
	if f.End > f.Memory.Size() {
		return nil, errors.New(errors.PhaseEncode, errors.KindOutOfBounds).
			Value(f.End).
			Detail("region end %d beyond memory size %d", f.End, f.Memory.Size()).
			Build()
	}
	view, err := f.Memory.Read(f.Start, f.End-f.Start)
	if err != nil {
		return nil, err
	}
	return &writer{Writer: buffer.Into(view), end: f.End}, nil
}

// writer prepends straight into guest memory.
type writer struct {
	*buffer.Writer
	end uint32
}

func (w *writer) Finish() (Region, error) {
	out, err := w.Writer.Finish()
	if err != nil {
		return Region{}, err
	}
	n := uint32(len(out))
	return Region{Ptr: w.end - n, Len: n}, nil
}
