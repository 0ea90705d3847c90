package wasmmem

import (
	"github.com/tetratelabs/wazero/api"

	wasmschema "github.com/wippyai/wasm-schema"
	"github.com/wippyai/wasm-schema/errors"
)

// Wrap adapts a wazero api.Memory to wasmschema.Memory.
func Wrap(mem api.Memory) wasmschema.Memory {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// Wrapper adapts wazero api.Memory to the wasmschema.Memory interface.
type Wrapper struct {
	Mem api.Memory
}

// Read returns a view of guest memory. Writes through the view are visible
// to the guest.
func (m *Wrapper) Read(offset, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
			Value(offset).
			Detail("memory read out of bounds: offset=%d, length=%d, size=%d", offset, length, m.Mem.Size()).
			Build()
	}
	return data, nil
}

func (m *Wrapper) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return errors.New(errors.PhaseEncode, errors.KindOutOfBounds).
			Value(offset).
			Detail("memory write out of bounds: offset=%d, length=%d, size=%d", offset, len(data), m.Mem.Size()).
			Build()
	}
	return nil
}

func (m *Wrapper) Size() uint32 {
	return m.Mem.Size()
}
