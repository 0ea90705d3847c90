package mem

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	wasmschema "github.com/wippyai/wasm-schema"
	"github.com/wippyai/wasm-schema/errors"
)

const (
	defaultChunkSize = 4 << 10
	maxChunkSize     = 256 << 10
)

var _ wasmschema.MemoryManager = (*Arena)(nil)

// Stats describes what an arena has handed out so far.
type Stats struct {
	Allocations int   // slices and values handed out
	Used        int64 // bytes handed out
	Reserved    int64 // bytes held by slabs
	Slabs       int   // slab chunks allocated
}

// Option configures an Arena.
type Option func(*Arena)

// WithMaxBytes bounds the bytes an arena may reserve. Zero means unbounded.
func WithMaxBytes(n int64) Option {
	return func(a *Arena) {
		a.maxBytes = n
	}
}

// WithChunkSize sets the size of the first slab chunk for each element type.
// Later chunks double up to a fixed ceiling.
func WithChunkSize(n int) Option {
	return func(a *Arena) {
		if n > 0 {
			a.chunkSize = n
		}
	}
}

// slab holds the current chunk for one element type. Exhausted chunks are
// dropped from the slab; slices handed out keep them reachable.
type slab struct {
	chunk    reflect.Value
	used     int
	nextSize int
}

// Arena is a MemoryManager backed by typed append-only slabs.
// Allocation is serialized; the slices it returns never overlap.
type Arena struct {
	mu        sync.Mutex
	input     *Scope
	output    *Scope
	slabs     map[reflect.Type]*slab
	stats     Stats
	maxBytes  int64
	chunkSize int
	pooled    bool
}

// NewArena creates an unpooled arena.
func NewArena(opts ...Option) *Arena {
	a := &Arena{chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(a)
	}
	a.reset()
	return a
}

func (a *Arena) reset() {
	a.input = newScope("input")
	a.output = newScope("output")
	a.slabs = make(map[reflect.Type]*slab)
	a.stats = Stats{}
}

func (a *Arena) InputScope() wasmschema.Scope  { return a.input }
func (a *Arena) OutputScope() wasmschema.Scope { return a.output }

// Alive reports whether the arena still accepts allocations.
func (a *Arena) Alive() bool {
	return a.output.Alive()
}

// MakeSlice returns a slice of sliceType with len and cap n.
func (a *Arena) MakeSlice(sliceType reflect.Type, n int) (reflect.Value, error) {
	if sliceType.Kind() != reflect.Slice {
		return reflect.Value{}, errors.TypeMismatch(errors.PhaseDecode, nil, sliceType.String(), "slice")
	}
	if n < 0 {
		return reflect.Value{}, errors.InvalidData(errors.PhaseDecode, nil, "negative slice length")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.output.Alive() {
		return reflect.Value{}, errors.ScopeEnded(a.output.Name())
	}
	if n == 0 {
		return reflect.MakeSlice(sliceType, 0, 0), nil
	}

	elem := sliceType.Elem()
	size := int64(elem.Size())
	if size == 0 {
		a.stats.Allocations++
		return reflect.MakeSlice(sliceType, n, n), nil
	}

	s := a.slabs[elem]
	if s == nil {
		s = &slab{nextSize: a.chunkSize}
		a.slabs[elem] = s
	}
	if !s.chunk.IsValid() || s.chunk.Len()-s.used < n {
		if err := a.grow(s, elem, n); err != nil {
			return reflect.Value{}, err
		}
	}

	v := s.chunk.Slice3(s.used, s.used+n, s.used+n)
	s.used += n
	a.stats.Allocations++
	a.stats.Used += int64(n) * size

	if v.Type() != sliceType {
		v = v.Convert(sliceType)
	}
	return v, nil
}

// grow replaces the current chunk with one that holds at least n elements.
// Caller holds a.mu.
func (a *Arena) grow(s *slab, elem reflect.Type, n int) error {
	size := int(elem.Size())
	count := s.nextSize / size
	if count < n {
		count = n
	}
	reserve := int64(count) * int64(size)
	if a.maxBytes > 0 && a.stats.Reserved+reserve > a.maxBytes {
		// Retry with an exact fit before giving up.
		reserve = int64(n) * int64(size)
		if a.stats.Reserved+reserve > a.maxBytes {
			return errors.AllocationFailed(errors.PhaseDecode, int(reserve), int(a.maxBytes-a.stats.Reserved))
		}
		count = n
	}

	s.chunk = reflect.MakeSlice(reflect.SliceOf(elem), count, count)
	s.used = 0
	if s.nextSize < maxChunkSize {
		s.nextSize *= 2
	}
	a.stats.Reserved += reserve
	a.stats.Slabs++

	if ce := Logger().Check(zap.DebugLevel, "arena slab allocated"); ce != nil {
		ce.Write(
			zap.Stringer("type", elem),
			zap.Int("elems", count),
			zap.Int64("reserved", a.stats.Reserved),
		)
	}
	return nil
}

// New returns a pointer to a zeroed t held by the arena.
func (a *Arena) New(t reflect.Type) (reflect.Value, error) {
	s, err := a.MakeSlice(reflect.SliceOf(t), 1)
	if err != nil {
		return reflect.Value{}, err
	}
	return s.Index(0).Addr(), nil
}

// Bytes returns a byte slice with len and cap n.
func (a *Arena) Bytes(n int) ([]byte, error) {
	v, err := a.MakeSlice(bytesType, n)
	if err != nil {
		return nil, err
	}
	return v.Bytes(), nil
}

var bytesType = reflect.TypeFor[[]byte]()

// EndInput ends the input scope. Values that alias the input buffer become
// unreadable through value.Borrowed; arena allocations stay valid.
func (a *Arena) EndInput() {
	a.input.End()
}

// Release ends both scopes and drops every slab. A pooled arena goes back to
// the pool with its scopes still ended, so releasing it twice is a no-op; it
// must not be used by the caller afterwards.
func (a *Arena) Release() {
	a.mu.Lock()
	if !a.output.Alive() {
		a.mu.Unlock()
		return
	}
	a.input.End()
	a.output.End()
	stats := a.stats
	a.slabs = nil
	a.mu.Unlock()

	if ce := Logger().Check(zap.DebugLevel, "arena released"); ce != nil {
		ce.Write(
			zap.Int("allocations", stats.Allocations),
			zap.Int64("used", stats.Used),
			zap.Int64("reserved", stats.Reserved),
		)
	}

	if a.pooled {
		arenaPool.Put(a)
	}
}

func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

var arenaPool = sync.Pool{
	New: func() any {
		a := NewArena()
		a.pooled = true
		return a
	},
}

// Get returns a pooled arena with default options and fresh scopes. Release
// returns it.
func Get() *Arena {
	a := arenaPool.Get().(*Arena)
	a.mu.Lock()
	a.reset()
	a.mu.Unlock()
	return a
}
