package codec

import (
	"reflect"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/types"
	"github.com/wippyai/wasm-schema/value"
)

// Compiler turns Go types into CompiledTypes and caches the result.
// Recursive types compile to cyclic graphs.
type Compiler struct {
	cache  sync.Map // reflect.Type -> *CompiledType
	mu     sync.Mutex
	logger *zap.Logger
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

func (c *Compiler) log() *zap.Logger {
	if c.logger != nil {
		return c.logger
	}
	return Logger()
}

// Compile returns the plan for goType.
func (c *Compiler) Compile(goType reflect.Type) (*CompiledType, error) {
	if goType == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("Go type cannot be nil").
			Build()
	}
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}

	building := make(map[reflect.Type]*CompiledType)
	ct, err := c.compile(goType, building)
	if err != nil {
		return nil, err
	}

	visiting := make(map[*CompiledType]bool)
	for _, b := range building {
		b.MinSize = minSize(b, visiting)
	}
	for t, b := range building {
		c.cache.Store(t, b)
	}

	if ce := c.log().Check(zap.DebugLevel, "compiled type"); ce != nil {
		ce.Write(
			zap.Stringer("go_type", goType),
			zap.Stringer("wire", ct.Wire),
			zap.Int("types", len(building)),
		)
	}
	return ct, nil
}

func (c *Compiler) compile(goType reflect.Type, building map[reflect.Type]*CompiledType) (*CompiledType, error) {
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}
	if ct, ok := building[goType]; ok {
		return ct, nil
	}

	wire, err := value.Describe(goType)
	if err != nil {
		return nil, err
	}
	ct := &CompiledType{
		GoType: goType,
		GoSize: goType.Size(),
		GoKind: goType.Kind(),
		Wire:   wire,
		Kind:   wire.Kind,
	}
	building[goType] = ct

	if a, ok := value.LookupAdapter(goType); ok {
		ct.Adapter = a
		ct.Elem, err = c.compile(a.Carrier, building)
		if err != nil {
			return nil, withPath(err, "["+goType.String()+"]")
		}
		return ct, nil
	}

	switch wire.Kind {
	case types.KindList:
		ct.SliceType = goType
		ct.Elem, err = c.compile(goType.Elem(), building)
		if err != nil {
			return nil, withPath(err, "[elem]")
		}

	case types.KindNullable:
		ct.Elem, err = c.compile(goType.Elem(), building)
		if err != nil {
			return nil, withPath(err, "[some]")
		}

	case types.KindStruct:
		ct.Name = wire.Name
		if err := c.compileStruct(ct, building); err != nil {
			return nil, err
		}

	case types.KindOneOf:
		ct.Name = wire.Name
		if err := c.compileOneOf(ct, building); err != nil {
			return nil, err
		}

	case types.KindEnum:
		ct.Name = wire.Name
		cases, sealed, _ := value.EnumCasesOf(goType)
		info := &EnumInfo{Cases: cases, Sealed: sealed, values: make(map[int32]struct{}, len(cases))}
		for _, ec := range cases {
			if _, dup := info.values[ec.Value]; dup {
				return nil, errors.New(errors.PhaseCompile, errors.KindDuplicateName).
					Path(wire.Name, ec.Name).
					Value(ec.Value).
					Detail("enum value %d declared twice", ec.Value).
					Build()
			}
			if !fitsGoKind(int64(ec.Value), goType.Kind()) {
				return nil, errors.OutOfRange(errors.PhaseCompile, []string{wire.Name, ec.Name}, ec.Value, goType.String())
			}
			info.values[ec.Value] = struct{}{}
		}
		ct.Enum = info
	}
	return ct, nil
}

func (c *Compiler) compileStruct(ct *CompiledType, building map[reflect.Type]*CompiledType) error {
	infos, err := value.StructFields(ct.GoType)
	if err != nil {
		return err
	}

	fields := make([]Field, 0, len(infos))
	for _, info := range infos {
		ft, err := c.compile(info.Type, building)
		if err != nil {
			return withPath(err, info.Name)
		}
		fields = append(fields, Field{
			Type:     ft,
			Name:     info.Name,
			GoName:   info.GoName,
			GoOffset: info.Offset,
		})
	}

	keys, retain, ok := value.StateKeyOf(ct.GoType)
	if !ok {
		ct.Fields = fields
		return nil
	}
	if len(keys) == 0 {
		return errors.InvalidData(errors.PhaseCompile, []string{ct.Name}, "state object without key fields")
	}

	// Key fields lead, in key order; value fields follow in declaration order.
	ordered := make([]Field, 0, len(fields))
	for _, key := range keys {
		i := slices.IndexFunc(fields, func(f Field) bool {
			return f.Name == key || f.GoName == key
		})
		if i < 0 {
			return errors.New(errors.PhaseCompile, errors.KindNotFound).
				Path(ct.Name).
				Detail("state key field %q not found", key).
				Build()
		}
		if slices.ContainsFunc(ordered, func(f Field) bool { return f.Name == fields[i].Name }) {
			return errors.DuplicateName(errors.PhaseCompile, []string{ct.Name}, key)
		}
		ordered = append(ordered, fields[i])
	}
	for _, f := range fields {
		if !slices.ContainsFunc(ordered, func(o Field) bool { return o.Name == f.Name }) {
			ordered = append(ordered, f)
		}
	}

	ct.Fields = ordered
	ct.State = &StateInfo{KeyCount: len(keys), RetainDeletions: retain}
	return nil
}

func (c *Compiler) compileOneOf(ct *CompiledType, building map[reflect.Type]*CompiledType) error {
	infos, err := value.OneOfCases(ct.GoType)
	if err != nil {
		return err
	}

	cases := make([]Case, 0, len(infos))
	for _, info := range infos {
		pt, err := c.compile(info.Type, building)
		if err != nil {
			return withPath(err, info.Name)
		}
		cases = append(cases, Case{
			Type:         pt,
			Name:         info.Name,
			GoName:       info.GoName,
			GoOffset:     info.Offset,
			Discriminant: info.Discriminant,
		})
	}
	ct.Cases = cases
	return nil
}

func fitsGoKind(v int64, k reflect.Kind) bool {
	switch k {
	case reflect.Int8:
		return v >= -1<<7 && v < 1<<7
	case reflect.Int16:
		return v >= -1<<15 && v < 1<<15
	case reflect.Int32:
		return v >= -1<<31 && v < 1<<31
	case reflect.Uint8:
		return v >= 0 && v < 1<<8
	case reflect.Uint16:
		return v >= 0 && v < 1<<16
	case reflect.Uint32:
		return v >= 0 && v < 1<<32
	}
	return false
}

// withPath prefixes the path of a structured error with seg.
func withPath(err error, seg string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append([]string{seg}, e.Path...)
	}
	return err
}
