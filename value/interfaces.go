package value

// Named overrides the schema name of a struct, enum or one-of type. Without
// it the Go type name is used.
type Named interface {
	SchemaName() string
}

// EnumCase is one declared enum value.
type EnumCase struct {
	Name  string
	Value int32
}

// Enum is implemented by integer types that encode as a schema enum.
type Enum interface {
	EnumCases() []EnumCase
}

// Unsealed marks an enum that accepts values outside its declared cases.
type Unsealed interface {
	Unsealed()
}

// OneOf marks a struct whose pointer fields are the alternatives of a one-of.
// Exactly one field is set. Discriminants default to the field index and can
// be overridden with a tag:
//
//	type Shape struct {
//	    Circle *Circle `schema:"circle,1"`
//	    Square *Square `schema:"square,2"`
//	}
type OneOf interface {
	OneOf()
}

// StateObject is implemented by structs that describe persisted state. The
// returned names select the key fields; the remaining fields are values.
type StateObject interface {
	StateKey() []string
}

// DeletionRetainer is implemented by state objects whose deletions are kept
// as tombstones.
type DeletionRetainer interface {
	RetainDeletions() bool
}

// Scalar is the set of Go types with a fixed-width scalar descriptor.
type Scalar interface {
	~bool | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64
}
