package codec

import "go.uber.org/zap"

const (
	DefaultMaxStringSize = 1 << 30
	DefaultMaxListLength = 1 << 27
	DefaultMaxDepth      = 128
)

// Limits bound what the codec accepts. A zero field disables that check.
type Limits struct {
	MaxStringSize int `yaml:"max_string_size"`
	MaxListLength int `yaml:"max_list_length"`
	MaxDepth      int `yaml:"max_depth"`
}

func DefaultLimits() Limits {
	return Limits{
		MaxStringSize: DefaultMaxStringSize,
		MaxListLength: DefaultMaxListLength,
		MaxDepth:      DefaultMaxDepth,
	}
}

type options struct {
	logger      *zap.Logger
	limits      Limits
	copyStrings bool
}

// Option configures a NativeBinary codec.
type Option func(*options)

// WithLimits replaces the default limits.
func WithLimits(l Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

// WithLogger sets the logger used by this codec instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithCopyStrings makes decoded strings and byte slices copies held by the
// memory manager instead of views of the input.
func WithCopyStrings(copy bool) Option {
	return func(o *options) {
		o.copyStrings = copy
	}
}
