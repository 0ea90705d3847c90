package envelope

import (
	"bytes"
	"io"
	"strconv"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/wippyai/wasm-schema/errors"
)

// Compression identifies how a frame's payload is stored. The values are
// written to disk and must not change.
type Compression uint8

const (
	None Compression = 0
	LZ4  Compression = 1
	Zstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "unknown(" + strconv.Itoa(int(c)) + ")"
	}
}

// ParseCompression parses the name produced by String.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	default:
		return 0, errors.InvalidInput(errors.PhaseEnvelope, "unknown compression "+strconv.Quote(name))
	}
}

func (c *Compression) UnmarshalText(text []byte) error {
	parsed, err := ParseCompression(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Compression) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// zstd.Encoder is safe for concurrent use through EncodeAll.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("envelope: zstd encoder initialization failed: " + err.Error())
	}
}

// Streaming decoders read at most the declared payload length, so a hostile
// frame cannot expand past it. Each decoder is synchronous and used by one
// caller at a time.
var zstdDecoders = sync.Pool{
	New: func() any {
		d, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(DefaultMaxPayload),
		)
		if err != nil {
			return err
		}
		return d
	},
}

// compress appends the compressed form of src to dst. ok is false when the
// result would not be smaller than src.
func compress(dst, src []byte, c Compression) (out []byte, ok bool, err error) {
	switch c {
	case LZ4:
		bound := lz4.CompressBlockBound(len(src))
		start := len(dst)
		dst = append(dst, make([]byte, bound)...)
		n, err := lz4.CompressBlock(src, dst[start:], nil)
		if err != nil {
			return nil, false, errors.Wrap(errors.PhaseEnvelope, errors.KindInvalidData, err, "lz4 compress")
		}
		if n == 0 || n >= len(src) {
			return dst[:start], false, nil
		}
		return dst[:start+n], true, nil

	case Zstd:
		start := len(dst)
		dst = zstdEncoder.EncodeAll(src, dst)
		if len(dst)-start >= len(src) {
			return dst[:start], false, nil
		}
		return dst, true, nil

	default:
		return nil, false, errors.Unsupported(errors.PhaseEnvelope, "compression "+c.String())
	}
}

func decompress(src []byte, c Compression, size int) ([]byte, error) {
	switch c {
	case LZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(src, out)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseEnvelope, errors.KindInvalidData, err, "lz4 decompress")
		}
		if n != size {
			return nil, lengthMismatch(n, size)
		}
		return out, nil

	case Zstd:
		return zstdDecompress(src, size)

	default:
		return nil, errors.Unsupported(errors.PhaseEnvelope, "compression "+c.String())
	}
}

func zstdDecompress(src []byte, size int) ([]byte, error) {
	var d *zstd.Decoder
	switch v := zstdDecoders.Get().(type) {
	case *zstd.Decoder:
		d = v
	case error:
		return nil, errors.Wrap(errors.PhaseEnvelope, errors.KindUnsupported, v, "zstd decoder")
	}
	defer func() {
		_ = d.Reset(nil)
		zstdDecoders.Put(d)
	}()

	if err := d.Reset(bytes.NewReader(src)); err != nil {
		return nil, errors.Wrap(errors.PhaseEnvelope, errors.KindInvalidData, err, "zstd decompress")
	}
	out := make([]byte, size)
	n, err := io.ReadFull(d, out)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return nil, lengthMismatch(n, size)
	case err != nil:
		return nil, errors.Wrap(errors.PhaseEnvelope, errors.KindInvalidData, err, "zstd decompress")
	}

	// The stream must end exactly at the declared length.
	var extra [1]byte
	m, err := d.Read(extra[:])
	if m > 0 {
		return nil, errors.New(errors.PhaseEnvelope, errors.KindInvalidData).
			Detail("payload exceeds the %d bytes the header declares", size).
			Build()
	}
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.PhaseEnvelope, errors.KindInvalidData, err, "zstd decompress")
	}
	return out, nil
}

func lengthMismatch(got, want int) error {
	return errors.New(errors.PhaseEnvelope, errors.KindInvalidData).
		Detail("payload is %d bytes, header says %d", got, want).
		Build()
}
