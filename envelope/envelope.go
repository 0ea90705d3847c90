package envelope

import (
	"encoding/binary"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-schema/errors"
	"github.com/wippyai/wasm-schema/schema"
)

const (
	Magic   = "WSCH"
	Version = 1

	// HeaderSize is the size of the fixed header in bytes.
	HeaderSize = len(Magic) + 1 + 1 + len(schema.Fingerprint{}) + 4

	// DefaultMaxPayload bounds the uncompressed size Open will allocate.
	DefaultMaxPayload = 1 << 30
)

// Header is the decoded fixed header of a frame.
type Header struct {
	Version     uint8
	Compression Compression
	Fingerprint schema.Fingerprint
	Length      uint32
}

// Seal frames payload under fp, compressing it with c. When c does not make
// the payload smaller the frame is written uncompressed.
func Seal(payload []byte, fp schema.Fingerprint, c Compression) ([]byte, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, errors.Overflow(errors.PhaseEnvelope, nil, len(payload), "u32")
	}

	frame := make([]byte, HeaderSize, HeaderSize+len(payload))
	used := c
	if c != None {
		out, ok, err := compress(frame, payload, c)
		if err != nil {
			return nil, err
		}
		if ok {
			frame = out
		} else {
			used = None
			if ce := Logger().Check(zap.WarnLevel, "payload incompressible, storing uncompressed"); ce != nil {
				ce.Write(
					zap.Stringer("requested", c),
					zap.Int("size", len(payload)),
					zap.String("schema", fp.Short()),
				)
			}
		}
	}
	if used == None {
		frame = append(frame, payload...)
	}

	putHeader(frame, Header{
		Version:     Version,
		Compression: used,
		Fingerprint: fp,
		Length:      uint32(len(payload)),
	})
	return frame, nil
}

func putHeader(dst []byte, h Header) {
	n := copy(dst, Magic)
	dst[n] = h.Version
	dst[n+1] = byte(h.Compression)
	n += 2
	n += copy(dst[n:], h.Fingerprint[:])
	binary.LittleEndian.PutUint32(dst[n:], h.Length)
}

// ReadHeader decodes and checks the fixed header of frame.
func ReadHeader(frame []byte) (Header, error) {
	if len(frame) < HeaderSize {
		return Header{}, errors.New(errors.PhaseEnvelope, errors.KindTruncated).
			Detail("need %d header bytes, have %d", HeaderSize, len(frame)).
			Build()
	}
	if string(frame[:len(Magic)]) != Magic {
		return Header{}, errors.InvalidData(errors.PhaseEnvelope, nil, "bad magic")
	}

	var h Header
	n := len(Magic)
	h.Version = frame[n]
	h.Compression = Compression(frame[n+1])
	n += 2
	n += copy(h.Fingerprint[:], frame[n:])
	h.Length = binary.LittleEndian.Uint32(frame[n:])

	if h.Version != Version {
		return Header{}, errors.Unsupported(errors.PhaseEnvelope, "envelope version "+strconv.Itoa(int(h.Version)))
	}
	switch h.Compression {
	case None, LZ4, Zstd:
	default:
		return Header{}, errors.Unsupported(errors.PhaseEnvelope, "compression "+h.Compression.String())
	}
	return h, nil
}

// Open checks frame and returns its header and uncompressed payload. An
// uncompressed payload is a view into frame.
func Open(frame []byte) (Header, []byte, error) {
	return OpenLimit(frame, DefaultMaxPayload)
}

// OpenLimit is Open with a bound on the uncompressed payload size.
func OpenLimit(frame []byte, maxPayload int) (Header, []byte, error) {
	h, err := ReadHeader(frame)
	if err != nil {
		return Header{}, nil, err
	}
	if uint64(h.Length) > uint64(maxPayload) {
		return Header{}, nil, errors.AllocationFailed(errors.PhaseEnvelope, int(h.Length), maxPayload)
	}

	body := frame[HeaderSize:]
	if h.Compression == None {
		if len(body) != int(h.Length) {
			return Header{}, nil, lengthMismatch(len(body), int(h.Length))
		}
		return h, body, nil
	}

	payload, err := decompress(body, h.Compression, int(h.Length))
	if err != nil {
		return Header{}, nil, err
	}
	return h, payload, nil
}

// Verify opens frame and checks that it was sealed under want.
func Verify(frame []byte, want schema.Fingerprint) ([]byte, error) {
	h, payload, err := Open(frame)
	if err != nil {
		return nil, err
	}
	if h.Fingerprint != want {
		return nil, errors.New(errors.PhaseEnvelope, errors.KindTypeMismatch).
			Detail("frame schema %s, expected %s", h.Fingerprint.Short(), want.Short()).
			Build()
	}
	return payload, nil
}
