package schema

import (
	"encoding/hex"
	"slices"
	"strings"

	"github.com/zeebo/blake3"
)

// Fingerprint identifies a schema by content.
type Fingerprint [32]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short is the first 12 hex digits, for display.
func (f Fingerprint) Short() string {
	return hex.EncodeToString(f[:6])
}

// fingerprintDomainKey is the ASCII domain name zero-padded to 32 bytes.
var fingerprintDomainKey = [32]byte{
	'w', 'a', 's', 'm', '-', 's', 'c', 'h', 'e', 'm', 'a', '.',
	's', 'c', 'h', 'e', 'm', 'a', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Fingerprint hashes the deterministic CBOR form of the name-sorted schema.
// Insertion order does not affect the result.
func (s Schema) Fingerprint() (Fingerprint, error) {
	msgs := s.Messages()
	slices.SortStableFunc(msgs, func(a, b MessageDescriptor) int {
		return strings.Compare(a.Name, b.Name)
	})
	data, err := encMode.Marshal(toDocument(s.Sorted(), msgs))
	if err != nil {
		return Fingerprint{}, err
	}

	hasher, err := blake3.NewKeyed(fingerprintDomainKey[:])
	if err != nil {
		panic("schema: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var fp Fingerprint
	copy(fp[:], hasher.Sum(nil))
	return fp, nil
}
