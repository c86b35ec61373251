// Package hashutil digests values to detect content changes.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Digest is a SHA-256 sum.
type Digest [sha256.Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) IsZero() bool {
	return d == Digest{}
}

// JSON digests the JSON encoding of v. Map keys are encoded in sorted order,
// so equal values always produce equal digests.
func JSON(v any) (Digest, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Digest{}, fmt.Errorf("digest: %w", err)
	}

	return sha256.Sum256(data), nil
}
