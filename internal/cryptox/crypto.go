// Package cryptox computes content digests for delivered files.
package cryptox

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// NewDigest returns an unkeyed BLAKE2b-256 hash.
func NewDigest() hash.Hash {
	// New256 only fails for oversized keys.
	h, _ := blake2b.New256(nil)
	return h
}

// DigestString hex encodes the sum of h.
func DigestString(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// DigestFile hashes the file at path with NewDigest.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := NewDigest()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return DigestString(h), nil
}
