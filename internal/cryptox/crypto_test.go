package cryptox

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/blake2b"
)

func TestDigestFile_MatchesStreamingDigest(t *testing.T) {
	data := []byte("the quick brown fox")
	path := filepath.Join(t.TempDir(), "book.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := DigestFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := blake2b.Sum256(data)
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	h := NewDigest()
	_, _ = h.Write(data[:5])
	_, _ = h.Write(data[5:])
	if DigestString(h) != got {
		t.Errorf("chunked digest differs from file digest")
	}
}

func TestDigestFile_DifferentContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	_ = os.WriteFile(a, []byte("one"), 0o600)
	_ = os.WriteFile(b, []byte("two"), 0o600)

	da, _ := DigestFile(a)
	db, _ := DigestFile(b)
	if da == db {
		t.Errorf("expected different digests")
	}
}

func TestDigestFile_Missing(t *testing.T) {
	if _, err := DigestFile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
