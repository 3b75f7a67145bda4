package crypto

import (
	"errors"
	"strings"
	"testing"
)

func fastHasher() *ScryptHasher {
	h := NewScryptHasher()
	h.N = 1024
	return h
}

func TestScryptHasher_RoundTrip(t *testing.T) {
	h := fastHasher()

	hash, err := h.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	salt, key, ok := strings.Cut(hash, ":")
	if !ok {
		t.Fatalf("expected salt:key format, got %q", hash)
	}
	if len(salt) != 32 {
		t.Errorf("expected 16-byte hex salt, got %d chars", len(salt))
	}
	if len(key) != 128 {
		t.Errorf("expected 64-byte hex key, got %d chars", len(key))
	}

	if err := h.Compare(hash, "correct horse battery"); err != nil {
		t.Fatalf("compare with correct password: %v", err)
	}
	if err := h.Compare(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestScryptHasher_SaltIsRandom(t *testing.T) {
	h := fastHasher()
	a, _ := h.Hash("pw")
	b, _ := h.Hash("pw")
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestScryptHasher_Malformed(t *testing.T) {
	h := fastHasher()
	for _, hash := range []string{"", "nosep", ":abc", "abc:", "abc:zz"} {
		if err := h.Compare(hash, "pw"); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("Compare(%q): expected ErrMalformedHash, got %v", hash, err)
		}
	}
}

func TestScryptHasher_DefaultParameters(t *testing.T) {
	h := NewScryptHasher()
	if h.N != 16384 || h.R != 8 || h.P != 1 || h.KeyLen != 64 {
		t.Fatalf("unexpected scrypt parameters: %+v", h)
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatal("hash must be deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("different tokens must hash differently")
	}
	if len(HashToken("abc")) != 64 {
		t.Fatal("expected sha256 hex digest")
	}
}

func TestRandomHex_Length(t *testing.T) {
	v, err := RandomHex(64)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if len(v) != 128 {
		t.Fatalf("expected 128 chars, got %d", len(v))
	}
}
