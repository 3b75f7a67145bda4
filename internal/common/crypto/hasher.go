package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/AlibekovAA/session-auth/internal/common/constants"
)

var (
	ErrPasswordMismatch = errors.New("password does not match")
	ErrMalformedHash    = errors.New("malformed password hash")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error
}

// ScryptHasher stores hashes as "<saltHex>:<keyHex>". The hex-encoded salt
// string itself is fed to scrypt, which keeps hashes produced by the
// existing user base verifiable.
type ScryptHasher struct {
	N, R, P, KeyLen int
}

func NewScryptHasher() *ScryptHasher {
	return &ScryptHasher{
		N:      constants.ScryptN,
		R:      constants.ScryptR,
		P:      constants.ScryptP,
		KeyLen: constants.ScryptKeyLength,
	}
}

func (h *ScryptHasher) Hash(password string) (string, error) {
	salt, err := RandomHex(constants.PasswordSaltSize)
	if err != nil {
		return "", err
	}

	key, err := h.derive(password, salt)
	if err != nil {
		return "", err
	}

	return salt + ":" + hex.EncodeToString(key), nil
}

func (h *ScryptHasher) Compare(hash string, password string) error {
	salt, keyHex, ok := strings.Cut(hash, ":")
	if !ok || salt == "" || keyHex == "" {
		return ErrMalformedHash
	}

	stored, err := hex.DecodeString(keyHex)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	derived, err := h.derive(password, salt)
	if err != nil {
		return err
	}

	if len(stored) != len(derived) || subtle.ConstantTimeCompare(stored, derived) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

func (h *ScryptHasher) derive(password, salt string) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), h.N, h.R, h.P, h.KeyLen)
	if err != nil {
		return nil, fmt.Errorf("failed to derive scrypt key: %w", err)
	}
	return key, nil
}

// RandomHex returns n random bytes, hex-encoded.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
