package oauth

import (
	"crypto/subtle"

	"golang.org/x/oauth2"

	"github.com/AlibekovAA/session-auth/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/session-auth/internal/common/crypto"
)

// Flow is the per-attempt secret pair kept in short-lived cookies between the
// redirect and the callback.
type Flow struct {
	State    string
	Verifier string
}

func NewFlow() (Flow, error) {
	state, err := commoncrypto.RandomHex(constants.OAuthStateSize)
	if err != nil {
		return Flow{}, err
	}
	return Flow{State: state, Verifier: oauth2.GenerateVerifier()}, nil
}

// StateMatches compares the state echoed by the provider with the cookie
// value in constant time. Empty values never match.
func StateMatches(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
