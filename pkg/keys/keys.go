// Package keys provides the signing and verification capabilities used by the signed exchange.
//
// Every key variant implements Signer, Verifier or both: HMAC keys are symmetric and do both,
// RSA and secp256k1 private keys sign, and their public counterparts verify.
package keys

import (
	"errors"
	"fmt"
	"strings"
)

// Algorithm identifies the signature algorithm of a key.
type Algorithm string

// Supported algorithms.
const (
	HMACSHA1             Algorithm = "hmac-sha1"
	HMACSHA256           Algorithm = "hmac-sha256"
	HMACSHA512           Algorithm = "hmac-sha512"
	RSASHA1              Algorithm = "rsa-sha1"
	RSASHA256            Algorithm = "rsa-sha256"
	ECDSASecp256k1SHA256 Algorithm = "ecdsa-secp256k1-sha256"
)

var (
	// ErrInvalidKey is returned when key material is missing, malformed or of the wrong kind.
	ErrInvalidKey = errors.New("keys: invalid key material")

	// ErrUnsupportedAlgorithm is returned for an algorithm that the key kind cannot handle.
	ErrUnsupportedAlgorithm = errors.New("keys: unsupported algorithm")

	// ErrSignatureInvalid is returned when a signature does not match the data.
	ErrSignatureInvalid = errors.New("keys: signature verification failed")
)

// Signer produces signatures over canonical bytes.
type Signer interface {
	Sign(data []byte) ([]byte, error)
	Algorithm() Algorithm
}

// Verifier checks signatures over canonical bytes.
// Verify returns nil on success and an error wrapping ErrSignatureInvalid on mismatch.
type Verifier interface {
	Verify(data, signature []byte) error
	Algorithm() Algorithm
}

// String returns the algorithm name as used in configuration files.
func (a Algorithm) String() string {
	return string(a)
}

// IsHMAC reports whether the algorithm is a keyed digest.
func (a Algorithm) IsHMAC() bool {
	return a == HMACSHA1 || a == HMACSHA256 || a == HMACSHA512
}

// IsRSA reports whether the algorithm is an RSA signature.
func (a Algorithm) IsRSA() bool {
	return a == RSASHA1 || a == RSASHA256
}

// ParseAlgorithm parses an algorithm name (case-insensitive).
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	switch alg {
	case HMACSHA1, HMACSHA256, HMACSHA512, RSASHA1, RSASHA256, ECDSASecp256k1SHA256:
		return alg, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}
