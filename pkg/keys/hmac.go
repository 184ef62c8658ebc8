package keys

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is kept for compatibility with existing clients
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"strings"
)

// HMACKey is a symmetric key shared by client and server. It both signs and verifies.
type HMACKey struct {
	algorithm Algorithm
	secret    []byte
}

// NewHMACKey creates an HMAC key from raw secret bytes. The secret is copied.
func NewHMACKey(algorithm Algorithm, secret []byte) (*HMACKey, error) {
	if !algorithm.IsHMAC() {
		return nil, fmt.Errorf("%w: %s is not an hmac algorithm", ErrUnsupportedAlgorithm, algorithm)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: hmac secret must not be empty", ErrInvalidKey)
	}

	return &HMACKey{
		algorithm: algorithm,
		secret:    append([]byte(nil), secret...),
	}, nil
}

// NewHMACKeyFromBase64 creates an HMAC key from a base64 (standard encoding) secret.
func NewHMACKeyFromBase64(algorithm Algorithm, encoded string) (*HMACKey, error) {
	secret, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: hmac secret is not valid base64: %w", ErrInvalidKey, err)
	}
	return NewHMACKey(algorithm, secret)
}

// GenerateHMACKey creates a random HMAC key whose length equals the digest size.
func GenerateHMACKey(algorithm Algorithm) (*HMACKey, error) {
	newHash, err := hmacHash(algorithm)
	if err != nil {
		return nil, err
	}

	secret := make([]byte, newHash().Size())
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate hmac secret: %w", err)
	}
	return NewHMACKey(algorithm, secret)
}

// Sign computes the HMAC of data.
func (k *HMACKey) Sign(data []byte) ([]byte, error) {
	newHash, err := hmacHash(k.algorithm)
	if err != nil {
		return nil, err
	}
	if len(k.secret) == 0 {
		return nil, fmt.Errorf("%w: hmac key has been destroyed", ErrInvalidKey)
	}

	mac := hmac.New(newHash, k.secret)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// Verify recomputes the HMAC of data and compares it in constant time.
func (k *HMACKey) Verify(data, signature []byte) error {
	expected, err := k.Sign(data)
	if err != nil {
		return err
	}
	if !hmac.Equal(expected, signature) {
		return ErrSignatureInvalid
	}
	return nil
}

// Algorithm returns the HMAC algorithm of the key.
func (k *HMACKey) Algorithm() Algorithm {
	return k.algorithm
}

// Base64 returns the secret in base64 standard encoding.
func (k *HMACKey) Base64() string {
	return base64.StdEncoding.EncodeToString(k.secret)
}

// Destroy wipes the secret from memory. The key is unusable afterwards.
func (k *HMACKey) Destroy() {
	clear(k.secret)
	k.secret = nil
}

func hmacHash(algorithm Algorithm) (func() hash.Hash, error) {
	switch algorithm {
	case HMACSHA1:
		return sha1.New, nil
	case HMACSHA256:
		return sha256.New, nil
	case HMACSHA512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: %s is not an hmac algorithm", ErrUnsupportedAlgorithm, algorithm)
	}
}
