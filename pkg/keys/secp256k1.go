package keys

import (
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	hash "github.com/bsv-blockchain/go-sdk/primitives/hash"
)

// Secp256k1PrivateKey signs the SHA-256 digest of data with ECDSA over secp256k1.
// Signatures are DER encoded.
type Secp256k1PrivateKey struct {
	key *ec.PrivateKey
}

// Secp256k1PublicKey verifies DER encoded ECDSA secp256k1 signatures.
type Secp256k1PublicKey struct {
	key *ec.PublicKey
}

// NewSecp256k1PrivateKey wraps an SDK private key.
func NewSecp256k1PrivateKey(key *ec.PrivateKey) (*Secp256k1PrivateKey, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: secp256k1 private key is nil", ErrInvalidKey)
	}
	return &Secp256k1PrivateKey{key: key}, nil
}

// NewSecp256k1PublicKey wraps an SDK public key.
func NewSecp256k1PublicKey(key *ec.PublicKey) (*Secp256k1PublicKey, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: secp256k1 public key is nil", ErrInvalidKey)
	}
	return &Secp256k1PublicKey{key: key}, nil
}

// GenerateSecp256k1Key creates a new random secp256k1 key.
func GenerateSecp256k1Key() (*Secp256k1PrivateKey, error) {
	key, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}
	return &Secp256k1PrivateKey{key: key}, nil
}

// ParseSecp256k1PrivateKey accepts a hex encoded private key or a WIF string.
func ParseSecp256k1PrivateKey(encoded string) (*Secp256k1PrivateKey, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: secp256k1 private key is empty", ErrInvalidKey)
	}

	key, err := ec.PrivateKeyFromHex(encoded)
	if err != nil {
		var wifErr error
		key, wifErr = ec.PrivateKeyFromWif(encoded)
		if wifErr != nil {
			return nil, fmt.Errorf("%w: secp256k1 private key is neither hex nor WIF: %w", ErrInvalidKey, err)
		}
	}
	return &Secp256k1PrivateKey{key: key}, nil
}

// ParseSecp256k1PublicKey accepts a hex encoded compressed or uncompressed public key.
func ParseSecp256k1PublicKey(encoded string) (*Secp256k1PublicKey, error) {
	key, err := ec.PublicKeyFromString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid secp256k1 public key: %w", ErrInvalidKey, err)
	}
	return &Secp256k1PublicKey{key: key}, nil
}

// Sign signs the SHA-256 digest of data.
func (k *Secp256k1PrivateKey) Sign(data []byte) ([]byte, error) {
	sig, err := k.key.Sign(hash.Sha256(data))
	if err != nil {
		return nil, fmt.Errorf("failed to sign with secp256k1 key: %w", err)
	}
	return sig.Serialize(), nil
}

// Algorithm always returns ECDSASecp256k1SHA256.
func (k *Secp256k1PrivateKey) Algorithm() Algorithm {
	return ECDSASecp256k1SHA256
}

// Public returns the verifying half of the key pair.
func (k *Secp256k1PrivateKey) Public() *Secp256k1PublicKey {
	return &Secp256k1PublicKey{key: k.key.PubKey()}
}

// Verify checks a DER encoded signature over the SHA-256 digest of data.
func (k *Secp256k1PublicKey) Verify(data, signature []byte) error {
	sig, err := ec.ParseSignature(signature)
	if err != nil {
		return fmt.Errorf("%w: malformed secp256k1 signature: %w", ErrSignatureInvalid, err)
	}
	if !sig.Verify(hash.Sha256(data), k.key) {
		return ErrSignatureInvalid
	}
	return nil
}

// Algorithm always returns ECDSASecp256k1SHA256.
func (k *Secp256k1PublicKey) Algorithm() Algorithm {
	return ECDSASecp256k1SHA256
}

// Hex returns the compressed public key in hex, as used for identity keys.
func (k *Secp256k1PublicKey) Hex() string {
	return k.key.ToDERHex()
}
