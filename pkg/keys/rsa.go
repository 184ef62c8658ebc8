package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // RSA-SHA1 is kept for compatibility with existing clients
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// MinRSAKeyBits is the smallest RSA modulus accepted for signing or verification.
const MinRSAKeyBits = 2048

// RSAPrivateKey signs with RSASSA-PKCS1-v1_5.
type RSAPrivateKey struct {
	algorithm Algorithm
	key       *rsa.PrivateKey
}

// RSAPublicKey verifies RSASSA-PKCS1-v1_5 signatures.
type RSAPublicKey struct {
	algorithm Algorithm
	key       *rsa.PublicKey
}

// NewRSAPrivateKey wraps an RSA private key for the given algorithm.
func NewRSAPrivateKey(algorithm Algorithm, key *rsa.PrivateKey) (*RSAPrivateKey, error) {
	if !algorithm.IsRSA() {
		return nil, fmt.Errorf("%w: %s is not an rsa algorithm", ErrUnsupportedAlgorithm, algorithm)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: rsa private key is nil", ErrInvalidKey)
	}
	if key.N.BitLen() < MinRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key size %d is below minimum %d bits", ErrInvalidKey, key.N.BitLen(), MinRSAKeyBits)
	}
	return &RSAPrivateKey{algorithm: algorithm, key: key}, nil
}

// NewRSAPublicKey wraps an RSA public key for the given algorithm.
func NewRSAPublicKey(algorithm Algorithm, key *rsa.PublicKey) (*RSAPublicKey, error) {
	if !algorithm.IsRSA() {
		return nil, fmt.Errorf("%w: %s is not an rsa algorithm", ErrUnsupportedAlgorithm, algorithm)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: rsa public key is nil", ErrInvalidKey)
	}
	if key.N.BitLen() < MinRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key size %d is below minimum %d bits", ErrInvalidKey, key.N.BitLen(), MinRSAKeyBits)
	}
	return &RSAPublicKey{algorithm: algorithm, key: key}, nil
}

// GenerateRSAKey creates a new RSA key pair of the given size.
func GenerateRSAKey(algorithm Algorithm, bits int) (*RSAPrivateKey, error) {
	if bits < MinRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key size %d is below minimum %d bits", ErrInvalidKey, bits, MinRSAKeyBits)
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rsa key: %w", err)
	}
	return NewRSAPrivateKey(algorithm, key)
}

// ParseRSAPrivateKeyPEM decodes a PEM encoded PKCS#1 or PKCS#8 RSA private key.
func ParseRSAPrivateKeyPEM(algorithm Algorithm, data []byte) (*RSAPrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return NewRSAPrivateKey(algorithm, key)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse rsa private key: %w", ErrInvalidKey, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: PEM block does not hold an rsa private key", ErrInvalidKey)
	}
	return NewRSAPrivateKey(algorithm, key)
}

// ParseRSAPublicKeyPEM decodes a PEM encoded PKIX or PKCS#1 RSA public key.
func ParseRSAPublicKeyPEM(algorithm Algorithm, data []byte) (*RSAPublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}

	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return NewRSAPublicKey(algorithm, key)
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse rsa public key: %w", ErrInvalidKey, err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: PEM block does not hold an rsa public key", ErrInvalidKey)
	}
	return NewRSAPublicKey(algorithm, key)
}

// Sign signs the digest of data.
func (k *RSAPrivateKey) Sign(data []byte) ([]byte, error) {
	h, digest, err := rsaDigest(k.algorithm, data)
	if err != nil {
		return nil, err
	}
	sig, err := rsa.SignPKCS1v15(rand.Reader, k.key, h, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to sign with rsa key: %w", err)
	}
	return sig, nil
}

// Algorithm returns the RSA algorithm of the key.
func (k *RSAPrivateKey) Algorithm() Algorithm {
	return k.algorithm
}

// Public returns the verifying half of the key pair.
func (k *RSAPrivateKey) Public() *RSAPublicKey {
	return &RSAPublicKey{algorithm: k.algorithm, key: &k.key.PublicKey}
}

// PEM encodes the private key as a PKCS#1 PEM block.
func (k *RSAPrivateKey) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(k.key),
	})
}

// Verify checks a PKCS#1 v1.5 signature over data.
func (k *RSAPublicKey) Verify(data, signature []byte) error {
	h, digest, err := rsaDigest(k.algorithm, data)
	if err != nil {
		return err
	}
	if err := rsa.VerifyPKCS1v15(k.key, h, digest, signature); err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}
	return nil
}

// Algorithm returns the RSA algorithm of the key.
func (k *RSAPublicKey) Algorithm() Algorithm {
	return k.algorithm
}

// PEM encodes the public key as a PKIX PEM block.
func (k *RSAPublicKey) PEM() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(k.key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rsa public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

func rsaDigest(algorithm Algorithm, data []byte) (crypto.Hash, []byte, error) {
	switch algorithm {
	case RSASHA1:
		sum := sha1.Sum(data) //nolint:gosec // see import
		return crypto.SHA1, sum[:], nil
	case RSASHA256:
		sum := sha256.Sum256(data)
		return crypto.SHA256, sum[:], nil
	default:
		return 0, nil, fmt.Errorf("%w: %s is not an rsa algorithm", ErrUnsupportedAlgorithm, algorithm)
	}
}
