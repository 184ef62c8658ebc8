package keystore

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
)

// File is the YAML layout of a keys file.
//
//	identities:
//	  - name: client-a
//	    algorithm: hmac-sha256
//	    secret: c2VjcmV0
//	  - name: client-b
//	    algorithm: rsa-sha256
//	    public_key: |
//	      -----BEGIN PUBLIC KEY-----
//	      ...
type File struct {
	Identities []IdentityEntry `yaml:"identities"`
}

// IdentityEntry describes one identity in a keys file.
//
// Secret is the base64 HMAC secret. PublicKey is a PEM (RSA) or hex (secp256k1) verifying key.
// ResponseKey optionally holds the private key used to sign responses for this identity,
// PEM for RSA and hex or WIF for secp256k1.
type IdentityEntry struct {
	Name        string `yaml:"name"`
	Algorithm   string `yaml:"algorithm"`
	Secret      string `yaml:"secret,omitempty"`
	PublicKey   string `yaml:"public_key,omitempty"`
	ResponseKey string `yaml:"response_key,omitempty"`
}

// LoadFile reads a YAML keys file into a MemoryStore.
func LoadFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read keys file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML keys file content into a MemoryStore.
func Parse(data []byte) (*MemoryStore, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse keys file: %w", err)
	}

	store := NewMemoryStore()
	var errs []error
	for i, entry := range file.Identities {
		identity, err := entry.Identity()
		if err != nil {
			errs = append(errs, fmt.Errorf("identity #%d (%s): %w", i, entry.Name, err))
			continue
		}
		if store.has(identity.Name) {
			errs = append(errs, fmt.Errorf("identity #%d: duplicate name %q", i, identity.Name))
			continue
		}
		store.Add(identity)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return store, nil
}

// Identity builds the key material described by the entry.
func (e IdentityEntry) Identity() (*Identity, error) {
	alg, err := keys.ParseAlgorithm(e.Algorithm)
	if err != nil {
		return nil, err
	}

	switch {
	case alg.IsHMAC():
		key, err := keys.NewHMACKeyFromBase64(alg, e.Secret)
		if err != nil {
			return nil, err
		}
		return NewSymmetricIdentity(e.Name, key)

	case alg.IsRSA():
		verifier, err := keys.ParseRSAPublicKeyPEM(alg, []byte(e.PublicKey))
		if err != nil {
			return nil, err
		}
		var signer keys.Signer
		if strings.TrimSpace(e.ResponseKey) != "" {
			if signer, err = keys.ParseRSAPrivateKeyPEM(alg, []byte(e.ResponseKey)); err != nil {
				return nil, err
			}
		}
		return NewIdentity(e.Name, verifier, signer)

	default:
		verifier, err := keys.ParseSecp256k1PublicKey(e.PublicKey)
		if err != nil {
			return nil, err
		}
		var signer keys.Signer
		if strings.TrimSpace(e.ResponseKey) != "" {
			if signer, err = keys.ParseSecp256k1PrivateKey(e.ResponseKey); err != nil {
				return nil, err
			}
		}
		return NewIdentity(e.Name, verifier, signer)
	}
}
