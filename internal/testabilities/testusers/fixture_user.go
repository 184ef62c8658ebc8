package testusers

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
	"github.com/bsv-blockchain/go-signed-exchange/pkg/keystore"
)

// Alice signs with a secp256k1 key; her responses are signed with the server key.
var Alice = User{
	Name:    "Alice",
	PrivKey: "143ab18a84d3b25e1a13cefa90038411e5d2014590a2a4a57263d1593c8dee1c",
}

// Bob shares an HMAC secret with the server, used in both directions.
var Bob = User{
	Name:       "Bob",
	HMACSecret: "Ym9iLXNoYXJlZC1zZWNyZXQtZm9yLXRlc3Rz",
}

// Carol signs with an RSA key and has her own RSA key for responses.
var Carol = User{
	Name: "Carol",
	RSA:  true,
}

// Mallory is never registered on the server.
var Mallory = User{
	Name:       "Mallory",
	HMACSecret: "bWFsbG9yeS1zZWNyZXQ=",
}

type User struct {
	Name       string
	PrivKey    string
	HMACSecret string
	RSA        bool
}

var carolKeys = sync.OnceValues(func() (*carolKeyPair, error) {
	request, err := keys.GenerateRSAKey(keys.RSASHA256, keys.MinRSAKeyBits)
	if err != nil {
		return nil, err
	}
	response, err := keys.GenerateRSAKey(keys.RSASHA256, keys.MinRSAKeyBits)
	if err != nil {
		return nil, err
	}
	return &carolKeyPair{request: request, response: response}, nil
})

type carolKeyPair struct {
	request  *keys.RSAPrivateKey
	response *keys.RSAPrivateKey
}

// IdentityName returns the value sent in X-IDENTITY.
func (u User) IdentityName(t testing.TB) string {
	t.Helper()
	if u.PrivKey != "" {
		return u.secp256k1Key(t).Public().Hex()
	}
	return strings.ToLower(u.Name)
}

// Signer returns the key the user signs requests with.
func (u User) Signer(t testing.TB) keys.Signer {
	t.Helper()
	switch {
	case u.PrivKey != "":
		return u.secp256k1Key(t)
	case u.RSA:
		return u.rsaKeys(t).request
	default:
		return u.hmacKey(t)
	}
}

// ResponseVerifier returns the key that verifies responses for this user,
// or nil when the server default key signs them.
func (u User) ResponseVerifier(t testing.TB) keys.Verifier {
	t.Helper()
	switch {
	case u.PrivKey != "":
		return nil
	case u.RSA:
		return u.rsaKeys(t).response.Public()
	default:
		return u.hmacKey(t)
	}
}

// Identity returns the server side view of the user.
func (u User) Identity(t testing.TB) *keystore.Identity {
	t.Helper()

	var identity *keystore.Identity
	var err error
	switch {
	case u.PrivKey != "":
		identity, err = keystore.NewIdentity(u.IdentityName(t), u.secp256k1Key(t).Public(), nil)
	case u.RSA:
		pair := u.rsaKeys(t)
		identity, err = keystore.NewIdentity(u.IdentityName(t), pair.request.Public(), pair.response)
	default:
		identity, err = keystore.NewSymmetricIdentity(u.IdentityName(t), u.hmacKey(t))
	}
	require.NoErrorf(t, err, "User %s has invalid keys: invalid test setup", u.Name)
	return identity
}

func (u User) secp256k1Key(t testing.TB) *keys.Secp256k1PrivateKey {
	t.Helper()
	key, err := keys.ParseSecp256k1PrivateKey(u.PrivKey)
	require.NoErrorf(t, err, "User %s has invalid private key hex %q", u.Name, u.PrivKey)
	return key
}

func (u User) hmacKey(t testing.TB) *keys.HMACKey {
	t.Helper()
	key, err := keys.NewHMACKeyFromBase64(keys.HMACSHA256, u.HMACSecret)
	require.NoErrorf(t, err, "User %s has invalid hmac secret %q", u.Name, u.HMACSecret)
	return key
}

func (u User) rsaKeys(t testing.TB) *carolKeyPair {
	t.Helper()
	pair, err := carolKeys()
	require.NoErrorf(t, err, "failed to generate rsa keys for %s: invalid test setup", u.Name)
	return pair
}
