package fixture

import (
	"fmt"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/keys"
)

const WIF = "L1cReZseWmqcYra3vrqj9TPBGHhvDQFD2jYuu1RUj5rrfpVLiKHs"

type identity struct {
	WIF        string
	PublicKey  string
	PrivateKey *keys.Secp256k1PrivateKey
	Verifier   *keys.Secp256k1PublicKey
}

// ServerIdentity signs responses for identities without a response key of their own.
var ServerIdentity identity = createIdentity()

func createIdentity() identity {
	key, err := keys.ParseSecp256k1PrivateKey(WIF)
	if err != nil {
		panic(fmt.Errorf("invalid test setup: failed to restore key from wif: %w", err))
	}

	return identity{
		WIF:        WIF,
		PublicKey:  key.Public().Hex(),
		PrivateKey: key,
		Verifier:   key.Public(),
	}
}
