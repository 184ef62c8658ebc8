package defs

// NonceStoreType selects the nonce store backend.
type NonceStoreType string

// Supported nonce store backends.
const (
	NonceStoreMemory   NonceStoreType = "memory"
	NonceStorePostgres NonceStoreType = "postgres"
)

// ParseNonceStoreTypeStr parses a string into a NonceStoreType (case-insensitive).
func ParseNonceStoreTypeStr(storeType string) (NonceStoreType, error) {
	return parseEnumCaseInsensitive(storeType, NonceStoreMemory, NonceStorePostgres)
}
