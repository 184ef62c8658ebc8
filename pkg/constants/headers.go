package constants

// Signed exchange HTTP header constants.
// The names are part of the wire contract shared with existing clients, including the
// historical "NOUNCE" spelling, and must not be changed.
const (
	// HeaderNonce contains the per-request random token.
	HeaderNonce = "X-NOUNCE"

	// HeaderTimestamp contains the ISO-8601 UTC time at which the request or response was signed.
	HeaderTimestamp = "X-TIMESTAMP"

	// HeaderIdentity contains the principal claimed by the request signer.
	HeaderIdentity = "X-IDENTITY"

	// HeaderSignature contains the base64 encoded signature over the canonical bytes.
	HeaderSignature = "X-SIGNATURE"

	// HeaderExcludeBody is set on a response when its body is an error payload
	// that is not covered by the response signature.
	HeaderExcludeBody = "X-EXCLUDEBODY"

	// HeaderSignedBodyLength is set next to HeaderExcludeBody. It holds the number of leading
	// body bytes that are covered by the response signature; the error payload follows them.
	HeaderSignedBodyLength = "X-SIGNED-BODY-LENGTH"
)

// ExcludeBodyValue is the only value written to HeaderExcludeBody.
const ExcludeBodyValue = "true"
