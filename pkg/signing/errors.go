package signing

import "errors"

// ErrValidation is returned when signing inputs are malformed: a required field is empty,
// contains a line break, or cannot be parsed. It is a contract violation of the caller,
// never a signature mismatch.
var ErrValidation = errors.New("signing: invalid signing parameters")
