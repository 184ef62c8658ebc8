package signing

import (
	"fmt"
	"strings"
)

const fieldSeparator = '\n'

// Canonicalize builds the deterministic byte string that is signed for an exchange.
// Fields are joined with a single newline and content is appended verbatim without a separator.
//
// The result is injective only for fields free of line breaks, which callers guarantee by
// validating the fields first (see Request.DataToSign and Response.DataToSign).
func Canonicalize(fields []string, content []byte) []byte {
	size := len(content) + len(fields)
	for _, f := range fields {
		size += len(f)
	}

	buf := make([]byte, 0, size)
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, fieldSeparator)
		}
		buf = append(buf, f...)
	}

	return append(buf, content...)
}

type field struct {
	name  string
	value string
}

func validateFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
			continue
		}
		if strings.ContainsAny(f.value, "\r\n") {
			return fmt.Errorf("%w: %s must not contain line breaks", ErrValidation, f.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

func fieldValues(fields []field) []string {
	values := make([]string, len(fields))
	for i, f := range fields {
		values[i] = f.value
	}
	return values
}
