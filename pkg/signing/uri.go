package signing

import "net/url"

// RequestURI returns the URI form covered by a request signature: the escaped path,
// followed by "?" and the raw query when includeQuery is set and the query is not empty.
func RequestURI(u *url.URL, includeQuery bool) string {
	if u == nil {
		return ""
	}

	uri := u.EscapedPath()
	if uri == "" {
		uri = "/"
	}
	if includeQuery && u.RawQuery != "" {
		uri += "?" + u.RawQuery
	}
	return uri
}
