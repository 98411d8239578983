// Package urls provides utility functions for working with URLs.
package urls

import (
	"net/url"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// IsURLValid checks if the given URL is valid.
func IsURLValid(raw string) bool {
	u, err := url.Parse(raw)

	return err == nil && u.Scheme != "" && u.Host != "" && (u.Scheme == schemeHTTP || u.Scheme == schemeHTTPS)
}

// IsAbsoluteRemote reports whether raw should be fetched directly rather than
// through the media service. Anything starting with "http" qualifies.
func IsAbsoluteRemote(raw string) bool {
	return strings.HasPrefix(raw, schemeHTTP)
}

// LooksLikeURL is the clipboard autofill test.
func LooksLikeURL(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), schemeHTTP)
}

// Normalize trims spaces, parses and returns the URL in string format.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	return u.String()
}

// Endpoint joins base with path and encodes query.
// Endpoint("http://h:5000/", "/info", url.Values{"url": {"x"}}) => http://h:5000/info?url=x
func Endpoint(base, path string, query url.Values) string {
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return u
}

// Host returns the host part of raw, or "unknown".
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}

	return u.Host
}
