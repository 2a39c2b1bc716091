package httpsig

import (
	"fmt"
	"net/http"
	"strings"
)

// Header names with special meaning in the signing string.
const (
	HeaderRequestTarget = "(request-target)"
	HeaderHost          = "host"
	HeaderDate          = "date"
	HeaderDigest        = "digest"
)

// DefaultHeaders is the signed header list used when SignConfig.Headers is
// empty. It is the minimum set Mastodon accepts for inbox delivery.
var DefaultHeaders = []string{HeaderRequestTarget, HeaderHost, HeaderDate}

// headerValue returns the value a signed header contributes to the signing
// string. name must already be lower-cased.
//
// Multiple values for the same header are joined with ", ".
func headerValue(name string, r *http.Request) (string, error) {
	switch name {
	case HeaderRequestTarget:
		return requestTarget(r), nil

	case HeaderHost:
		// net/http keeps Host out of the header map.
		if h := host(r); h != "" {
			return h, nil
		}

		return "", fmt.Errorf("%w: %s", ErrMissingHeader, name)
	}

	values := r.Header.Values(name)
	if len(values) == 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingHeader, name)
	}

	return strings.Join(values, ", "), nil
}

// requestTarget returns the (request-target) pseudo-header: the lower-cased
// method, a space, then the path with optional query.
func requestTarget(r *http.Request) string {
	return strings.ToLower(r.Method) + " " + r.URL.RequestURI()
}

// host returns the value sent in the Host header. Request.Host wins over
// the URL so that an explicit override is what gets signed.
func host(r *http.Request) string {
	if r.Host != "" {
		return r.Host
	}

	if r.URL != nil {
		return r.URL.Host
	}

	return ""
}
