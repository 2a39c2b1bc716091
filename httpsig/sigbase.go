package httpsig

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// SignatureValue holds the parameters of a Signature header.
type SignatureValue struct {
	// KeyID is the keyId parameter, the URL of the signing actor's key.
	KeyID string

	// Algorithm is the optional algorithm parameter. Omitted from the
	// header when empty.
	Algorithm Algorithm

	// Headers lists the signed header names in signing order.
	Headers []string

	// Signature holds the raw signature bytes.
	Signature []byte
}

// SigningString builds the string to sign from the named headers of r.
//
// Each header produces a line "<lower-cased name>: <value>" and lines are
// joined with "\n" without a trailing newline:
//
//	(request-target): post /inbox
//	host: mastodon.social
//	date: Sun, 06 Nov 1994 08:49:37 GMT
func SigningString(r *http.Request, headers []string) (string, error) {
	if len(headers) == 0 {
		return "", ErrNoHeaders
	}

	var b strings.Builder

	for i, name := range headers {
		name = strings.ToLower(name)

		val, err := headerValue(name, r)
		if err != nil {
			return "", err
		}

		if i > 0 {
			b.WriteByte('\n')
		}

		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(val)
	}

	return b.String(), nil
}

// FormatSignature renders v as a Signature header value:
//
//	keyId="...",algorithm="...",headers="(request-target) host date",signature="..."
//
// The algorithm parameter is only written when set. The signature is
// encoded with standard base64, which never contains a double quote.
func FormatSignature(v SignatureValue) string {
	var b strings.Builder

	b.WriteString("keyId=")
	b.WriteString(quoteString(v.KeyID))

	if v.Algorithm != "" {
		b.WriteString(",algorithm=")
		b.WriteString(quoteString(v.Algorithm.String()))
	}

	b.WriteString(",headers=")
	b.WriteString(quoteString(strings.Join(v.Headers, " ")))
	b.WriteString(",signature=")
	b.WriteString(quoteString(base64.StdEncoding.EncodeToString(v.Signature)))

	return b.String()
}

// ParseSignature parses a Signature header value produced by
// FormatSignature or by another draft-cavage implementation. Unknown
// parameters are ignored. When the headers parameter is absent it
// defaults to "date".
func ParseSignature(value string) (SignatureValue, error) {
	var v SignatureValue

	var sawHeaders, sawSignature bool

	for _, part := range splitQuoteAware(value, ',') {
		key, raw, ok := strings.Cut(part, "=")
		if !ok {
			return v, fmt.Errorf("%w: parameter %q has no value", ErrMalformedHeader, part)
		}

		val := unquote(strings.TrimSpace(raw))

		switch strings.TrimSpace(key) {
		case "keyId":
			v.KeyID = val

		case "algorithm":
			v.Algorithm = Algorithm(val)

		case "headers":
			v.Headers = strings.Fields(val)
			sawHeaders = true

		case "signature":
			sig, err := base64.StdEncoding.DecodeString(val)
			if err != nil {
				return v, fmt.Errorf("%w: invalid base64 in signature", ErrMalformedHeader)
			}

			v.Signature = sig
			sawSignature = true
		}
	}

	if v.KeyID == "" {
		return v, fmt.Errorf("%w: missing keyId parameter", ErrMalformedHeader)
	}

	if !sawSignature {
		return v, fmt.Errorf("%w: missing signature parameter", ErrMalformedHeader)
	}

	if !sawHeaders {
		v.Headers = []string{HeaderDate}
	}

	return v, nil
}

// splitQuoteAware splits s on delim while respecting "..." quoted regions.
// Backslash-escaped quotes (\") inside quoted strings are handled. Each
// resulting part is trimmed of whitespace and empty parts are skipped.
func splitQuoteAware(s string, delim byte) []string {
	var result []string
	var part strings.Builder
	inQuote := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inQuote {
			if ch == '\\' && i+1 < len(s) {
				part.WriteByte(ch)
				i++
				part.WriteByte(s[i])
				continue
			}

			if ch == '"' {
				inQuote = false
			}

			part.WriteByte(ch)
			continue
		}

		switch ch {
		case '"':
			inQuote = true
			part.WriteByte(ch)

		case delim:
			if p := strings.TrimSpace(part.String()); p != "" {
				result = append(result, p)
			}

			part.Reset()

		default:
			part.WriteByte(ch)
		}
	}

	if p := strings.TrimSpace(part.String()); p != "" {
		result = append(result, p)
	}

	return result
}

// quoteString wraps s in double quotes, escaping backslash and
// double-quote.
func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' || s[i] == '"' {
			b.WriteByte('\\')
		}

		b.WriteByte(s[i])
	}

	b.WriteByte('"')

	return b.String()
}

// unquote removes surrounding double quotes and unescapes \\ and \".
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}

		b.WriteByte(s[i])
	}

	return b.String()
}
