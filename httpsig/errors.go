package httpsig

import "errors"

// Signing errors.
var (
	// ErrNoSigner is returned when SignConfig has no Signer configured.
	ErrNoSigner = errors.New("httpsig: signer must not be nil")

	// ErrNoHeaders is returned when the signing string is built from an
	// empty header list.
	ErrNoHeaders = errors.New("httpsig: signed headers must not be empty")

	// ErrMissingHeader is returned when a header named in the signed header
	// list is absent from the request.
	ErrMissingHeader = errors.New("httpsig: signed header missing from request")

	// ErrSign is returned when the underlying key fails to produce a
	// signature.
	ErrSign = errors.New("httpsig: signing failed")
)

// Verification errors.
var (
	// ErrSignatureInvalid is returned when signature verification fails.
	ErrSignatureInvalid = errors.New("httpsig: signature verification failed")

	// ErrMalformedHeader is returned when a Signature header value cannot
	// be parsed.
	ErrMalformedHeader = errors.New("httpsig: malformed signature header")
)

// Key material errors.
var (
	// ErrInvalidKey is returned when key material is invalid (nil, not PEM,
	// not RSA, insufficient size, etc.).
	ErrInvalidKey = errors.New("httpsig: invalid key material")
)

// Digest errors.
var (
	// ErrUnsupportedDigest is returned when the digest algorithm is not
	// supported.
	ErrUnsupportedDigest = errors.New("httpsig: unsupported digest algorithm")
)
