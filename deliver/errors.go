package deliver

import "errors"

// Delivery error taxonomy. Every error returned by this package wraps
// exactly one of these, so callers can branch with errors.Is.
var (
	// ErrConfig is returned when Config is incomplete or malformed.
	ErrConfig = errors.New("deliver: invalid configuration")

	// ErrIO is returned when the document or key file cannot be read.
	ErrIO = errors.New("deliver: file access failed")

	// ErrCrypto is returned when the private key cannot be parsed or the
	// request cannot be signed.
	ErrCrypto = errors.New("deliver: signing failed")

	// ErrNetwork is returned on connection, DNS, TLS or timeout failures.
	ErrNetwork = errors.New("deliver: network failure")

	// ErrProtocol is returned when the inbox answers with a non-2xx
	// status.
	ErrProtocol = errors.New("deliver: inbox rejected delivery")
)
