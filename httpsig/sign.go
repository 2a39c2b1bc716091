package httpsig

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
)

// SignConfig configures draft-cavage HTTP request signing.
type SignConfig struct {
	// Signer produces signatures. Required.
	Signer Signer

	// Headers lists the header names to sign, in order. Defaults to
	// DefaultHeaders.
	Headers []string

	// Date is the timestamp written to the Date header when the request
	// does not carry one. When zero, time.Now() is used.
	Date time.Time

	// DigestAlgorithm, when set, causes SignRequest to compute and set a
	// Digest header (RFC 3230) before signing. "digest" is appended to the
	// signed headers if not already present.
	DigestAlgorithm DigestAlgorithm

	// IncludeAlgorithm adds the algorithm parameter to the Signature
	// header.
	IncludeAlgorithm bool
}

// SignRequest signs an HTTP request in-place by setting the Date header
// (when absent) and the Signature header.
//
// The signing string reads the Date header back from r, so the signed
// timestamp and the transmitted one are always the same string.
func SignRequest(r *http.Request, cfg SignConfig) error {
	if cfg.Signer == nil {
		return ErrNoSigner
	}

	headers := slices.Clone(cfg.Headers)
	if len(headers) == 0 {
		headers = slices.Clone(DefaultHeaders)
	}

	for i, name := range headers {
		headers[i] = strings.ToLower(name)
	}

	if r.Header.Get("Date") == "" {
		date := cfg.Date
		if date.IsZero() {
			date = time.Now()
		}

		r.Header.Set("Date", FormatDate(date))
	}

	if cfg.DigestAlgorithm != "" {
		if err := SetDigest(r, cfg.DigestAlgorithm); err != nil {
			return err
		}

		if !slices.Contains(headers, HeaderDigest) {
			headers = append(headers, HeaderDigest)
		}
	}

	signingString, err := SigningString(r, headers)
	if err != nil {
		return err
	}

	sig, err := cfg.Signer.Sign([]byte(signingString))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSign, err)
	}

	value := SignatureValue{
		KeyID:     cfg.Signer.KeyID(),
		Headers:   headers,
		Signature: sig,
	}

	if cfg.IncludeAlgorithm {
		value.Algorithm = cfg.Signer.Algorithm()
	}

	r.Header.Set("Signature", FormatSignature(value))

	return nil
}

// FormatDate formats t as an RFC 7231 IMF-fixdate in UTC, the form used by
// the Date header.
func FormatDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
