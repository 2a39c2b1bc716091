package httpsig

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
)

// DigestAlgorithm identifies the hash algorithm for the Digest header
// per RFC 3230.
type DigestAlgorithm string

const (
	// DigestSHA256 uses SHA-256. Mastodon requires it on signed POSTs
	// when "digest" is part of the signed headers.
	DigestSHA256 DigestAlgorithm = "SHA-256"

	// DigestSHA512 uses SHA-512.
	DigestSHA512 DigestAlgorithm = "SHA-512"
)

// SetDigest reads the request body, computes the digest using the
// specified algorithm, sets the Digest header, and replaces the body so it
// can be read again.
func SetDigest(r *http.Request, alg DigestAlgorithm) error {
	body, err := readAndRestoreBody(r)
	if err != nil {
		return err
	}

	digest, err := computeDigest(body, alg)
	if err != nil {
		return err
	}

	r.Header.Set("Digest", string(alg)+"="+base64.StdEncoding.EncodeToString(digest))

	return nil
}

// computeDigest computes the hash of data using the specified algorithm.
func computeDigest(data []byte, alg DigestAlgorithm) ([]byte, error) {
	switch alg {
	case DigestSHA256:
		h := sha256.Sum256(data)
		return h[:], nil
	case DigestSHA512:
		h := sha512.Sum512(data)
		return h[:], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDigest, alg)
	}
}

// readAndRestoreBody reads the entire request body and replaces it with a
// new reader so the body can be sent afterwards.
func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}
