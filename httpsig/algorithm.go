package httpsig

// Algorithm identifies the signature algorithm as named in the
// "algorithm" parameter of a draft-cavage Signature header.
type Algorithm string

// AlgorithmRSASHA256 is RSASSA-PKCS1-v1_5 using SHA-256. It is the
// algorithm Mastodon and most ActivityPub servers expect.
const AlgorithmRSASHA256 Algorithm = "rsa-sha256"

// String returns the algorithm name as it appears in the header.
func (a Algorithm) String() string {
	return string(a)
}

// Signer creates signatures over signing strings.
type Signer interface {
	// Sign produces a signature over the given message bytes.
	Sign(message []byte) ([]byte, error)

	// Algorithm returns the algorithm identifier for this signer.
	Algorithm() Algorithm

	// KeyID returns the key identifier placed in the keyId parameter.
	// For ActivityPub this is the URL of the actor's public key.
	KeyID() string
}

// Verifier validates signatures over signing strings.
type Verifier interface {
	// Verify checks that signature is valid for the given message bytes.
	// Returns nil on success, non-nil on failure.
	Verify(message, signature []byte) error

	// Algorithm returns the algorithm identifier for this verifier.
	Algorithm() Algorithm

	// KeyID returns the key identifier for this verifier.
	KeyID() string
}
