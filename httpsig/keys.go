package httpsig

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// Minimum RSA key size in bits.
const minRSAKeyBits = 2048

// PEM block types accepted by the parsers.
const (
	pemTypeRSAPrivateKey = "RSA PRIVATE KEY"
	pemTypePrivateKey    = "PRIVATE KEY"
	pemTypeRSAPublicKey  = "RSA PUBLIC KEY"
	pemTypePublicKey     = "PUBLIC KEY"
)

type rsaSigner struct {
	key   *rsa.PrivateKey
	keyID string
}

// NewRSASigner creates a Signer using RSASSA-PKCS1-v1_5 with SHA-256.
func NewRSASigner(keyID string, key *rsa.PrivateKey) (Signer, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: rsa private key must not be nil", ErrInvalidKey)
	}

	if key.N.BitLen() < minRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key must be at least %d bits", ErrInvalidKey, minRSAKeyBits)
	}

	return &rsaSigner{key: key, keyID: keyID}, nil
}

func (s *rsaSigner) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)

	return rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
}

func (s *rsaSigner) Algorithm() Algorithm { return AlgorithmRSASHA256 }
func (s *rsaSigner) KeyID() string        { return s.keyID }

type rsaVerifier struct {
	key   *rsa.PublicKey
	keyID string
}

// NewRSAVerifier creates a Verifier using RSASSA-PKCS1-v1_5 with SHA-256.
func NewRSAVerifier(keyID string, key *rsa.PublicKey) (Verifier, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: rsa public key must not be nil", ErrInvalidKey)
	}

	if key.N.BitLen() < minRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key must be at least %d bits", ErrInvalidKey, minRSAKeyBits)
	}

	return &rsaVerifier{key: key, keyID: keyID}, nil
}

func (v *rsaVerifier) Verify(message, signature []byte) error {
	digest := sha256.Sum256(message)

	if err := rsa.VerifyPKCS1v15(v.key, crypto.SHA256, digest[:], signature); err != nil {
		return ErrSignatureInvalid
	}

	return nil
}

func (v *rsaVerifier) Algorithm() Algorithm { return AlgorithmRSASHA256 }
func (v *rsaVerifier) KeyID() string        { return v.keyID }

// LoadRSAPrivateKey reads a PEM file from disk and parses the RSA private
// key in it. Read failures are returned unwrapped so callers can tell a
// missing file from bad key material.
func LoadRSAPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseRSAPrivateKeyPEM(data)
}

// ParseRSAPrivateKeyPEM parses the first PEM block in data as an RSA
// private key. Both PKCS#1 ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY")
// encodings are accepted.
func ParseRSAPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}

	switch block.Type {
	case pemTypeRSAPrivateKey:
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}

		return key, nil

	case pemTypePrivateKey:
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}

		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: PKCS#8 key is %T, not RSA", ErrInvalidKey, parsed)
		}

		return key, nil

	default:
		return nil, fmt.Errorf("%w: unexpected PEM block type %q", ErrInvalidKey, block.Type)
	}
}

// ParseRSAPublicKeyPEM parses the first PEM block in data as an RSA public
// key. Both PKIX ("PUBLIC KEY", the form ActivityPub actors publish as
// publicKeyPem) and PKCS#1 ("RSA PUBLIC KEY") encodings are accepted.
func ParseRSAPublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}

	switch block.Type {
	case pemTypePublicKey:
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}

		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: public key is %T, not RSA", ErrInvalidKey, parsed)
		}

		return key, nil

	case pemTypeRSAPublicKey:
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}

		return key, nil

	default:
		return nil, fmt.Errorf("%w: unexpected PEM block type %q", ErrInvalidKey, block.Type)
	}
}

// EncodeRSAPublicKeyPEM returns the PKIX PEM encoding of key, suitable for
// an actor document's publicKeyPem field.
func EncodeRSAPublicKeyPEM(key *rsa.PublicKey) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: rsa public key must not be nil", ErrInvalidKey)
	}

	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublicKey, Bytes: der}), nil
}
