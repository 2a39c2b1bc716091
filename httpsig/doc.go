// Package httpsig signs HTTP requests with the draft-cavage "HTTP
// Signatures" scheme used for ActivityPub server-to-server delivery.
//
// A signed request carries a Signature header of the form:
//
//	keyId="https://example.com/actor#main-key",headers="(request-target) host date",signature="..."
//
// The signature covers a signing string built from the listed headers,
// one "name: value" line per header:
//
//	(request-target): post /inbox
//	host: mastodon.social
//	date: Tue, 07 Jun 2022 20:51:35 GMT
//
// # Supported Algorithms
//
// Only rsa-sha256 (RSASSA-PKCS1-v1_5 with SHA-256) is implemented; it is
// the algorithm every major fediverse server accepts.
//
// # Signing Requests
//
// Use SignRequest to add Date and Signature headers to an HTTP request:
//
//	key, err := httpsig.LoadRSAPrivateKey("private.pem")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	signer, err := httpsig.NewRSASigner("https://example.com/actor#main-key", key)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = httpsig.SignRequest(req, httpsig.SignConfig{Signer: signer})
//
// # Client Transport
//
// NewTransport creates an http.RoundTripper that signs all outgoing
// requests:
//
//	client := &http.Client{
//	    Transport: httpsig.NewTransport(nil, httpsig.SignConfig{
//	        Signer: signer,
//	    }),
//	}
//
// # Digest
//
// Setting SignConfig.DigestAlgorithm adds an RFC 3230 Digest header and
// signs it:
//
//	err := httpsig.SignRequest(req, httpsig.SignConfig{
//	    Signer:          signer,
//	    DigestAlgorithm: httpsig.DigestSHA256,
//	})
package httpsig
