package httpsig

import (
	"errors"
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that signs every outgoing request
// before handing it to the base transport.
type Transport struct {
	base   http.RoundTripper
	config SignConfig
}

// NewTransport creates a signing Transport. When base is nil, a clone of
// http.DefaultTransport is used so the caller gets its own connection pool.
//
// Leave SignConfig.Date zero when the transport is long-lived; each
// request is then dated when it is sent.
func NewTransport(base http.RoundTripper, cfg SignConfig) *Transport {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Transport{
		base:   base,
		config: cfg,
	}
}

// RoundTrip signs a clone of req and delegates to the base transport. The
// clone, with its Date and Signature headers, is what the base transport
// sends, so the Response.Request it returns carries them. Signing failures
// wrap ErrSign; no request is sent.
// When GetBody is available, the clone receives its own body copy so that
// digest computation does not consume the caller's body.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}

		req.Body.Close()
		clone.Body = body
	}

	if err := SignRequest(clone, t.config); err != nil {
		if clone.Body != nil {
			clone.Body.Close()
		}

		if !errors.Is(err, ErrSign) {
			err = fmt.Errorf("%w: %w", ErrSign, err)
		}

		return nil, err
	}

	return t.base.RoundTrip(clone)
}
