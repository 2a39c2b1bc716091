package httpsig

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransport(t *testing.T) {
	key := generateRSAKey(t)

	signer, err := NewRSASigner("transport-key", key)
	require.NoError(t, err)

	verifier, err := NewRSAVerifier("transport-key", &key.PublicKey)
	require.NoError(t, err)

	t.Run("nil base clones default transport", func(t *testing.T) {
		transport := NewTransport(nil, SignConfig{Signer: signer})
		assert.NotNil(t, transport.base)
		assert.NotSame(t, http.DefaultTransport, transport.base)
	})

	t.Run("custom base is used", func(t *testing.T) {
		base := &http.Transport{IdleConnTimeout: 42 * time.Second}

		transport := NewTransport(base, SignConfig{Signer: signer})
		assert.Same(t, base, transport.base)
	})

	t.Run("signs requests automatically", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifySigned(t, r, verifier) != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		client := &http.Client{Transport: NewTransport(nil, SignConfig{Signer: signer})}

		resp, err := client.Post(server.URL+"/inbox", "", strings.NewReader(`{"type":"Create"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	})

	t.Run("nil signer returns error", func(t *testing.T) {
		client := &http.Client{Transport: NewTransport(nil, SignConfig{})}

		_, err := client.Get("http://localhost/test")
		assert.ErrorIs(t, err, ErrNoSigner)
		assert.ErrorIs(t, err, ErrSign)
	})

	t.Run("missing signed header sends nothing", func(t *testing.T) {
		hits := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits++
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := &http.Client{Transport: NewTransport(nil, SignConfig{
			Signer:  signer,
			Headers: []string{HeaderRequestTarget, "content-type"},
		})}

		_, err := client.Post(server.URL+"/inbox", "", strings.NewReader("{}"))
		assert.ErrorIs(t, err, ErrSign)
		assert.ErrorIs(t, err, ErrMissingHeader)
		assert.Equal(t, 0, hits)
	})

	t.Run("response request carries sent headers", func(t *testing.T) {
		var sent string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sent = r.Header.Get("Signature")
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		client := &http.Client{Transport: NewTransport(nil, SignConfig{Signer: signer})}

		req, err := http.NewRequest(http.MethodPost, server.URL+"/inbox", strings.NewReader("{}"))
		require.NoError(t, err)
		req.Header.Set("Date", "Tue, 07 Jun 2022 20:51:35 GMT")

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.NotNil(t, resp.Request)
		assert.Equal(t, sent, resp.Request.Header.Get("Signature"))
		assert.Equal(t, "Tue, 07 Jun 2022 20:51:35 GMT", resp.Request.Header.Get("Date"))
	})

	t.Run("does not mutate original request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := &http.Client{Transport: NewTransport(nil, SignConfig{Signer: signer})}

		req, err := http.NewRequest(http.MethodPost, server.URL+"/inbox", nil)
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Empty(t, req.Header.Get("Signature"))
		assert.Empty(t, req.Header.Get("Date"))
	})

	t.Run("digest keeps original body readable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, r.Header.Get("Digest"))

			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			assert.Equal(t, "test body content", string(body))

			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := &http.Client{
			Transport: NewTransport(nil, SignConfig{
				Signer:          signer,
				DigestAlgorithm: DigestSHA256,
			}),
		}

		req, err := http.NewRequest(http.MethodPost, server.URL+"/inbox", strings.NewReader("test body content"))
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := req.GetBody()
		require.NoError(t, err)

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "test body content", string(data))
	})
}
