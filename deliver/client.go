// Package deliver posts a signed ActivityPub document to a remote inbox.
//
// A Client performs exactly one POST per Deliver call: no retries, no
// queueing. The private key is loaded when the Client is created, so a
// missing or malformed key is reported before any network traffic.
package deliver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/idna"

	"github.com/vitalvas/inboxpost/activity"
	"github.com/vitalvas/inboxpost/httpsig"
)

// maxResponseBody caps how much of the inbox response is kept in Result.
const maxResponseBody = 1 << 20

// Config describes one inbox delivery target and the identity used to sign.
type Config struct {
	// InboxURL is the absolute URL of the receiving inbox. Required.
	InboxURL string

	// Host overrides the Host header. Defaults to the host of InboxURL.
	Host string

	// KeyID is the URL of the actor's public key, sent as keyId. Required.
	KeyID string

	// PrivateKeyPath is the PEM file holding the actor's RSA private key.
	// Required.
	PrivateKeyPath string

	// Headers lists the signed headers. Defaults to
	// "(request-target) host date".
	Headers []string

	// ContentType, when set, is sent as the Content-Type header. It is not
	// signed unless listed in Headers.
	ContentType string

	// DigestAlgorithm, when set, adds a signed Digest header.
	DigestAlgorithm httpsig.DigestAlgorithm

	// IncludeAlgorithm adds algorithm="rsa-sha256" to the Signature header.
	IncludeAlgorithm bool

	// UserAgent, when set, is sent as the User-Agent header.
	UserAgent string

	// Timeout bounds the whole request. Zero means no client timeout.
	Timeout time.Duration
}

// Result describes what was sent and what the inbox answered.
type Result struct {
	// StatusCode is the HTTP status returned by the inbox.
	StatusCode int

	// Status is the HTTP status line text, e.g. "202 Accepted".
	Status string

	// Body holds up to 1 MiB of the response body.
	Body []byte

	// Date is the Date header that was sent and signed.
	Date string

	// Signature is the Signature header that was sent.
	Signature string
}

// Client delivers documents to a single inbox.
type Client struct {
	inbox      *url.URL
	host       string
	cfg        Config
	signer     httpsig.Signer
	signCfg    httpsig.SignConfig
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithLogger sets the logger. Defaults to a no-op logger; nil is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the HTTP client. Config.Timeout is ignored when
// this option is used. Its transport is wrapped with a signing transport;
// the client passed in is not modified.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock sets the time source used for the Date header.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New validates cfg, loads the private key and returns a ready Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	inbox, host, err := resolveTarget(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.KeyID == "" {
		return nil, fmt.Errorf("%w: key id must not be empty", ErrConfig)
	}

	if cfg.PrivateKeyPath == "" {
		return nil, fmt.Errorf("%w: private key path must not be empty", ErrConfig)
	}

	key, err := httpsig.LoadRSAPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("%w: private key: %w", ErrIO, err)
		}

		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	signer, err := httpsig.NewRSASigner(cfg.KeyID, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	c := &Client{
		inbox:  inbox,
		host:   host,
		cfg:    cfg,
		signer: signer,
		signCfg: httpsig.SignConfig{
			Signer:           signer,
			Headers:          cfg.Headers,
			DigestAlgorithm:  cfg.DigestAlgorithm,
			IncludeAlgorithm: cfg.IncludeAlgorithm,
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zap.NewNop(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	hc := *c.httpClient
	hc.Transport = httpsig.NewTransport(hc.Transport, c.signCfg)
	c.httpClient = &hc

	return c, nil
}

// Deliver signs doc and posts it to the inbox. The body is sent exactly as
// given. On a non-2xx status both the Result and an ErrProtocol error are
// returned.
func (c *Client) Deliver(ctx context.Context, doc activity.Document) (*Result, error) {
	req, err := c.newRequest(ctx, doc)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Date: req.Header.Get("Date"),
	}

	c.logger.Info("delivering activity",
		zap.String("inbox", c.inbox.String()),
		zap.String("type", doc.Type()),
		zap.Int("bytes", len(doc)),
		zap.String("key_id", c.signer.KeyID()),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, httpsig.ErrSign) {
			return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
		}

		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	// The signing transport sends a signed clone; the response points at it.
	if resp.Request != nil {
		result.Signature = resp.Request.Header.Get("Signature")
	}

	c.logger.Debug("signed request",
		zap.String("host", c.host),
		zap.String("date", result.Date),
		zap.String("signature", result.Signature),
	)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrNetwork, err)
	}

	result.StatusCode = resp.StatusCode
	result.Status = resp.Status
	result.Body = body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("inbox rejected delivery",
			zap.String("inbox", c.inbox.String()),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)

		return result, fmt.Errorf("%w: %s", ErrProtocol, resp.Status)
	}

	c.logger.Info("activity delivered",
		zap.String("inbox", c.inbox.String()),
		zap.Int("status", resp.StatusCode),
	)

	return result, nil
}

// DeliverFile loads the document at path and delivers it.
func (c *Client) DeliverFile(ctx context.Context, path string) (*Result, error) {
	doc, err := activity.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	return c.Deliver(ctx, doc)
}

// Prepare builds the signed request for doc without sending it. Errors
// wrap ErrConfig or ErrCrypto.
func (c *Client) Prepare(ctx context.Context, doc activity.Document) (*http.Request, error) {
	req, err := c.newRequest(ctx, doc)
	if err != nil {
		return nil, err
	}

	if err := httpsig.SignRequest(req, c.signCfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCrypto, err)
	}

	return req, nil
}

// newRequest builds the unsigned POST for doc. The Date header is set once
// from the clock; the signer keeps it and signs that exact value.
func (c *Client) newRequest(ctx context.Context, doc activity.Document) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.inbox.String(), bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	req.Host = c.host
	req.Header.Set("Date", httpsig.FormatDate(c.now()))

	if c.cfg.ContentType != "" {
		req.Header.Set("Content-Type", c.cfg.ContentType)
	}

	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	return req, nil
}

// resolveTarget parses the inbox URL and derives the ASCII Host header
// value.
func resolveTarget(cfg Config) (*url.URL, string, error) {
	if cfg.InboxURL == "" {
		return nil, "", fmt.Errorf("%w: inbox url must not be empty", ErrConfig)
	}

	inbox, err := url.Parse(cfg.InboxURL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: inbox url: %w", ErrConfig, err)
	}

	if inbox.Scheme != "https" && inbox.Scheme != "http" {
		return nil, "", fmt.Errorf("%w: inbox url scheme must be http or https", ErrConfig)
	}

	if inbox.Host == "" {
		return nil, "", fmt.Errorf("%w: inbox url has no host", ErrConfig)
	}

	raw := cfg.Host
	if raw == "" {
		raw = inbox.Host
	}

	host, err := asciiHost(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: host %q: %w", ErrConfig, raw, err)
	}

	return inbox, host, nil
}

// hostProfile maps names the way lookups do but, like net/http, accepts
// underscores and other STD3-invalid ASCII.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.BidiRule(),
	idna.StrictDomainName(false),
)

// asciiHost converts an internationalised host[:port] to its punycode
// form, the form the receiving server sees in the Host header. IP
// literals pass through, IPv6 in brackets.
func asciiHost(hostport string) (string, error) {
	hostname, port, err := net.SplitHostPort(hostport)
	if err != nil {
		hostname, port = hostport, ""
	}

	if ip := strings.TrimSuffix(strings.TrimPrefix(hostname, "["), "]"); net.ParseIP(ip) != nil {
		if port != "" {
			return net.JoinHostPort(ip, port), nil
		}

		if strings.Contains(ip, ":") {
			return "[" + ip + "]", nil
		}

		return ip, nil
	}

	ascii, err := hostProfile.ToASCII(hostname)
	if err != nil {
		return "", err
	}

	if port != "" {
		return net.JoinHostPort(ascii, port), nil
	}

	return ascii, nil
}
