// Package config loads inboxpost settings from YAML, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/inboxpost/deliver"
	"github.com/vitalvas/inboxpost/httpsig"
)

// ErrInvalid is returned by Validate when a setting is missing or malformed.
var ErrInvalid = errors.New("config: invalid")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INBOXPOST_"

// Defaults match the single delivery inboxpost was first written for.
const (
	DefaultInboxURL   = "https://mastodon.social/inbox"
	DefaultKeyID      = "https://codecaptured.com/theisolator/activitypub/actor"
	DefaultPrivateKey = "private.pem"
	DefaultDocument   = "create-hello-world.json"
)

type Config struct {
	Actor struct {
		// URL of the actor's public key, sent as keyId.
		KeyID      string `yaml:"key_id"`
		PrivateKey string `yaml:"private_key"`
	} `yaml:"actor"`

	Inbox struct {
		URL string `yaml:"url"`
		// Host header override; empty means the URL host.
		Host string `yaml:"host"`
	} `yaml:"inbox"`

	Document string `yaml:"document"`

	Delivery struct {
		Headers          []string      `yaml:"headers"`
		ContentType      string        `yaml:"content_type"`
		Digest           string        `yaml:"digest"` // "", SHA-256 or SHA-512
		IncludeAlgorithm bool          `yaml:"include_algorithm"`
		UserAgent        string        `yaml:"user_agent"`
		Timeout          time.Duration `yaml:"timeout"`
	} `yaml:"delivery"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.Actor.KeyID = DefaultKeyID
	c.Actor.PrivateKey = DefaultPrivateKey
	c.Inbox.URL = DefaultInboxURL
	c.Document = DefaultDocument

	return c
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadEnvFile loads KEY=value pairs from a .env file into the process
// environment. Variables already set are left alone. A missing file is
// not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return godotenv.Load(path)
}

// ApplyEnv overrides settings from INBOXPOST_* variables returned by
// lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	str("KEY_ID", &c.Actor.KeyID)
	str("PRIVATE_KEY", &c.Actor.PrivateKey)
	str("INBOX_URL", &c.Inbox.URL)
	str("INBOX_HOST", &c.Inbox.Host)
	str("DOCUMENT", &c.Document)
	str("CONTENT_TYPE", &c.Delivery.ContentType)
	str("DIGEST", &c.Delivery.Digest)
	str("USER_AGENT", &c.Delivery.UserAgent)

	if v, ok := lookup(EnvPrefix + "HEADERS"); ok {
		c.Delivery.Headers = strings.Fields(v)
	}

	if v, ok := lookup(EnvPrefix + "INCLUDE_ALGORITHM"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sINCLUDE_ALGORITHM: %w", ErrInvalid, EnvPrefix, err)
		}

		c.Delivery.IncludeAlgorithm = b
	}

	if v, ok := lookup(EnvPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sTIMEOUT: %w", ErrInvalid, EnvPrefix, err)
		}

		c.Delivery.Timeout = d
	}

	return nil
}

// Validate checks that every required setting is present and well formed.
func (c *Config) Validate() error {
	if err := validateURL("inbox.url", c.Inbox.URL); err != nil {
		return err
	}

	if err := validateURL("actor.key_id", c.Actor.KeyID); err != nil {
		return err
	}

	if c.Actor.PrivateKey == "" {
		return fmt.Errorf("%w: actor.private_key is required", ErrInvalid)
	}

	switch httpsig.DigestAlgorithm(c.Delivery.Digest) {
	case "", httpsig.DigestSHA256, httpsig.DigestSHA512:
	default:
		return fmt.Errorf("%w: delivery.digest %q is not SHA-256 or SHA-512", ErrInvalid, c.Delivery.Digest)
	}

	if c.Delivery.Timeout < 0 {
		return fmt.Errorf("%w: delivery.timeout must not be negative", ErrInvalid)
	}

	return nil
}

// DeliverConfig maps the settings onto a deliver.Config.
func (c *Config) DeliverConfig() deliver.Config {
	return deliver.Config{
		InboxURL:         c.Inbox.URL,
		Host:             c.Inbox.Host,
		KeyID:            c.Actor.KeyID,
		PrivateKeyPath:   c.Actor.PrivateKey,
		Headers:          c.Delivery.Headers,
		ContentType:      c.Delivery.ContentType,
		DigestAlgorithm:  httpsig.DigestAlgorithm(c.Delivery.Digest),
		IncludeAlgorithm: c.Delivery.IncludeAlgorithm,
		UserAgent:        c.Delivery.UserAgent,
		Timeout:          c.Delivery.Timeout,
	}
}

func validateURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalid, field)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, field, err)
	}

	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http(s) URL", ErrInvalid, field)
	}

	return nil
}
