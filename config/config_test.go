package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/inboxpost/httpsig"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "https://mastodon.social/inbox", c.Inbox.URL)
	assert.Equal(t, "https://codecaptured.com/theisolator/activitypub/actor", c.Actor.KeyID)
	assert.Equal(t, "private.pem", c.Actor.PrivateKey)
	assert.Equal(t, "create-hello-world.json", c.Document)
	assert.Empty(t, c.Delivery.ContentType)
	assert.NoError(t, c.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("yaml over defaults", func(t *testing.T) {
		path := writeFile(t, "config.yaml", `
actor:
  key_id: https://example.com/users/alice#main-key
inbox:
  url: https://example.social/users/bob/inbox
  host: example.social
delivery:
  headers: ["(request-target)", "host", "date", "digest"]
  content_type: application/activity+json
  digest: SHA-256
  include_algorithm: true
  timeout: 15s
`)

		c, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "https://example.com/users/alice#main-key", c.Actor.KeyID)
		assert.Equal(t, DefaultPrivateKey, c.Actor.PrivateKey)
		assert.Equal(t, "https://example.social/users/bob/inbox", c.Inbox.URL)
		assert.Equal(t, "example.social", c.Inbox.Host)
		assert.Equal(t, DefaultDocument, c.Document)
		assert.Equal(t, []string{"(request-target)", "host", "date", "digest"}, c.Delivery.Headers)
		assert.Equal(t, "application/activity+json", c.Delivery.ContentType)
		assert.Equal(t, "SHA-256", c.Delivery.Digest)
		assert.True(t, c.Delivery.IncludeAlgorithm)
		assert.Equal(t, 15*time.Second, c.Delivery.Timeout)
		assert.NoError(t, c.Validate())
	})

	t.Run("empty path uses defaults", func(t *testing.T) {
		c, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultInboxURL, c.Inbox.URL)
	})

	t.Run("environment wins over yaml", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "document: from-yaml.json\n")
		t.Setenv("INBOXPOST_DOCUMENT", "from-env.json")

		c, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env.json", c.Document)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "actor: [unclosed\n")

		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("all overrides", func(t *testing.T) {
		c := Default()

		err := c.ApplyEnv(envMap(map[string]string{
			"INBOXPOST_KEY_ID":            "https://example.com/actor#key",
			"INBOXPOST_PRIVATE_KEY":       "/etc/inboxpost/key.pem",
			"INBOXPOST_INBOX_URL":         "https://example.social/inbox",
			"INBOXPOST_INBOX_HOST":        "example.social",
			"INBOXPOST_DOCUMENT":          "follow.json",
			"INBOXPOST_CONTENT_TYPE":      "application/activity+json",
			"INBOXPOST_DIGEST":            "SHA-512",
			"INBOXPOST_USER_AGENT":        "inboxpost/1.0",
			"INBOXPOST_HEADERS":           "(request-target) host date digest",
			"INBOXPOST_INCLUDE_ALGORITHM": "true",
			"INBOXPOST_TIMEOUT":           "5s",
		}))
		require.NoError(t, err)

		assert.Equal(t, "https://example.com/actor#key", c.Actor.KeyID)
		assert.Equal(t, "/etc/inboxpost/key.pem", c.Actor.PrivateKey)
		assert.Equal(t, "https://example.social/inbox", c.Inbox.URL)
		assert.Equal(t, "example.social", c.Inbox.Host)
		assert.Equal(t, "follow.json", c.Document)
		assert.Equal(t, "application/activity+json", c.Delivery.ContentType)
		assert.Equal(t, "SHA-512", c.Delivery.Digest)
		assert.Equal(t, "inboxpost/1.0", c.Delivery.UserAgent)
		assert.Equal(t, []string{"(request-target)", "host", "date", "digest"}, c.Delivery.Headers)
		assert.True(t, c.Delivery.IncludeAlgorithm)
		assert.Equal(t, 5*time.Second, c.Delivery.Timeout)
	})

	t.Run("nothing set", func(t *testing.T) {
		c := Default()
		require.NoError(t, c.ApplyEnv(noEnv))
		assert.Equal(t, Default(), c)
	})

	t.Run("bad bool", func(t *testing.T) {
		err := Default().ApplyEnv(envMap(map[string]string{"INBOXPOST_INCLUDE_ALGORITHM": "maybe"}))
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("bad duration", func(t *testing.T) {
		err := Default().ApplyEnv(envMap(map[string]string{"INBOXPOST_TIMEOUT": "soon"}))
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("sets unset variables", func(t *testing.T) {
		path := writeFile(t, ".env", "INBOXPOST_TEST_ENV_FILE=from-file\n")
		t.Setenv("INBOXPOST_TEST_ENV_FILE", "")
		require.NoError(t, os.Unsetenv("INBOXPOST_TEST_ENV_FILE"))

		require.NoError(t, LoadEnvFile(path))
		assert.Equal(t, "from-file", os.Getenv("INBOXPOST_TEST_ENV_FILE"))
	})

	t.Run("does not override", func(t *testing.T) {
		path := writeFile(t, ".env", "INBOXPOST_TEST_ENV_KEEP=from-file\n")
		t.Setenv("INBOXPOST_TEST_ENV_KEEP", "from-process")

		require.NoError(t, LoadEnvFile(path))
		assert.Equal(t, "from-process", os.Getenv("INBOXPOST_TEST_ENV_KEEP"))
	})

	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("empty path", func(t *testing.T) {
		assert.NoError(t, LoadEnvFile(""))
	})
}

func TestValidate(t *testing.T) {
	t.Run("missing inbox", func(t *testing.T) {
		c := Default()
		c.Inbox.URL = ""
		assert.ErrorIs(t, c.Validate(), ErrInvalid)
	})

	t.Run("relative key id", func(t *testing.T) {
		c := Default()
		c.Actor.KeyID = "/actor#main-key"
		assert.ErrorIs(t, c.Validate(), ErrInvalid)
	})

	t.Run("missing private key", func(t *testing.T) {
		c := Default()
		c.Actor.PrivateKey = ""
		assert.ErrorIs(t, c.Validate(), ErrInvalid)
	})

	t.Run("unknown digest", func(t *testing.T) {
		c := Default()
		c.Delivery.Digest = "MD5"
		assert.ErrorIs(t, c.Validate(), ErrInvalid)
	})

	t.Run("negative timeout", func(t *testing.T) {
		c := Default()
		c.Delivery.Timeout = -time.Second
		assert.ErrorIs(t, c.Validate(), ErrInvalid)
	})
}

func TestDeliverConfig(t *testing.T) {
	c := Default()
	c.Inbox.Host = "mastodon.social"
	c.Delivery.Digest = "SHA-256"
	c.Delivery.Timeout = time.Minute

	dc := c.DeliverConfig()

	assert.Equal(t, DefaultInboxURL, dc.InboxURL)
	assert.Equal(t, "mastodon.social", dc.Host)
	assert.Equal(t, DefaultKeyID, dc.KeyID)
	assert.Equal(t, DefaultPrivateKey, dc.PrivateKeyPath)
	assert.Equal(t, httpsig.DigestSHA256, dc.DigestAlgorithm)
	assert.Equal(t, time.Minute, dc.Timeout)
}
