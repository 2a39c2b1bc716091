// Package activity loads and composes the ActivityPub documents that
// inboxpost delivers.
package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrRead is returned when a document file is missing or unreadable.
var ErrRead = errors.New("activity: cannot read document")

// Document is an ActivityPub payload held as opaque bytes. It is delivered
// exactly as loaded; nothing in this package re-encodes it.
type Document []byte

// Load reads the file at path fully into memory. The content is not
// validated as JSON.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	return Document(data), nil
}

// Type returns the top-level "type" member of the document, such as
// "Create" or "Follow". It returns an empty string when the document is
// not a JSON object or has no string type.
func (d Document) Type() string {
	var head struct {
		Type any `json:"type"`
	}

	if err := json.Unmarshal(d, &head); err != nil {
		return ""
	}

	if s, ok := head.Type.(string); ok {
		return s
	}

	return ""
}
