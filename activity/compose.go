package activity

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known ActivityStreams values.
const (
	ContextActivityStreams = "https://www.w3.org/ns/activitystreams"
	PublicCollection       = "https://www.w3.org/ns/activitystreams#Public"
)

// ErrNoActor is returned when NoteConfig has no actor URL.
var ErrNoActor = errors.New("activity: actor must not be empty")

// NoteConfig describes a Note to wrap in a Create activity.
type NoteConfig struct {
	// Actor is the URL of the sending actor. Required.
	Actor string

	// IDBase is the URL prefix for generated object IDs. Defaults to Actor.
	IDBase string

	// Content is the HTML body of the note.
	Content string

	// InReplyTo optionally names the object being replied to.
	InReplyTo string

	// To lists the primary audience. Defaults to the public collection.
	To []string

	// Cc lists the secondary audience.
	Cc []string

	// Published sets the publication time. When zero, time.Now() is used.
	Published time.Time
}

type note struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Published    string   `json:"published"`
	AttributedTo string   `json:"attributedTo"`
	InReplyTo    string   `json:"inReplyTo,omitempty"`
	Content      string   `json:"content"`
	To           []string `json:"to"`
	Cc           []string `json:"cc,omitempty"`
}

type create struct {
	Context string   `json:"@context"`
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Actor   string   `json:"actor"`
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Object  note     `json:"object"`
}

// NewCreateNote composes a Create activity wrapping a Note, ready to be
// delivered to an inbox. Object IDs are time-ordered UUIDs under IDBase:
//
//	<IDBase>/notes/<uuid>            the Note
//	<IDBase>/notes/<uuid>/activity   the Create
func NewCreateNote(cfg NoteConfig) (Document, error) {
	if cfg.Actor == "" {
		return nil, ErrNoActor
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	base := cfg.IDBase
	if base == "" {
		base = cfg.Actor
	}

	to := cfg.To
	if len(to) == 0 {
		to = []string{PublicCollection}
	}

	published := cfg.Published
	if published.IsZero() {
		published = time.Now()
	}

	noteID := strings.TrimSuffix(base, "/") + "/notes/" + id.String()

	doc := create{
		Context: ContextActivityStreams,
		ID:      noteID + "/activity",
		Type:    "Create",
		Actor:   cfg.Actor,
		To:      to,
		Cc:      cfg.Cc,
		Object: note{
			ID:           noteID,
			Type:         "Note",
			Published:    published.UTC().Format(time.RFC3339),
			AttributedTo: cfg.Actor,
			InReplyTo:    cfg.InReplyTo,
			Content:      cfg.Content,
			To:           to,
			Cc:           cfg.Cc,
		},
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return nil, err
	}

	return Document(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}
