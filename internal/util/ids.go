package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewID returns a new public identifier for canonical entities, clusters,
// and gaps. Raw entity IDs come from the extraction collaborator and are
// never generated here.
func NewID() (string, error) {
	return gonanoid.New()
}

// MustNewID is NewID for call sites where ID generation cannot fail in
// practice (the default alphabet and crypto/rand source).
func MustNewID() string {
	return gonanoid.Must()
}
