package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Assignment is one deadline as reported by the remote source. It is an
// immutable snapshot; ExternalID is the only identity the system relies on.
type Assignment struct {
	ExternalID string
	Title      string
	Course     string
	URL        string
	DueAt      time.Time // zero means no deadline published
}

// ContentHash digests the fields that determine what the calendar event
// should look like. Two assignments with equal hashes need no update.
func (a Assignment) ContentHash() string {
	h := sha256.New()
	h.Write([]byte(a.Title))
	h.Write([]byte{0})
	h.Write([]byte(a.DueAt.UTC().Format(time.RFC3339)))
	h.Write([]byte{0})
	h.Write([]byte(a.Course))
	h.Write([]byte{0})
	h.Write([]byte(a.URL))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Valid reports whether the record carries enough to be synced. Records
// without a stable ID cannot be reconciled; records without a deadline have
// nothing to put on a calendar.
func (a Assignment) Valid() bool {
	return a.ExternalID != "" && !a.DueAt.IsZero()
}

// Summary is the event title put on the calendar.
func (a Assignment) Summary() string {
	if a.Course == "" {
		return a.Title
	}
	return a.Title + " | " + a.Course
}

type AssignmentSource interface {
	// FetchAssignments returns the current upcoming deadlines for the account
	// behind sessionToken. Returns an error wrapping ErrAuthExpired when the
	// token is no longer accepted, a TransientError for network and server
	// trouble.
	FetchAssignments(ctx context.Context, sessionToken string) ([]Assignment, error)
}
