package main

import (
	"context"
	"time"
)

// CalendarAdapter is the capability the sync engine needs from a calendar
// backend. Implementations only ever see events created by this system:
// ListSyncedEvents filters on the ownership marker each implementation tags
// its events with, so unrelated events on the user's calendar are invisible
// and untouched.
type CalendarAdapter interface {
	ListSyncedEvents(ctx context.Context) ([]SyncedEvent, error)
	CreateEvent(ctx context.Context, a Assignment) (string, error)
	UpdateEvent(ctx context.Context, eventID string, a Assignment) error
	DeleteEvent(ctx context.Context, eventID string) error
}

// SyncedEvent is a calendar event previously created from an Assignment.
// ExternalID ties it back to the assignment; LastSyncedHash is the content
// hash recorded at the last write, used to detect no-op updates.
type SyncedEvent struct {
	EventID        string
	ExternalID     string
	Title          string
	StartAt        time.Time
	LastSyncedHash string
}
