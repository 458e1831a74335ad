package main

import (
	"context"
	"fmt"
)

// AdapterFactory builds the calendar adapter for a user. An interface so the
// scheduler can be driven against fakes in tests.
type AdapterFactory interface {
	AdapterFor(ctx context.Context, user *UserSyncState) (CalendarAdapter, error)
}

// CalendarFactory creates calendar adapters from a user's stored provider
// choice and credentials.
type CalendarFactory struct {
	config *Config
	store  *Store
}

func NewCalendarFactory(config *Config, store *Store) *CalendarFactory {
	return &CalendarFactory{
		config: config,
		store:  store,
	}
}

// AdapterFor implements AdapterFactory.
func (cf *CalendarFactory) AdapterFor(ctx context.Context, user *UserSyncState) (CalendarAdapter, error) {
	switch user.Provider {
	case "", "google":
		client, err := clientForUser(ctx, cf.store, user)
		if err != nil {
			return nil, err
		}
		return NewGoogleCalendarAdapter(ctx, client, user.CalendarID)

	case "caldav":
		server, ok := cf.config.CalDAVs[user.CalDAVServer]
		if !ok {
			return nil, fmt.Errorf("CalDAV server %q not found in configuration", user.CalDAVServer)
		}
		return NewCalDAVAdapter(ctx, server.ServerURL, server.Username, server.Password, user.CalendarID)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", user.Provider)
	}
}
