package main

import (
	"context"
	"fmt"
)

// purgeSyncedEvents removes every event this system created on the user's
// calendar. Used when an account is deleted. Best effort: it keeps going past
// individual failures and reports how many events actually went away.
func purgeSyncedEvents(ctx context.Context, cal CalendarAdapter) (int, error) {
	events, err := cal.ListSyncedEvents(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing events for cleanup: %w", err)
	}

	deleted := 0
	var lastErr error
	for _, event := range events {
		if err := cal.DeleteEvent(ctx, event.EventID); err != nil {
			lastErr = err
			printVerbosely(2, "  ❗️ Failed to delete event %s: %v\n", event.EventID, err)
			continue
		}
		deleted++
		printVerbosely(2, "  🗑 Deleted event %s\n", event.EventID)
	}
	return deleted, lastErr
}
