package main

import (
	"context"
	"errors"
	"testing"
)

func TestPurgeSyncedEvents(t *testing.T) {
	cal := newFakeCalendar()
	ctx := context.Background()
	for _, id := range []string{"a1", "a2", "a3"} {
		if _, err := cal.CreateEvent(ctx, testAssignment(id, "HW "+id)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := purgeSyncedEvents(ctx, cal)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 deletions, got %d", n)
	}
	if events, _ := cal.ListSyncedEvents(ctx); len(events) != 0 {
		t.Errorf("events survived purge: %v", events)
	}
}

func TestPurgeSyncedEventsKeepsGoingPastFailures(t *testing.T) {
	cal := newFakeCalendar()
	ctx := context.Background()
	for _, id := range []string{"a1", "stuck", "a3"} {
		if _, err := cal.CreateEvent(ctx, testAssignment(id, "HW "+id)); err != nil {
			t.Fatal(err)
		}
	}
	cal.failNext("delete", "stuck", errors.New("locked"))

	n, err := purgeSyncedEvents(ctx, cal)
	if err == nil {
		t.Error("expected the failure to be reported")
	}
	if n != 2 {
		t.Errorf("expected 2 deletions despite one failure, got %d", n)
	}
}
