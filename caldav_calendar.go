package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

// CalDAV has no extended-properties bag, so ownership and content hash travel
// as X- properties on the VEVENT.
const (
	icalPropAssignmentID = "X-EDUSYNC-ID"
	icalPropContentHash  = "X-EDUSYNC-HASH"
)

type CalDAVAdapter struct {
	client      *caldav.Client
	calendarURL *url.URL
	timezone    *time.Location
}

func NewCalDAVAdapter(ctx context.Context, serverURL, username, password, calendarURL string) (*CalDAVAdapter, error) {
	baseURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CalDAV server URL: %w", err)
	}
	calURL, err := url.Parse(calendarURL)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar URL: %w", err)
	}

	var httpClient webdav.HTTPClient = http.DefaultClient
	if username != "" && password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, username, password)
	}

	c, err := caldav.NewClient(httpClient, baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create CalDAV client: %w", err)
	}

	// Test connection
	if _, err := c.FindCalendars(ctx, ""); err != nil {
		return nil, transient(fmt.Errorf("failed to connect to CalDAV server: %w", err))
	}

	return &CalDAVAdapter{
		client:      c,
		calendarURL: calURL,
		timezone:    time.UTC,
	}, nil
}

func (c *CalDAVAdapter) ListSyncedEvents(ctx context.Context) ([]SyncedEvent, error) {
	// Deadlines live in a narrow window around now; a year each way is
	// plenty and keeps the REPORT cheap.
	now := time.Now()
	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: now.AddDate(-1, 0, 0),
				End:   now.AddDate(1, 0, 0),
			}},
		},
	}

	objects, err := c.client.QueryCalendar(ctx, c.calendarURL.Path, query)
	if err != nil {
		return nil, transient(fmt.Errorf("failed to list events: %w", err))
	}

	var result []SyncedEvent
	for _, obj := range objects {
		for _, comp := range obj.Data.Component.Children {
			if comp.Name != "VEVENT" {
				continue
			}
			externalID := getTextProp(comp.Props, icalPropAssignmentID)
			if externalID == "" {
				continue
			}
			start, _ := comp.Props.DateTime("DTSTART", c.timezone)
			result = append(result, SyncedEvent{
				EventID:        getTextProp(comp.Props, "UID"),
				ExternalID:     externalID,
				Title:          getTextProp(comp.Props, "SUMMARY"),
				StartAt:        start,
				LastSyncedHash: getTextProp(comp.Props, icalPropContentHash),
			})
		}
	}
	return result, nil
}

func (c *CalDAVAdapter) CreateEvent(ctx context.Context, a Assignment) (string, error) {
	// Deriving the UID from the assignment keeps creates idempotent: a
	// re-issued create overwrites the same object instead of duplicating it.
	eventUID := "edusync-" + a.ExternalID
	if err := c.putEvent(ctx, eventUID, a); err != nil {
		return "", err
	}
	return eventUID, nil
}

func (c *CalDAVAdapter) UpdateEvent(ctx context.Context, eventID string, a Assignment) error {
	return c.putEvent(ctx, eventID, a)
}

func (c *CalDAVAdapter) putEvent(ctx context.Context, eventUID string, a Assignment) error {
	icalEvent := ical.NewEvent()
	icalEvent.Component.Props.SetText("UID", eventUID)
	icalEvent.Component.Props.SetText("SUMMARY", a.Summary())
	if a.URL != "" {
		icalEvent.Component.Props.SetText("DESCRIPTION", "Assignment Link: "+a.URL)
	}
	icalEvent.Component.Props.SetDateTime("DTSTAMP", time.Now().UTC())
	icalEvent.Component.Props.SetDateTime("DTSTART", a.DueAt)
	icalEvent.Component.Props.SetDateTime("DTEND", a.DueAt)
	icalEvent.Component.Props.SetText("STATUS", "CONFIRMED")
	icalEvent.Component.Props.SetText(icalPropAssignmentID, a.ExternalID)
	icalEvent.Component.Props.SetText(icalPropContentHash, a.ContentHash())

	cal := ical.NewCalendar()
	cal.Component.Children = append(cal.Component.Children, icalEvent.Component)

	path := c.calendarURL.Path + "/" + eventUID + ".ics"
	if _, err := c.client.PutCalendarObject(ctx, path, cal); err != nil {
		return transient(fmt.Errorf("failed to put event: %w", err))
	}
	return nil
}

func (c *CalDAVAdapter) DeleteEvent(ctx context.Context, eventID string) error {
	path := c.calendarURL.Path + "/" + eventID + ".ics"
	if err := c.client.Client.RemoveAll(ctx, path); err != nil {
		return transient(fmt.Errorf("failed to delete event: %w", err))
	}
	return nil
}

// Helper function to get text property safely
func getTextProp(props ical.Props, name string) string {
	prop := props.Get(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}
