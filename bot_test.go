package main

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Channel posts arrive with no sender. The handler runs on its own goroutine,
// so it must drop them instead of dereferencing the missing user.
func TestHandleMessageIgnoresSenderlessMessages(t *testing.T) {
	b := &Bot{
		logger:  log.New(io.Discard, "", 0),
		pending: make(map[int64]int),
	}
	b.handleMessage(context.Background(), &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}})
}

func TestFormatReportAuthExpiredIsExplicit(t *testing.T) {
	msg := formatReport(&SyncReport{Status: StatusAuthExpired})
	if !strings.Contains(msg, "reconnect") {
		t.Errorf("auth-expired report must tell the user to reconnect, got %q", msg)
	}
	if strings.Contains(msg, "Summary") {
		t.Errorf("auth-expired report should not look like a normal summary")
	}
}

func TestFormatReportCounts(t *testing.T) {
	msg := formatReport(&SyncReport{
		Status:    StatusOK,
		Created:   2,
		Updated:   1,
		Unchanged: 5,
	})
	for _, want := range []string{"2 new", "1 assignments updated", "5 already up to date", "0 failed"} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "stale") {
		t.Errorf("no deletions happened, report should not mention them:\n%s", msg)
	}
}

func TestFormatReportPartialFailureWarns(t *testing.T) {
	msg := formatReport(&SyncReport{Status: StatusCalendarError, Created: 1, Failed: 2})
	if !strings.Contains(msg, "⚠️") {
		t.Errorf("partial failure should warn, got %q", msg)
	}
}
