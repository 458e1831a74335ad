package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edusync.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram_token = "123:abc"
google_client_id = "cid"
google_client_secret = "secret"
`)
	config, err := readConfig(path)
	if err != nil {
		t.Fatalf("readConfig: %v", err)
	}
	if config.SyncIntervalMinutes != 180 {
		t.Errorf("default interval: got %d", config.SyncIntervalMinutes)
	}
	if config.syncInterval() != 3*time.Hour {
		t.Errorf("syncInterval: got %v", config.syncInterval())
	}
	if config.RetryAttempts != 3 {
		t.Errorf("default attempts: got %d", config.RetryAttempts)
	}
	if config.DBPath != ".edusync.db" {
		t.Errorf("default db path: got %q", config.DBPath)
	}
	if config.ListenAddr != ":8080" {
		t.Errorf("default listen addr: got %q", config.ListenAddr)
	}
	if config.DeleteAfterMisses != 0 {
		t.Errorf("deletion must default to off, got %d", config.DeleteAfterMisses)
	}
}

func TestReadConfigCalDAVServers(t *testing.T) {
	path := writeConfig(t, `
telegram_token = "123:abc"

[caldav.fastmail]
name = "Fastmail"
server_url = "https://caldav.fastmail.com"
username = "me@example.com"
password = "app-password"
`)
	config, err := readConfig(path)
	if err != nil {
		t.Fatalf("readConfig: %v", err)
	}
	server, ok := config.CalDAVs["fastmail"]
	if !ok {
		t.Fatalf("caldav server not parsed: %+v", config.CalDAVs)
	}
	if server.ServerURL != "https://caldav.fastmail.com" || server.Username != "me@example.com" {
		t.Errorf("server fields: %+v", server)
	}
}

func TestEncryptionKeyValidation(t *testing.T) {
	config := &Config{EncryptionKey: "not base64!!"}
	if _, err := config.encryptionKey(); err == nil {
		t.Error("expected error for invalid base64")
	}

	config.EncryptionKey = "c2hvcnQ=" // "short"
	if _, err := config.encryptionKey(); err == nil {
		t.Error("expected error for wrong length")
	}

	config.EncryptionKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	key, err := config.encryptionKey()
	if err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
	if key == nil {
		t.Fatal("expected key")
	}
}
