package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	TelegramToken      string `toml:"telegram_token"`
	GoogleClientID     string `toml:"google_client_id"`
	GoogleClientSecret string `toml:"google_client_secret"`
	DBPath             string `toml:"db_path"`
	// 32 bytes, base64. Quera session cookies are sealed with it before
	// hitting disk.
	EncryptionKey string `toml:"encryption_key"`

	SyncIntervalMinutes int `toml:"sync_interval_minutes"`
	CallTimeoutSeconds  int `toml:"call_timeout_seconds"`
	// Total attempts per remote call, so 3 means up to 2 retries.
	RetryAttempts    int `toml:"retry_attempts"`
	RetryBaseDelayMS int `toml:"retry_base_delay_ms"`
	// 0 disables deletion: events whose assignment vanished are kept.
	DeleteAfterMisses int    `toml:"delete_after_misses"`
	VerbosityLevel    int    `toml:"verbosity_level"`
	ListenAddr        string `toml:"listen_addr"`

	CalDAVs map[string]CalDAVConfig `toml:"caldav"`
}

type CalDAVConfig struct {
	Name      string `toml:"name"`
	ServerURL string `toml:"server_url"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

var configDir string
var verbosityLevel int

func readConfig(filename string) (*Config, error) {
	// Try first current dir, then `$HOME/.config/edusync/`
	data, err := os.ReadFile(filename)
	if err != nil {
		data, err = os.ReadFile(os.Getenv("HOME") + "/.config/edusync/" + filename)
		if err != nil {
			return nil, err
		}
		configDir = os.Getenv("HOME") + "/.config/edusync/"
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if config.TelegramToken == "" {
		config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if config.DBPath == "" {
		config.DBPath = ".edusync.db"
	}
	if config.SyncIntervalMinutes <= 0 {
		config.SyncIntervalMinutes = 180
	}
	if config.CallTimeoutSeconds <= 0 {
		config.CallTimeoutSeconds = 30
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	if config.RetryBaseDelayMS <= 0 {
		config.RetryBaseDelayMS = 500
	}
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}

	verbosityLevel = config.VerbosityLevel

	return &config, nil
}

func (c *Config) encryptionKey() (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption_key is not valid base64: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("encryption_key must decode to 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

func (c *Config) syncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMinutes) * time.Minute
}

func (c *Config) callTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

func (c *Config) retryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: c.RetryAttempts,
		BaseDelay:   time.Duration(c.RetryBaseDelayMS) * time.Millisecond,
	}
}

func printVerbosely(verbosity int, format string, a ...interface{}) {
	// Print only if verbosity is higher than verbosityLevel
	// verbosityLevel is set in the config file
	// 0 - no output, other than critical errors
	// 1 - sync starts and outcomes
	// 2 - per-event operations
	// 3 - report everything
	if verbosity <= verbosityLevel {
		fmt.Printf(format, a...)
	}
}
