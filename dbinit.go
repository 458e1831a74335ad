package main

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

func openDB(filename string) (*sql.DB, error) {
	// Try first the same dir, where the config file was found
	db, err := sql.Open("sqlite3", configDir+filename)
	if err != nil {
		// Try the current dir
		db, err = sql.Open("sqlite3", filename)
		if err != nil {
			return nil, err
		}
	}
	return db, nil
}

func dbInit(db *sql.DB) error {
	var dbVersion int
	err := db.QueryRow("SELECT version FROM db_version WHERE name='edusync'").Scan(&dbVersion)
	if err != nil {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS db_version (
			name TEXT PRIMARY KEY,
			version INTEGER
		)`)
		if err != nil {
			return fmt.Errorf("error creating db_version table: %w", err)
		}
		_, err = db.Exec(`INSERT INTO db_version (name, version) VALUES ('edusync', 0)`)
		if err != nil {
			return fmt.Errorf("error initializing db_version table: %w", err)
		}
		dbVersion = 0
	}

	if dbVersion == 0 {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			chat_id INTEGER,
			session_token TEXT DEFAULT '',
			calendar_token TEXT DEFAULT '',
			provider TEXT DEFAULT 'google',
			calendar_id TEXT DEFAULT 'primary',
			caldav_server TEXT DEFAULT '',
			auto_sync INTEGER DEFAULT 0,
			last_sync_at TEXT DEFAULT '',
			last_sync_status TEXT DEFAULT ''
		)`)
		if err != nil {
			return fmt.Errorf("error creating users table: %w", err)
		}

		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS event_absences (
			user_id INTEGER,
			external_id TEXT,
			misses INTEGER DEFAULT 0,
			PRIMARY KEY (user_id, external_id)
		)`)
		if err != nil {
			return fmt.Errorf("error creating event_absences table: %w", err)
		}

		dbVersion = 1
		_, err = db.Exec(`UPDATE db_version SET version = 1 WHERE name = 'edusync'`)
		if err != nil {
			return fmt.Errorf("error updating db_version table: %w", err)
		}
	}

	return nil
}
