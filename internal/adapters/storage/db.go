package storage

import (
	"database/sql"
	"fmt"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables and indexes exist, WAL mode and foreign keys enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Weeks and results carry no foreign keys to template: template deletion
	// cascades in application code, step by step.
	schema := `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS profile (
		uid TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		subscription_kind TEXT NOT NULL DEFAULT '',
		subscription_value TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profile_role ON profile(role);

	CREATE TABLE IF NOT EXISTS template (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_template_created ON template(created_at);

	CREATE TABLE IF NOT EXISTS template_day (
		id TEXT PRIMARY KEY,
		template_id TEXT NOT NULL,
		day_order INTEGER NOT NULL,
		workout TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_template_day_template ON template_day(template_id);

	CREATE TABLE IF NOT EXISTS week (
		id TEXT PRIMARY KEY,
		athlete_uid TEXT NOT NULL,
		template_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_week_athlete ON week(athlete_uid);
	CREATE INDEX IF NOT EXISTS idx_week_template ON week(template_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_week_athlete_template
		ON week(athlete_uid, template_id) WHERE template_id != '';

	CREATE TABLE IF NOT EXISTS result_entry (
		id TEXT PRIMARY KEY,
		athlete_uid TEXT NOT NULL,
		week_id TEXT NOT NULL,
		day_id TEXT NOT NULL,
		workout_id TEXT NOT NULL,
		week_title TEXT NOT NULL DEFAULT '',
		day_label TEXT NOT NULL DEFAULT '',
		workout_title TEXT NOT NULL DEFAULT '',
		value TEXT NOT NULL,
		coach_comment TEXT NOT NULL DEFAULT '',
		coach_comment_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_result_entry_scope
		ON result_entry(athlete_uid, week_id, day_id, workout_id);

	CREATE TABLE IF NOT EXISTS day_result (
		athlete_uid TEXT NOT NULL,
		week_id TEXT NOT NULL,
		day_id TEXT NOT NULL,
		result TEXT NOT NULL DEFAULT '',
		day_order INTEGER NOT NULL DEFAULT 0,
		coach_comment TEXT NOT NULL DEFAULT '',
		coach_comment_at TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (athlete_uid, week_id, day_id)
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
