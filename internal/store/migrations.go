package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
)

// Migration represents a single schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema: groups, members, tasks",
		SQL:         migration001SQL,
	},
	{
		Version:     2,
		Description: "add location column to tasks",
		SQL:         migration002SQL,
	},
	{
		Version:     3,
		Description: "add needs_reconcile flag to members",
		SQL:         migration003SQL,
	},
}

const migration001SQL = `
CREATE TABLE groups (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_by  TEXT NOT NULL,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);

CREATE TABLE members (
    id                TEXT PRIMARY KEY,
    group_id          TEXT NOT NULL REFERENCES groups(id),
    name              TEXT NOT NULL,
    email             TEXT NOT NULL,
    role              TEXT NOT NULL DEFAULT 'member',
    availability      INTEGER NOT NULL DEFAULT 100,
    outstanding_tasks INTEGER NOT NULL DEFAULT 0,
    added_at          DATETIME NOT NULL
);

CREATE UNIQUE INDEX idx_members_group_email ON members(group_id, email);

CREATE TABLE tasks (
    id             TEXT PRIMARY KEY,
    group_id       TEXT NOT NULL DEFAULT '',
    owner_email    TEXT NOT NULL DEFAULT '',
    title          TEXT NOT NULL,
    description    TEXT NOT NULL DEFAULT '',
    assignee_id    TEXT NOT NULL DEFAULT '',
    assignee_name  TEXT NOT NULL DEFAULT '',
    assignee_email TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL DEFAULT 'Open',
    priority       TEXT NOT NULL DEFAULT 'Medium',
    estimated_time TEXT NOT NULL DEFAULT '',
    start_time     DATETIME,
    end_time       DATETIME,
    all_day        INTEGER NOT NULL DEFAULT 0,
    created_by     TEXT NOT NULL DEFAULT '',
    created_at     DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL
);

CREATE INDEX idx_tasks_group ON tasks(group_id);
CREATE INDEX idx_tasks_assignee_status ON tasks(assignee_id, status);
CREATE INDEX idx_tasks_owner ON tasks(owner_email);
`

const migration002SQL = `
ALTER TABLE tasks ADD COLUMN location TEXT NOT NULL DEFAULT '';
`

const migration003SQL = `
ALTER TABLE members ADD COLUMN needs_reconcile INTEGER NOT NULL DEFAULT 0;
`

// Migrate runs all pending migrations inside transactions.
func Migrate(db *sql.DB) error {
	if db == nil {
		return errors.New("db is nil")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, applied_at DATETIME)`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	currentVersion, err := CurrentVersion(db)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(migration.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(`INSERT INTO schema_version (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)`, migration.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", migration.Version, err)
		}

		log.Printf("store: applied migration %d: %s", migration.Version, migration.Description)
		currentVersion = migration.Version
	}

	return nil
}

// CurrentVersion returns the current schema version (0 if no migrations applied).
func CurrentVersion(db *sql.DB) (int, error) {
	if db == nil {
		return 0, errors.New("db is nil")
	}

	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	var version int
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("query schema_version: %w", err)
	}
	return version, nil
}
