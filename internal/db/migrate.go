package db

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. Statements are idempotent so the
// whole list runs on every open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id            TEXT PRIMARY KEY,
		kind          TEXT NOT NULL
		              CHECK(kind IN ('raw','translation','media')),
		experience_id TEXT NOT NULL,
		language_code TEXT NOT NULL DEFAULT '',
		data          TEXT NOT NULL DEFAULT '{}',
		fields        TEXT NOT NULL DEFAULT '{}',
		modified      INTEGER NOT NULL DEFAULT 0,
		status_code   TEXT NOT NULL DEFAULT '',
		flow_code     TEXT NOT NULL DEFAULT '',
		fetched_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		UNIQUE(kind, experience_id, language_code)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_documents_experience ON documents(experience_id)`,

	`CREATE TABLE IF NOT EXISTS journal_entries (
		id          TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		operation   TEXT NOT NULL
		            CHECK(operation IN ('save','publish','commit')),
		method      TEXT NOT NULL,
		target      TEXT NOT NULL,
		outcome     TEXT NOT NULL
		            CHECK(outcome IN ('ok','failed')),
		error       TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_journal_document ON journal_entries(document_id, created_at)`,
}
