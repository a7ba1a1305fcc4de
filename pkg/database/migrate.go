package database

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS mosaic_cache (
	collection_id TEXT NOT NULL,
	origin        TEXT NOT NULL,
	variant       TEXT NOT NULL DEFAULT '',
	payload       BLOB NOT NULL,
	created_at    INTEGER NOT NULL,
	PRIMARY KEY (collection_id, origin, variant)
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
