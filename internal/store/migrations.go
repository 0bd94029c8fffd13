package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "items: topics, thoughts, quotes and passages",
		SQL: `
CREATE TABLE items (
    id            TEXT PRIMARY KEY,
    kind          TEXT NOT NULL CHECK(kind IN ('Topic', 'Thought', 'Quote', 'Passage')),
    title         TEXT NOT NULL DEFAULT '',
    content       TEXT NOT NULL DEFAULT '',
    author        TEXT NOT NULL DEFAULT '',
    level         INTEGER NOT NULL DEFAULT 0 CHECK(level >= 0),
    parent_id     TEXT REFERENCES items(id) ON DELETE SET NULL,
    size          REAL CHECK(size IS NULL OR size > 0),
    created_at    INTEGER NOT NULL,
    last_modified INTEGER NOT NULL
);

CREATE INDEX idx_items_kind ON items(kind);
CREATE INDEX idx_items_parent ON items(parent_id);
CREATE INDEX idx_items_created ON items(created_at);
`,
	},
	{
		Version:     2,
		Description: "item_tags: free-form tags per item",
		SQL: `
CREATE TABLE item_tags (
    item_id TEXT NOT NULL,
    tag     TEXT NOT NULL,
    PRIMARY KEY (item_id, tag),
    FOREIGN KEY (item_id) REFERENCES items(id) ON DELETE CASCADE
);

CREATE INDEX idx_item_tags_tag ON item_tags(tag);
`,
	},
	{
		Version:     3,
		Description: "relations: weighted edges between items",
		SQL: `
CREATE TABLE relations (
    id        INTEGER PRIMARY KEY,
    source_id TEXT NOT NULL,
    target_id TEXT NOT NULL,
    kind      TEXT NOT NULL DEFAULT 'RELATES_TO',
    weight    REAL NOT NULL DEFAULT 1 CHECK(weight >= 0),
    UNIQUE(source_id, target_id, kind),
    CHECK(source_id != target_id),
    FOREIGN KEY (source_id) REFERENCES items(id) ON DELETE CASCADE,
    FOREIGN KEY (target_id) REFERENCES items(id) ON DELETE CASCADE
);

CREATE INDEX idx_relations_source ON relations(source_id);
CREATE INDEX idx_relations_target ON relations(target_id);
`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
