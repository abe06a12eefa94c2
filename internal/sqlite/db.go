package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema.
func (db *DB) RunMigrations() error {
	migration := `
-- Tasks table
CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    size INTEGER NOT NULL DEFAULT 0,
    mode TEXT NOT NULL CHECK(mode IN ('annotation', 'interpolation')),
    overlap INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL
);

-- Label schema, ordered by position; attribute specs and keypoint metadata
-- are stored as JSON payloads since they are immutable per snapshot
CREATE TABLE IF NOT EXISTS labels (
    task_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    attributes TEXT NOT NULL DEFAULT '[]',
    keypoint_names TEXT,
    keypoint_skeleton TEXT,
    PRIMARY KEY (task_id, position),
    FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
);

-- Images table
CREATE TABLE IF NOT EXISTS images (
    task_id INTEGER NOT NULL,
    id INTEGER NOT NULL,
    name TEXT NOT NULL,
    subset TEXT NOT NULL DEFAULT '',
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    flipped INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (task_id, id),
    FOREIGN KEY (task_id) REFERENCES tasks(id) ON DELETE CASCADE
);

-- Annotations, ordered per image by position; geometry payloads are JSON
CREATE TABLE IF NOT EXISTS annotations (
    task_id INTEGER NOT NULL,
    image_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    source_id INTEGER NOT NULL DEFAULT 0,
    kind TEXT NOT NULL,
    label TEXT NOT NULL DEFAULT '',
    occluded INTEGER NOT NULL DEFAULT 0,
    z_order INTEGER,
    group_id INTEGER,
    attributes TEXT,
    points TEXT,
    visibility TEXT,
    mask_rle TEXT,
    caption TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (task_id, image_id, position),
    FOREIGN KEY (task_id, image_id) REFERENCES images(task_id, id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_task_images ON images(task_id);
CREATE INDEX IF NOT EXISTS idx_image_annotations ON annotations(task_id, image_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
