package origin

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteMarker persists the origin slot in a single-row SQLite table so it
// survives process restarts the way the original marker survives page
// navigations.
type SQLiteMarker struct {
	db *sql.DB
}

const originSchema = `
CREATE TABLE IF NOT EXISTS origin_marker (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	view_id   TEXT NOT NULL,
	marked_at TIMESTAMP NOT NULL
);`

func NewSQLiteMarker(path string) (*SQLiteMarker, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open origin store %q: %w", path, err)
	}
	if _, err := db.Exec(originSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init origin store schema: %w", err)
	}
	return &SQLiteMarker{db: db}, nil
}

func (m *SQLiteMarker) MarkOrigin(viewID string) error {
	_, err := m.db.Exec(`
		INSERT INTO origin_marker (id, view_id, marked_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET view_id = excluded.view_id, marked_at = excluded.marked_at`,
		viewID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark origin %q: %w", viewID, err)
	}
	return nil
}

func (m *SQLiteMarker) GetOrigin() (string, error) {
	var viewID string
	err := m.db.QueryRow(`SELECT view_id FROM origin_marker WHERE id = 1`).Scan(&viewID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read origin marker: %w", err)
	}
	return viewID, nil
}

func (m *SQLiteMarker) ClearOrigin() error {
	if _, err := m.db.Exec(`DELETE FROM origin_marker WHERE id = 1`); err != nil {
		return fmt.Errorf("clear origin marker: %w", err)
	}
	return nil
}

func (m *SQLiteMarker) Close() error {
	return m.db.Close()
}
