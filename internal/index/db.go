package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -16000;

CREATE TABLE IF NOT EXISTS notes (
    note_key  TEXT PRIMARY KEY,
    category  TEXT NOT NULL,
    name      TEXT NOT NULL,
    file_path TEXT NOT NULL,
    modified  TEXT NOT NULL DEFAULT '',
    body      TEXT NOT NULL DEFAULT '',
    mtime     INTEGER NOT NULL DEFAULT 0,
    size      INTEGER NOT NULL DEFAULT 0
);

CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
    name,
    body,
    content=notes,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS notes_ai AFTER INSERT ON notes BEGIN
    INSERT INTO notes_fts(rowid, name, body) VALUES (new.rowid, new.name, new.body);
END;

CREATE TRIGGER IF NOT EXISTS notes_ad AFTER DELETE ON notes BEGIN
    INSERT INTO notes_fts(notes_fts, rowid, name, body) VALUES('delete', old.rowid, old.name, old.body);
END;

CREATE TRIGGER IF NOT EXISTS notes_au AFTER UPDATE ON notes BEGIN
    INSERT INTO notes_fts(notes_fts, rowid, name, body) VALUES('delete', old.rowid, old.name, old.body);
    INSERT INTO notes_fts(rowid, name, body) VALUES (new.rowid, new.name, new.body);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

type DB struct {
	db *sql.DB

	// serializes IndexAll; readers go straight to the pool
	indexMu sync.Mutex
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	d.migrateSchemaVersion()

	return d, nil
}

// schemaVersion should be bumped whenever note parsing changes
// to force a full re-index.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		// force re-index by resetting all note mtime/size to 0
		d.db.Exec("UPDATE notes SET mtime = 0, size = 0")
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type NoteInfo struct {
	Mtime int64
	Size  int64
}

func (d *DB) GetNoteInfo(noteKey string) (*NoteInfo, error) {
	var info NoteInfo
	err := d.db.QueryRow(
		"SELECT mtime, size FROM notes WHERE note_key = ?",
		noteKey,
	).Scan(&info.Mtime, &info.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) AllNoteKeys() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT note_key FROM notes")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteNote(noteKey string) error {
	_, err := d.db.Exec("DELETE FROM notes WHERE note_key = ?", noteKey)
	return err
}

func (d *DB) NoteCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&n)
	return n, err
}

// FTSCount returns the number of rows in the full-text table; it should
// equal NoteCount when the triggers are intact.
func (d *DB) FTSCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM notes_fts").Scan(&n)
	return n, err
}

type NoteRow struct {
	NoteKey  string
	Category string
	Name     string
	FilePath string
	Modified string
	Body     string
}

func (d *DB) GetNoteByKey(noteKey string) (*NoteRow, error) {
	var n NoteRow
	err := d.db.QueryRow(
		"SELECT note_key, category, name, file_path, modified, body FROM notes WHERE note_key = ?",
		noteKey,
	).Scan(&n.NoteKey, &n.Category, &n.Name, &n.FilePath, &n.Modified, &n.Body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}
