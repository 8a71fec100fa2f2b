package index

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Zuo-Peng/axel-dashboard/internal/scan"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors)
}

// NoteKey identifies a note across re-indexes.
func NoteKey(category, name string) string {
	return category + "/" + name
}

// IndexAll brings the index in line with the notes on disk: changed notes
// are re-read, unchanged ones skipped and vanished ones pruned.
func IndexAll(db *DB, roots scan.Roots) (Stats, error) {
	db.indexMu.Lock()
	defer db.indexMu.Unlock()

	var stats Stats

	files, err := scan.ScanNotes(roots)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	// track which notes we see, for pruning
	seenKeys := make(map[string]struct{})

	for _, fi := range files {
		key := NoteKey(fi.Category, fi.Name)
		seenKeys[key] = struct{}{}

		needs, err := needsUpdate(db, key, fi.Mtime, fi.Size)
		if err != nil {
			stats.Errors++
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}

		if err := indexNote(db, key, fi); err != nil {
			stats.Errors++
			log.Warn().Err(err).Str("file", fi.Path).Msg("index note")
			continue
		}
		stats.Updated++
	}

	// prune notes whose files no longer exist
	pruned, err := pruneNotes(db, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

func needsUpdate(db *DB, noteKey string, mtime, size int64) (bool, error) {
	info, err := db.GetNoteInfo(noteKey)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new note
	}
	return info.Mtime != mtime || info.Size != size, nil
}

func indexNote(db *DB, key string, fi scan.FileInfo) error {
	body, err := os.ReadFile(fi.Path)
	if err != nil {
		return err
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// delete old row first so the FTS delete trigger sees the old body
	if _, err := tx.Exec("DELETE FROM notes WHERE note_key = ?", key); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO notes (note_key, category, name, file_path, modified, body, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key,
		fi.Category,
		fi.Name,
		fi.Path,
		time.Unix(fi.Mtime, 0).UTC().Format(time.RFC3339),
		string(body),
		fi.Mtime,
		fi.Size,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func pruneNotes(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllNoteKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteNote(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
