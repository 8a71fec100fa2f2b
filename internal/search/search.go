package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/axel-dashboard/internal/index"
)

type Result struct {
	NoteKey  string  `json:"key"`
	Category string  `json:"category"`
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Modified string  `json:"modified"`
	Snippet  string  `json:"snippet"`
	Rank     float64 `json:"rank"`
}

type Options struct {
	Query    string
	Category string // "" = all
	Limit    int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 {
		// no match, return head
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qRunes := []rune(query)
	runePos := len([]rune(text[:idx]))
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + len(qRunes) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

// Search runs a full-text query over the indexed notes, best match first.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if strings.TrimSpace(opts.Query) == "" {
		return nil, nil
	}
	if containsCJK(opts.Query) {
		return searchLike(db, opts)
	}
	return searchFTS(db, opts)
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"notes_fts MATCH ?"}
	args := []interface{}{opts.Query}

	if opts.Category != "" {
		conditions = append(conditions, "n.category = ?")
		args = append(args, opts.Category)
	}

	query := fmt.Sprintf(`
		SELECT
			n.note_key,
			n.category,
			n.name,
			n.file_path,
			n.modified,
			snippet(notes_fts, 1, '>>>', '<<<', '...', 16) AS snip,
			bm25(notes_fts, 5.0, 1.0) AS rank
		FROM notes_fts
		JOIN notes n ON notes_fts.rowid = n.rowid
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"(n.body LIKE ? OR n.name LIKE ?)"}
	pattern := "%" + opts.Query + "%"
	args := []interface{}{pattern, pattern}

	if opts.Category != "" {
		conditions = append(conditions, "n.category = ?")
		args = append(args, opts.Category)
	}

	query := fmt.Sprintf(`
		SELECT n.note_key, n.category, n.name, n.file_path, n.modified, n.body
		FROM notes n
		WHERE %s
		ORDER BY n.mtime DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var body string
		if err := rows.Scan(&r.NoteKey, &r.Category, &r.Name, &r.Path, &r.Modified, &body); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(body, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListAll returns indexed notes, most recently modified first.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 200
	}

	var conditions []string
	var args []interface{}
	if opts.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, opts.Category)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT note_key, category, name, file_path, modified, substr(body, 1, 120)
		FROM notes
		%s
		ORDER BY mtime DESC, note_key
		LIMIT ?
	`, where)
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.NoteKey, &r.Category, &r.Name, &r.Path, &r.Modified, &r.Snippet); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.NoteKey, &r.Category, &r.Name,
			&r.Path, &r.Modified,
			&r.Snippet, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
