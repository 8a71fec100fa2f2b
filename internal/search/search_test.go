package search

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/axel-dashboard/internal/index"
	"github.com/Zuo-Peng/axel-dashboard/internal/scan"
)

// newIndexedDB writes notes (category/name -> body) and indexes them.
func newIndexedDB(t *testing.T, notes map[string]string) *index.DB {
	t.Helper()
	dir := t.TempDir()
	mem := filepath.Join(dir, "memory")
	for key, body := range notes {
		path := filepath.Join(mem, key+".md")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	db, err := index.OpenDB(filepath.Join(dir, "notes.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := index.IndexAll(db, scan.Roots{
		MemoryDir:  mem,
		Categories: []string{"solutions", "errors", "patterns"},
	}); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestSearch_FTS(t *testing.T) {
	db := newIndexedDB(t, map[string]string{
		"solutions/docker-build": "Rebuild the docker image with --no-cache when layers are stale.",
		"errors/docker-oom":      "The docker daemon ran out of memory.",
		"patterns/retry":         "Retry with exponential backoff.",
	})

	results, err := Search(db, Options{Query: "docker"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2: %+v", len(results), results)
	}
	for _, r := range results {
		if !strings.Contains(r.Snippet, ">>>") {
			t.Errorf("snippet lacks highlight markers: %q", r.Snippet)
		}
		if r.Path == "" || r.Modified == "" {
			t.Errorf("incomplete result: %+v", r)
		}
	}

	results, err = Search(db, Options{Query: "docker", Category: "errors"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].NoteKey != "errors/docker-oom" {
		t.Errorf("category filter results = %+v", results)
	}
}

func TestSearch_NameMatch(t *testing.T) {
	db := newIndexedDB(t, map[string]string{
		"patterns/backoff": "wait and try again",
	})
	results, err := Search(db, Options{Query: "backoff"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("results = %+v, want note matched by name", results)
	}
}

func TestSearch_CJKFallsBackToLike(t *testing.T) {
	db := newIndexedDB(t, map[string]string{
		"solutions/cn": "修复构建失败的问题",
		"solutions/en": "fix the build",
	})
	results, err := Search(db, Options{Query: "构建"})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 || results[0].Name != "cn" {
		t.Fatalf("results = %+v", results)
	}
	if !strings.Contains(results[0].Snippet, ">>>构建<<<") {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	db := newIndexedDB(t, map[string]string{"patterns/x": "x"})
	results, err := Search(db, Options{Query: "  "})
	if err != nil || results != nil {
		t.Errorf("Search(empty) = %v, %v", results, err)
	}
}

func TestListAll(t *testing.T) {
	db := newIndexedDB(t, map[string]string{
		"solutions/a": "alpha",
		"errors/b":    "beta",
	})
	results, err := ListAll(db, Options{})
	if err != nil {
		t.Fatalf("ListAll() error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("ListAll() = %+v", results)
	}

	results, err = ListAll(db, Options{Category: "errors"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Snippet != "beta" {
		t.Errorf("ListAll(errors) = %+v", results)
	}
}

func TestMakeSnippet(t *testing.T) {
	got := makeSnippet("0123456789 needle 0123456789", "needle", 3)
	if got != "...89 >>>needle<<< 01..." {
		t.Errorf("makeSnippet = %q", got)
	}
	if got := makeSnippet("short", "zzz", 10); got != "short" {
		t.Errorf("makeSnippet no match = %q", got)
	}
}
