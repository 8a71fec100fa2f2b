package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Zuo-Peng/axel-dashboard/internal/index"
	"github.com/Zuo-Peng/axel-dashboard/internal/knowledge"
	"github.com/Zuo-Peng/axel-dashboard/internal/logstore"
	"github.com/Zuo-Peng/axel-dashboard/internal/notify"
	"github.com/Zuo-Peng/axel-dashboard/internal/scan"
	"github.com/Zuo-Peng/axel-dashboard/internal/status"
)

type fixture struct {
	dir          string
	activityFile string
	convDir      string
	memoryDir    string
	publicDir    string
}

// newTestServer wires a Server over a temp tree with an activity log, one
// conversation, one note, an inventory, one advisor and a static index page.
func newTestServer(t *testing.T, withIndex bool) (*Server, fixture) {
	t.Helper()
	dir := t.TempDir()
	fx := fixture{
		dir:          dir,
		activityFile: filepath.Join(dir, "logs", "activity.log"),
		convDir:      filepath.Join(dir, "logs", "conversations"),
		memoryDir:    filepath.Join(dir, "memory"),
		publicDir:    filepath.Join(dir, "public"),
	}
	writeFile(t, fx.activityFile, "2024-05-01T10:00:00Z|Read|ok\n2024-05-01T10:00:05Z|Bash|exit 0\n")
	writeFile(t, filepath.Join(fx.convDir, "2024-05-01.jsonl"), `{"role":"user","content":"hi"}`+"\nnot json\n")
	writeFile(t, filepath.Join(fx.convDir, "2024-05-02.jsonl"), `{"role":"user","content":"later"}`+"\n")
	writeFile(t, filepath.Join(fx.memoryDir, "solutions", "retry-backoff.md"), "# Retry\nuse exponential backoff\n")
	writeFile(t, filepath.Join(fx.memoryDir, "INVENTORY.md"), "# Inventory\n")
	writeFile(t, filepath.Join(dir, "advisors", "security.md"), "# Security\n")
	writeFile(t, filepath.Join(fx.publicDir, "index.html"), "<h1>dashboard</h1>")
	if err := os.MkdirAll(filepath.Join(fx.memoryDir, "solutions", "folder.md"), 0o755); err != nil {
		t.Fatal(err)
	}

	roots := scan.Roots{
		MemoryDir:     fx.memoryDir,
		Categories:    knowledge.Categories,
		AdvisorsDir:   filepath.Join(dir, "advisors"),
		InventoryFile: filepath.Join(fx.memoryDir, "INVENTORY.md"),
	}

	deps := Deps{
		Logs: logstore.New(logstore.Config{ActivityFile: fx.activityFile, ConversationDir: fx.convDir}),
		Knowledge: knowledge.New(knowledge.Config{
			MemoryDir:     fx.memoryDir,
			AdvisorsDir:   roots.AdvisorsDir,
			InventoryFile: roots.InventoryFile,
		}),
		Notifier: notify.New(notify.Config{ActivityFile: fx.activityFile, ConversationDir: fx.convDir}, zerolog.Nop()),
		Prober: &status.Prober{
			URL:     "http://localhost:8317/v1/models",
			Match:   "claude",
			Started: time.Now().Add(-time.Minute),
			Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return []byte(`{"data":[{"id":"claude-sonnet"}]}`), nil
			},
		},
		Roots:     roots,
		PublicDir: fx.publicDir,
		Logger:    zerolog.Nop(),
	}
	if withIndex {
		db, err := index.OpenDB(filepath.Join(dir, "notes.db"))
		if err != nil {
			t.Fatalf("OpenDB() error: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		deps.Index = db
	}
	return New(deps), fx
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

// --- JSON endpoints ---

func TestActivity_NewestFirst(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := get(t, s, "/api/activity")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var records []map[string]string
	decode(t, rec, &records)
	if len(records) != 2 || records[0]["tool"] != "Bash" || records[1]["tool"] != "Read" {
		t.Errorf("records = %v", records)
	}
}

func TestActivity_MissingLogIsEmptyArray(t *testing.T) {
	s, fx := newTestServer(t, false)
	os.Remove(fx.activityFile)
	rec := get(t, s, "/api/activity")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("got %d %q, want 200 []", rec.Code, rec.Body.String())
	}
}

func TestMemory_AllCategoriesPresent(t *testing.T) {
	s, _ := newTestServer(t, false)
	var memory map[string][]map[string]any
	decode(t, get(t, s, "/api/memory"), &memory)
	for _, c := range knowledge.Categories {
		if _, ok := memory[c]; !ok {
			t.Errorf("category %s missing", c)
		}
	}
	if len(memory["solutions"]) != 1 || memory["solutions"][0]["name"] != "retry-backoff" {
		t.Errorf("solutions = %v", memory["solutions"])
	}
}

func TestMemoryEntry(t *testing.T) {
	s, _ := newTestServer(t, false)

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/api/memory/solutions/retry-backoff", http.StatusOK, "# Retry"},
		{"/api/memory/secrets/retry-backoff", http.StatusBadRequest, "Invalid type"},
		{"/api/memory/errors/nope", http.StatusNotFound, "Not found"},
		{"/api/memory/solutions/..%2F..%2FINVENTORY", http.StatusNotFound, "Not found"},
		{"/api/memory/solutions/..%2F..%2Fretry-backoff", http.StatusOK, "# Retry"},
		{"/api/memory/solutions/%2Fetc%2Fretry-backoff", http.StatusOK, "# Retry"},
		{"/api/memory/solutions/folder", http.StatusNotFound, "Not found"},
	}
	for _, tt := range tests {
		rec := get(t, s, tt.path)
		if rec.Code != tt.wantCode {
			t.Errorf("%s: status = %d, want %d", tt.path, rec.Code, tt.wantCode)
		}
		if !strings.Contains(rec.Body.String(), tt.wantBody) {
			t.Errorf("%s: body = %q, want %q", tt.path, rec.Body.String(), tt.wantBody)
		}
	}

	rec := get(t, s, "/api/memory/solutions/retry-backoff")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q, want text/markdown", ct)
	}
}

func TestConversations(t *testing.T) {
	s, _ := newTestServer(t, false)

	var dates []map[string]string
	decode(t, get(t, s, "/api/conversations"), &dates)
	if len(dates) != 2 || dates[0]["date"] != "2024-05-02" || dates[0]["file"] != "2024-05-02.jsonl" {
		t.Errorf("dates = %v", dates)
	}

	var messages []map[string]any
	decode(t, get(t, s, "/api/conversations/2024-05-01"), &messages)
	if len(messages) != 1 || messages[0]["content"] != "hi" {
		t.Errorf("messages = %v", messages)
	}

	for _, path := range []string{"/api/conversations/..%2F2024-05-02", "/api/conversations/x%2F..%2F2024-05-02"} {
		var escaped []map[string]any
		decode(t, get(t, s, path), &escaped)
		if len(escaped) != 1 || escaped[0]["content"] != "later" {
			t.Errorf("%s: messages = %v, want the 2024-05-02 log", path, escaped)
		}
	}

	rec := get(t, s, "/api/conversations/1999-01-01")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("missing day: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestInventory(t *testing.T) {
	s, fx := newTestServer(t, false)
	rec := get(t, s, "/api/inventory")
	if rec.Code != http.StatusOK || rec.Body.String() != "# Inventory\n" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}

	os.Remove(filepath.Join(fx.memoryDir, "INVENTORY.md"))
	rec = get(t, s, "/api/inventory")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "No inventory") {
		t.Errorf("missing: got %d %q", rec.Code, rec.Body.String())
	}
}

func TestAdvisors(t *testing.T) {
	s, _ := newTestServer(t, false)
	var advisors []map[string]string
	decode(t, get(t, s, "/api/advisors"), &advisors)
	if len(advisors) != 1 || advisors[0]["name"] != "security" {
		t.Errorf("advisors = %v", advisors)
	}
}

func TestStatus(t *testing.T) {
	s, _ := newTestServer(t, false)
	var st map[string]any
	decode(t, get(t, s, "/api/status"), &st)
	if st["cliproxyapi"] != true {
		t.Errorf("cliproxyapi = %v, want true", st["cliproxyapi"])
	}
	if up, _ := st["uptime"].(float64); up < 60 {
		t.Errorf("uptime = %v, want >= 60", st["uptime"])
	}
	if _, ok := st["memory"].(map[string]any); !ok {
		t.Errorf("memory = %v", st["memory"])
	}
}

// --- search ---

func TestSearch(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/search?q=backoff")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%q", rec.Code, rec.Body.String())
	}
	var results []map[string]any
	decode(t, rec, &results)
	if len(results) != 1 || results[0]["name"] != "retry-backoff" || results[0]["category"] != "solutions" {
		t.Errorf("results = %v", results)
	}

	rec = get(t, s, "/api/search?q=backoff&category=errors")
	decode(t, rec, &results)
	if len(results) != 0 {
		t.Errorf("category filter: results = %v", results)
	}
}

func TestSearch_BadRequests(t *testing.T) {
	s, _ := newTestServer(t, true)
	for _, path := range []string{"/api/search", "/api/search?q=%20", "/api/search?q=x&limit=zero"} {
		if rec := get(t, s, path); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestSearch_DisabledWithoutIndex(t *testing.T) {
	s, _ := newTestServer(t, false)
	if rec := get(t, s, "/api/search?q=backoff"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// --- static ---

func TestStatic(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := get(t, s, "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "dashboard") {
		t.Errorf("index: got %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, s, "/missing.js"); rec.Code != http.StatusNotFound {
		t.Errorf("missing asset: status = %d, want 404", rec.Code)
	}
}

func TestStatic_NoPublicDir(t *testing.T) {
	s, _ := newTestServer(t, false)
	s.deps.PublicDir = ""
	if rec := get(t, s, "/"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// --- live channel ---

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

// appendUntilDone keeps appending line to path until done is closed, so a
// push arrives even if the first write lands before the watch is in place.
func appendUntilDone(t *testing.T, path, line string, done <-chan struct{}) {
	t.Helper()
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
			if err == nil {
				io.WriteString(f, line)
				f.Close()
			}
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()
}

func readPush(t *testing.T, conn *websocket.Conn) notify.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg notify.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read push: %v", err)
	}
	return msg
}

func TestLive_ActivityPush(t *testing.T) {
	s, fx := newTestServer(t, false)
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn := dial(t, ts, "/ws")
	done := make(chan struct{})
	defer close(done)
	appendUntilDone(t, fx.activityFile, "2024-05-01T10:01:00Z|Edit|saved\n", done)

	msg := readPush(t, conn)
	if msg.Type != notify.TypeActivity {
		t.Fatalf("type = %s, want activity", msg.Type)
	}
	data, _ := msg.Data.(map[string]any)
	if data["tool"] != "Edit" || data["result"] != "saved" {
		t.Errorf("data = %v", msg.Data)
	}
}

func TestLive_UpgradeOnAnyPath(t *testing.T) {
	s, fx := newTestServer(t, false)
	ts := httptest.NewServer(s)
	defer ts.Close()

	conn := dial(t, ts, "/some/page")
	done := make(chan struct{})
	defer close(done)
	appendUntilDone(t, filepath.Join(fx.convDir, "2024-05-02.jsonl"), `{"role":"assistant","content":"pong"}`+"\n", done)

	msg := readPush(t, conn)
	if msg.Type != notify.TypeConversation {
		t.Fatalf("type = %s, want conversation", msg.Type)
	}
	data, _ := msg.Data.(map[string]any)
	if data["content"] != "pong" {
		t.Errorf("data = %v", msg.Data)
	}
}
