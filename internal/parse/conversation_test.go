package parse

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
	}{
		{`{"role":"user","content":"hi"}`, true},
		{`  {"a":1}  `, true},
		{`[1,2,3]`, true},
		{`"plain string"`, true},
		{`{"role":`, false},
		{`not json`, false},
		{``, false},
		{`null`, false},
	}
	for _, tt := range tests {
		_, ok := ParseMessage([]byte(tt.line))
		if ok != tt.ok {
			t.Errorf("ParseMessage(%q) ok = %v, want %v", tt.line, ok, tt.ok)
		}
	}
}

func TestParseMessage_CopiesInput(t *testing.T) {
	buf := []byte(`{"a":1}`)
	msg, ok := ParseMessage(buf)
	if !ok {
		t.Fatal("expected ok")
	}
	buf[1] = 'X'
	if string(msg) != `{"a":1}` {
		t.Errorf("message aliases input buffer: %s", msg)
	}
}

func TestView(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want MessageView
	}{
		{
			name: "flat string content",
			msg:  `{"role":"user","content":" hello ","timestamp":"2024-01-01T00:00:00Z"}`,
			want: MessageView{Role: "user", Timestamp: "2024-01-01T00:00:00Z", Text: "hello"},
		},
		{
			name: "claude record with blocks",
			msg: `{"type":"assistant","timestamp":"t1","message":{"role":"assistant","content":[` +
				`{"type":"thinking","thinking":"hmm"},{"type":"text","text":"a"},{"type":"tool_use"},{"type":"text","text":"b"}]}}`,
			want: MessageView{Role: "assistant", Timestamp: "t1", Text: "a\nb", Thinking: "hmm"},
		},
		{
			name: "text field and ts",
			msg:  `{"type":"note","ts":"t2","text":"remember"}`,
			want: MessageView{Role: "note", Timestamp: "t2", Text: "remember"},
		},
		{
			name: "message as string",
			msg:  `{"role":"system","message":"booted"}`,
			want: MessageView{Role: "system", Text: "booted"},
		},
		{
			name: "not an object",
			msg:  `[1,2]`,
			want: MessageView{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := View(Message(tt.msg))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("View() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadLinesAndLastLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.log")
	if err := os.WriteFile(path, []byte("one\r\n\ntwo\nthree\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines() error: %v", err)
	}
	if want := []string{"one", "two", "three"}; !reflect.DeepEqual(lines, want) {
		t.Errorf("ReadLines() = %v, want %v", lines, want)
	}

	last, err := LastLine(path)
	if err != nil {
		t.Fatalf("LastLine() error: %v", err)
	}
	if last != "three" {
		t.Errorf("LastLine() = %q, want three", last)
	}
}

func TestReadLines_LongLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.jsonl")
	long := `{"text":"` + strings.Repeat("x", 11*1024*1024) + `"}`
	if err := os.WriteFile(path, []byte(`{"n":1}`+"\n"+long+"\n"+`{"n":2}`), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines() error: %v", err)
	}
	if len(lines) != 3 || lines[0] != `{"n":1}` || len(lines[1]) != len(long) || lines[2] != `{"n":2}` {
		t.Fatalf("ReadLines() returned %d lines", len(lines))
	}

	last, err := LastLine(path)
	if err != nil || last != `{"n":2}` {
		t.Errorf("LastLine() = %.20q, %v", last, err)
	}
}

func TestLastLine_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	last, err := LastLine(path)
	if err != nil || last != "" {
		t.Errorf("LastLine() = %q, %v; want empty, nil", last, err)
	}
}

func TestReadLines_Missing(t *testing.T) {
	if _, err := ReadLines(filepath.Join(t.TempDir(), "nope")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	if ParseTimestamp("2024-01-01T00:00:01Z").IsZero() {
		t.Error("RFC3339 not parsed")
	}
	if ParseTimestamp("2024-01-01T00:00:01.123456Z").IsZero() {
		t.Error("RFC3339Nano not parsed")
	}
	if ParseTimestamp("2024-01-01T00:00:01").IsZero() {
		t.Error("zone-less not parsed")
	}
	if !ParseTimestamp("yesterday").IsZero() {
		t.Error("garbage should be zero")
	}
}
