package open

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFindLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(path, []byte("# Title\n\nSome Docker notes\nmore docker\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := FindLine(path, "docker")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("FindLine = %d, want 3", n)
	}

	n, err = FindLine(path, "absent")
	if err != nil || n != 0 {
		t.Errorf("FindLine(absent) = %d, %v", n, err)
	}
}

func TestEditorCommand(t *testing.T) {
	tests := []struct {
		editor string
		want   []string
	}{
		{"nvim", []string{"nvim", "+7", "/n.md"}},
		{"code", []string{"code", "--goto", "/n.md:7"}},
		{"less", []string{"less", "+7", "/n.md"}},
		{"nano", []string{"nano", "/n.md"}},
	}
	for _, tt := range tests {
		cmd := editorCommand(tt.editor, "/n.md", 7)
		if !reflect.DeepEqual(cmd.Args, tt.want) {
			t.Errorf("%s: args = %v, want %v", tt.editor, cmd.Args, tt.want)
		}
	}
}

func TestOpenNote_Missing(t *testing.T) {
	if err := OpenNote(filepath.Join(t.TempDir(), "none.md"), ""); err == nil {
		t.Error("expected error for missing file")
	}
}
