package osfilesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile_CreatesParentDirs(t *testing.T) {
	fs := New()

	path := filepath.Join(t.TempDir(), "preview", "frame-0001.png")
	if err := fs.WriteFile(path, []byte("png bytes")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "png bytes" {
		t.Errorf("read back %q", data)
	}
}

func TestMkdirAll(t *testing.T) {
	fs := New()

	path := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := fs.MkdirAll(path); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
}
