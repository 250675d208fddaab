package artifact

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	var s LocalStorage
	path := filepath.Join(dir, "nested", "file.bin")

	w, err := s.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := io.WriteString(w, "payload"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ok, err := s.Exists(path)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	moved := filepath.Join(dir, "other", "file.bin")
	if err := s.Move(path, moved); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if ok, _ := s.Exists(path); ok {
		t.Fatal("source should be gone after move")
	}

	r, err := s.Open(moved)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil || string(data) != "payload" {
		t.Fatalf("read back %q, %v", data, err)
	}

	if err := s.Remove(moved); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(moved); err != nil {
		t.Fatalf("Remove of missing file should succeed: %v", err)
	}
}

func TestCopyStreamsThroughStorage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	if err := os.WriteFile(src, []byte("frames"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "export", "out.mp4")

	n, err := Copy(LocalStorage{}, src, dst)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != int64(len("frames")) {
		t.Fatalf("copied %d bytes", n)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatal("Copy must leave the source in place")
	}
}

func TestCopyMissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.mp4")
	if _, err := Copy(LocalStorage{}, filepath.Join(dir, "missing"), dst); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatal("destination should not be created when source is missing")
	}
}
