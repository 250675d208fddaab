package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cutroom/internal/fileutil"
)

// Storage is the path-addressed location for originals and artifacts.
type Storage interface {
	Create(path string) (io.WriteCloser, error)
	Open(path string) (io.ReadCloser, error)
	Move(src, dst string) error
	Remove(path string) error
	Exists(path string) (bool, error)
}

// LocalStorage stores artifacts on the local filesystem.
type LocalStorage struct{}

// Create opens path for writing, creating parent directories and truncating
// any existing file.
func (LocalStorage) Create(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create parent directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

// Open returns a read stream for path.
func (LocalStorage) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Move renames src to dst, copying across filesystems when needed.
func (LocalStorage) Move(src, dst string) error {
	return fileutil.MoveFile(src, dst)
}

// Remove deletes path. A missing file is not an error.
func (LocalStorage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether path is present.
func (LocalStorage) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Copy streams src to dst through storage. A partial dst is removed on failure.
func Copy(storage Storage, src, dst string) (int64, error) {
	in, err := storage.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := storage.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}
	written, err := io.Copy(out, in)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = storage.Remove(dst)
		return 0, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return written, nil
}
