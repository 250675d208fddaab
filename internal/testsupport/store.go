package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"cutroom/internal/catalog"
	"cutroom/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewVideo writes a small source file under the originals directory and
// records it as an uploaded video.
func NewVideo(t testing.TB, store *catalog.Store, cfg *config.Config, name string, duration float64) *catalog.Video {
	t.Helper()

	path := filepath.Join(cfg.OriginalsDir(), name)
	WriteFile(t, path, 1024)
	video, err := store.NewVideo(context.Background(), catalog.NewVideo{
		Title:    name,
		Filename: name,
		Filepath: path,
		Filesize: 1024,
		Duration: duration,
	})
	if err != nil {
		t.Fatalf("store.NewVideo: %v", err)
	}
	return video
}
