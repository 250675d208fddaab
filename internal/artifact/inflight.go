package artifact

import (
	"path/filepath"
	"sync"
)

// InFlight records intermediates a running chain still owns so a sweep in
// the same process leaves them alone. A nil *InFlight holds nothing.
type InFlight struct {
	mu    sync.Mutex
	paths map[string]int
}

// NewInFlight returns an empty registry.
func NewInFlight() *InFlight {
	return &InFlight{paths: make(map[string]int)}
}

// Hold marks path as owned until the returned release runs.
func (f *InFlight) Hold(path string) func() {
	if f == nil || path == "" {
		return func() {}
	}
	path = filepath.Clean(path)
	f.mu.Lock()
	f.paths[path]++
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.paths[path] <= 1 {
				delete(f.paths, path)
				return
			}
			f.paths[path]--
		})
	}
}

// Held reports whether a chain currently owns path.
func (f *InFlight) Held(path string) bool {
	if f == nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paths[filepath.Clean(path)] > 0
}
