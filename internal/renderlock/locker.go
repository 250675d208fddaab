package renderlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"cutroom/internal/services"
)

const retryDelay = 50 * time.Millisecond

// Locker hands out per-video leases rooted at a lock directory.
type Locker struct {
	dir string

	mu     sync.Mutex
	videos map[int64]*videoLock
}

type videoLock struct {
	rw   sync.RWMutex
	refs int
}

// Release returns a held lease. It is safe to call more than once.
type Release func()

// New returns a Locker that keeps lock files in dir.
func New(dir string) *Locker {
	return &Locker{dir: dir, videos: make(map[int64]*videoLock)}
}

// Path returns the lock file used for videoID.
func (l *Locker) Path(videoID int64) string {
	return filepath.Join(l.dir, fmt.Sprintf("video-%d.lock", videoID))
}

// Lock acquires the exclusive lease for videoID, waiting until ctx is done.
func (l *Locker) Lock(ctx context.Context, videoID int64) (Release, error) {
	return l.acquire(ctx, videoID, true)
}

// RLock acquires a shared lease for videoID, waiting until ctx is done.
func (l *Locker) RLock(ctx context.Context, videoID int64) (Release, error) {
	return l.acquire(ctx, videoID, false)
}

// TryLock takes the exclusive lease for videoID only if it is free right
// now. ok is false when another render or edit holds it.
func (l *Locker) TryLock(videoID int64) (release Release, ok bool, err error) {
	entry := l.ref(videoID)
	if !entry.rw.TryLock() {
		l.unref(videoID)
		return nil, false, nil
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		entry.rw.Unlock()
		l.unref(videoID)
		return nil, false, services.Wrap(services.ErrConfiguration, "renderlock", "lock", "create lock directory", err)
	}
	file := flock.New(l.Path(videoID))
	locked, err := file.TryLock()
	if err != nil || !locked {
		entry.rw.Unlock()
		l.unref(videoID)
		if err != nil {
			return nil, false, busyError(videoID, err)
		}
		return nil, false, nil
	}
	return l.releaser(videoID, file, entry.rw.Unlock), true, nil
}

func (l *Locker) acquire(ctx context.Context, videoID int64, exclusive bool) (Release, error) {
	entry := l.ref(videoID)

	tryLocal, lockLocal, unlockLocal := entry.rw.TryRLock, entry.rw.RLock, entry.rw.RUnlock
	if exclusive {
		tryLocal, lockLocal, unlockLocal = entry.rw.TryLock, entry.rw.Lock, entry.rw.Unlock
	}
	if !tryLocal() {
		abandon := func() {
			unlockLocal()
			l.unref(videoID)
		}
		if err := waitLocal(ctx, lockLocal, abandon); err != nil {
			return nil, busyError(videoID, err)
		}
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		unlockLocal()
		l.unref(videoID)
		return nil, services.Wrap(services.ErrConfiguration, "renderlock", "lock", "create lock directory", err)
	}
	file := flock.New(l.Path(videoID))
	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = file.TryLockContext(ctx, retryDelay)
	} else {
		ok, err = file.TryRLockContext(ctx, retryDelay)
	}
	if err != nil || !ok {
		unlockLocal()
		l.unref(videoID)
		if err == nil {
			err = ctx.Err()
		}
		return nil, busyError(videoID, err)
	}
	return l.releaser(videoID, file, unlockLocal), nil
}

func (l *Locker) releaser(videoID int64, file *flock.Flock, unlockLocal func()) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			_ = file.Unlock()
			unlockLocal()
			l.unref(videoID)
		})
	}
}

func (l *Locker) ref(videoID int64) *videoLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.videos[videoID]
	if !ok {
		entry = &videoLock{}
		l.videos[videoID] = entry
	}
	entry.refs++
	return entry
}

func (l *Locker) unref(videoID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.videos[videoID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.videos, videoID)
	}
}

// waitLocal blocks on lock until it succeeds or ctx is done. A blocked
// sync.RWMutex writer holds off new readers, so exclusive waiters are not
// starved by a stream of shared leases. When ctx wins, the pending lock is
// handed to abandon once it is eventually granted.
func waitLocal(ctx context.Context, lock, abandon func()) error {
	granted := make(chan struct{})
	go func() {
		lock()
		close(granted)
	}()
	select {
	case <-granted:
		return nil
	case <-ctx.Done():
		go func() {
			<-granted
			abandon()
		}()
		return ctx.Err()
	}
}

func busyError(videoID int64, err error) error {
	return services.Wrap(services.ErrConflict, "renderlock", "lock",
		fmt.Sprintf("video %d is busy with another render or edit", videoID), err)
}
