package renderlock

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cutroom/internal/services"
)

func shortCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}

func TestExclusiveLeaseBlocksOthers(t *testing.T) {
	l := New(t.TempDir())

	release, err := l.Lock(context.Background(), 1)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if _, err := l.Lock(shortCtx(t), 1); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("second exclusive lease should fail with conflict, got %v", err)
	}
	if _, err := l.RLock(shortCtx(t), 1); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("shared lease during render should fail, got %v", err)
	}

	release()
	release()

	again, err := l.Lock(shortCtx(t), 1)
	if err != nil {
		t.Fatalf("lease should be free after release: %v", err)
	}
	again()
}

func TestSharedLeasesCoexist(t *testing.T) {
	l := New(t.TempDir())

	first, err := l.RLock(context.Background(), 7)
	if err != nil {
		t.Fatalf("RLock: %v", err)
	}
	second, err := l.RLock(shortCtx(t), 7)
	if err != nil {
		t.Fatalf("second RLock: %v", err)
	}

	if _, err := l.Lock(shortCtx(t), 7); err == nil {
		t.Fatal("exclusive lease must wait for shared holders")
	}

	first()
	second()

	release, err := l.Lock(shortCtx(t), 7)
	if err != nil {
		t.Fatalf("exclusive lease after shared release: %v", err)
	}
	release()
}

func TestLeasesAreIndependentPerVideo(t *testing.T) {
	l := New(t.TempDir())

	a, err := l.Lock(context.Background(), 1)
	if err != nil {
		t.Fatalf("Lock 1: %v", err)
	}
	defer a()

	b, err := l.Lock(shortCtx(t), 2)
	if err != nil {
		t.Fatalf("Lock 2 should not wait on video 1: %v", err)
	}
	b()
}

func TestLeaseExcludesAcrossLockers(t *testing.T) {
	dir := t.TempDir()
	daemon := New(dir)
	cli := New(dir)

	release, err := daemon.Lock(context.Background(), 3)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := cli.Lock(shortCtx(t), 3); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("file lock should exclude a second locker, got %v", err)
	}
	release()

	got, err := cli.Lock(shortCtx(t), 3)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	got()
}

func TestWaitingLeaseAcquiresAfterRelease(t *testing.T) {
	l := New(t.TempDir())
	release, err := l.Lock(context.Background(), 5)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r, err := l.Lock(ctx, 5)
		if err == nil {
			r()
		}
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	release()

	if err := <-done; err != nil {
		t.Fatalf("waiting lease failed: %v", err)
	}
}

func TestPathUsesVideoID(t *testing.T) {
	l := New("/var/locks")
	if got, want := l.Path(42), filepath.Join("/var/locks", "video-42.lock"); got != want {
		t.Fatalf("Path = %q, want %q", got, want)
	}
}

func TestRefCountsDropToZero(t *testing.T) {
	l := New(t.TempDir())
	r1, _ := l.RLock(context.Background(), 9)
	r2, _ := l.RLock(context.Background(), 9)
	r1()
	r2()
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.videos) != 0 {
		t.Fatalf("expected no tracked videos, got %d", len(l.videos))
	}
}

func TestPendingExclusiveLeaseHoldsOffNewReaders(t *testing.T) {
	l := New(t.TempDir())
	reader, err := l.RLock(context.Background(), 4)
	if err != nil {
		t.Fatalf("RLock: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r, err := l.Lock(ctx, 4)
		if err == nil {
			r()
		}
		done <- err
	}()
	time.Sleep(100 * time.Millisecond)

	if _, err := l.RLock(shortCtx(t), 4); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("shared lease should queue behind a waiting render, got %v", err)
	}
	reader()

	if err := <-done; err != nil {
		t.Fatalf("exclusive lease starved: %v", err)
	}
}

func TestAbandonedWaitReleasesOnceGranted(t *testing.T) {
	l := New(t.TempDir())
	holder, err := l.Lock(context.Background(), 6)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := l.Lock(shortCtx(t), 6); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	holder()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	again, err := l.Lock(ctx, 6)
	if err != nil {
		t.Fatalf("abandoned wait kept the lease: %v", err)
	}
	again()
}

func TestTryLockDoesNotWait(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	shared, err := l.RLock(context.Background(), 8)
	if err != nil {
		t.Fatalf("RLock: %v", err)
	}
	if _, ok, err := l.TryLock(8); err != nil || ok {
		t.Fatalf("TryLock with shared holder: ok=%v err=%v", ok, err)
	}
	shared()

	other := New(dir)
	held, err := other.Lock(context.Background(), 8)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, ok, err := l.TryLock(8); err != nil || ok {
		t.Fatalf("TryLock with holder in another locker: ok=%v err=%v", ok, err)
	}
	held()

	release, ok, err := l.TryLock(8)
	if err != nil || !ok {
		t.Fatalf("TryLock on free lease: ok=%v err=%v", ok, err)
	}
	release()
}
