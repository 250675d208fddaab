package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cutroom/internal/catalog"
	"cutroom/internal/config"
	"cutroom/internal/daemon"
	"cutroom/internal/logging"
	"cutroom/internal/pipeline"
	"cutroom/internal/testsupport"
)

func newDaemon(t *testing.T, cfg *config.Config, opts ...daemon.Option) *daemon.Daemon {
	t.Helper()
	p, err := pipeline.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("pipeline.Open: %v", err)
	}
	opts = append([]daemon.Option{daemon.WithSweepInterval(0)}, opts...)
	d, err := daemon.New(cfg, p, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	d := newDaemon(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.PID != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), status.PID)
	}
	if status.DBPath != cfg.DatabasePath() {
		t.Fatalf("unexpected db path %q", status.DBPath)
	}
	if len(status.Dependencies) == 0 {
		t.Fatal("expected dependency statuses")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
	if !status.StartedAt.IsZero() {
		t.Fatal("expected start time cleared after stop")
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	first := newDaemon(t, cfg)
	second := newDaemon(t, cfg)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		t.Fatal("expected second instance to be refused")
	}
	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
}

func TestDaemonStartRecoversInterruptedWork(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	d := newDaemon(t, cfg)
	store := d.Pipeline().Store()
	ctx := context.Background()

	video := testsupport.NewVideo(t, store, cfg, "clip.mp4", 10)
	if _, err := store.TransitionVideo(ctx, video.ID, catalog.VideoProcessing); err != nil {
		t.Fatalf("TransitionVideo: %v", err)
	}
	edit, err := store.CreateEdit(ctx, video.ID, catalog.EditTrim, catalog.EditParams{StartTime: 0, EndTime: 2})
	if err != nil {
		t.Fatalf("CreateEdit: %v", err)
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got, err := store.GetVideo(ctx, video.ID)
	if err != nil || got == nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if got.Status != catalog.VideoUploaded {
		t.Fatalf("expected uploaded after recovery, got %s", got.Status)
	}
	gotEdit, err := store.GetEdit(ctx, edit.ID)
	if err != nil || gotEdit == nil {
		t.Fatalf("GetEdit: %v", err)
	}
	if gotEdit.Status != catalog.EditFailed {
		t.Fatalf("expected failed edit after recovery, got %s", gotEdit.Status)
	}
}

func TestDaemonStartSweepsStaleTemp(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Cleanup.SweepOnStart = true
	d := newDaemon(t, cfg)

	stale := filepath.Join(cfg.TempDir(), "temp_1-deadbeef_clip.mp4")
	fresh := filepath.Join(cfg.TempDir(), "temp_2-cafebabe_clip.mp4")
	testsupport.WriteFile(t, stale, 16)
	testsupport.WriteFile(t, fresh, 16)
	old := time.Now().Add(-2 * cfg.TempMaxAge())
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale temp removed, stat err=%v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh temp kept: %v", err)
	}
}

func TestDaemonStartPrunesOldLogs(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Logging.RetentionDays = 1
	active := filepath.Join(cfg.Paths.LogDir, "cutroomd-active.log")
	d := newDaemon(t, cfg, daemon.WithLogPath(active))

	oldLog := filepath.Join(cfg.Paths.LogDir, "cutroomd-old.log")
	testsupport.WriteFile(t, oldLog, 8)
	testsupport.WriteFile(t, active, 8)
	old := time.Now().AddDate(0, 0, -3)
	for _, path := range []string{oldLog, active} {
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := os.Stat(oldLog); !os.IsNotExist(err) {
		t.Fatalf("expected old log pruned, stat err=%v", err)
	}
	if _, err := os.Stat(active); err != nil {
		t.Fatalf("expected active log kept: %v", err)
	}
}

func TestNewRequiresPipeline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemon.New(cfg, nil, logging.NewNop()); err == nil {
		t.Fatal("expected error without pipeline")
	}
}
