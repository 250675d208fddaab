package access_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cutroom/internal/access"
	"cutroom/internal/catalog"
	"cutroom/internal/config"
	"cutroom/internal/daemon"
	"cutroom/internal/ipc"
	"cutroom/internal/logging"
	"cutroom/internal/pipeline"
	"cutroom/internal/services"
	"cutroom/internal/testsupport"
)

func openers(cfg *config.Config) (func() (*ipc.Client, error), func() (*pipeline.Pipeline, error), func(*pipeline.Pipeline) access.Access) {
	logger := logging.NewNop()
	dial := func() (*ipc.Client, error) { return ipc.Dial(cfg.Paths.SocketPath) }
	open := func() (*pipeline.Pipeline, error) { return pipeline.Open(cfg, logger) }
	wrap := func(p *pipeline.Pipeline) access.Access { return access.NewPipelineAccess(cfg, p, logger) }
	return dial, open, wrap
}

func exercise(t *testing.T, cfg *config.Config, acc access.Access) {
	t.Helper()
	ctx := context.Background()

	source := filepath.Join(testsupport.BaseDir(cfg), "incoming", "clip.mp4")
	testsupport.WriteFile(t, source, 2048)

	video, err := acc.ImportVideo(ctx, pipeline.ImportRequest{SourcePath: source})
	if err != nil {
		t.Fatalf("ImportVideo: %v", err)
	}
	edit, err := acc.SubmitEdit(ctx, video.ID, catalog.EditSubtitle, catalog.EditParams{StartTime: 0, EndTime: 2, Text: "hello"})
	if err != nil {
		t.Fatalf("SubmitEdit: %v", err)
	}
	if edit.Status != catalog.EditCompleted {
		t.Fatalf("expected completed edit, got %s", edit.Status)
	}
	rendered, err := acc.Render(ctx, video.ID)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rendered.Status != catalog.VideoReady {
		t.Fatalf("expected ready, got %s", rendered.Status)
	}
	videos, err := acc.ListVideos(ctx, []catalog.VideoStatus{catalog.VideoUploaded})
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(videos) != 0 {
		t.Fatalf("expected no uploaded videos, got %d", len(videos))
	}
	if _, err := acc.GetVideo(ctx, video.ID+100); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOpenWithFallbackUsesPipelineWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	session, err := access.OpenWithFallback(openers(cfg))
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	if session.Access.Remote() {
		t.Fatal("expected direct access without a daemon socket")
	}
	exercise(t, cfg, session.Access)

	status, err := session.Access.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Running {
		t.Fatal("expected offline status to report not running")
	}
	if status.Stats.Videos[catalog.VideoReady] != 1 {
		t.Fatalf("expected one ready video in stats, got %+v", status.Stats.Videos)
	}
}

func TestOpenWithFallbackPrefersDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	logger := logging.NewNop()
	p, err := pipeline.Open(cfg, logger)
	if err != nil {
		t.Fatalf("pipeline.Open: %v", err)
	}
	d, err := daemon.New(cfg, p, logger, daemon.WithSweepInterval(0))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	srv, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)
	time.Sleep(50 * time.Millisecond)

	session, err := access.OpenWithFallback(openers(cfg))
	if err != nil {
		t.Fatalf("OpenWithFallback: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	if !session.Access.Remote() {
		t.Fatal("expected daemon-backed access")
	}
	exercise(t, cfg, session.Access)

	status, err := session.Access.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
}

func TestOpenWithFallbackRequiresOpener(t *testing.T) {
	failDial := func() (*ipc.Client, error) { return nil, errors.New("no socket") }
	if _, err := access.OpenWithFallback(failDial, nil, nil); err == nil {
		t.Fatal("expected error without a pipeline opener")
	}
}
