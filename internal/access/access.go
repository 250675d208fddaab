package access

import (
	"context"
	"log/slog"

	"cutroom/internal/artifact"
	"cutroom/internal/catalog"
	"cutroom/internal/config"
	"cutroom/internal/daemon"
	"cutroom/internal/ipc"
	"cutroom/internal/pipeline"
)

// Access provides pipeline operations regardless of IPC or direct backing.
type Access interface {
	ImportVideo(ctx context.Context, req pipeline.ImportRequest) (*catalog.Video, error)
	SubmitEdit(ctx context.Context, videoID int64, kind catalog.EditType, params catalog.EditParams) (*catalog.Edit, error)
	Render(ctx context.Context, videoID int64) (*catalog.Video, error)
	GetVideo(ctx context.Context, videoID int64) (*pipeline.VideoDetail, error)
	ListVideos(ctx context.Context, statuses []catalog.VideoStatus) ([]*catalog.Video, error)
	Export(ctx context.Context, videoID int64, dest string, allowOriginal bool) (pipeline.ExportResult, error)
	Sweep(ctx context.Context) (artifact.SweepResult, error)
	Recover(ctx context.Context) (catalog.RecoveryResult, error)
	Status(ctx context.Context) (daemon.Status, error)
	// Remote reports whether calls go through a running daemon.
	Remote() bool
}

// NewIPCAccess returns an Access backed by daemon IPC.
func NewIPCAccess(client *ipc.Client) Access {
	return &ipcAccess{client: client}
}

// NewPipelineAccess returns an Access backed by an in-process pipeline.
func NewPipelineAccess(cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) Access {
	return &pipelineAccess{cfg: cfg, pipeline: p, logger: logger}
}

type ipcAccess struct {
	client *ipc.Client
}

func (a *ipcAccess) ImportVideo(ctx context.Context, req pipeline.ImportRequest) (*catalog.Video, error) {
	resp, err := a.client.ImportVideo(ctx, ipc.ImportVideoRequest{
		SourcePath:  req.SourcePath,
		Title:       req.Title,
		Description: req.Description,
		Move:        req.Move,
	})
	if err != nil {
		return nil, err
	}
	return resp.Video, nil
}

func (a *ipcAccess) SubmitEdit(ctx context.Context, videoID int64, kind catalog.EditType, params catalog.EditParams) (*catalog.Edit, error) {
	resp, err := a.client.SubmitEdit(ctx, ipc.SubmitEditRequest{VideoID: videoID, Type: string(kind), Params: params})
	if resp == nil {
		return nil, err
	}
	return resp.Edit, err
}

func (a *ipcAccess) Render(ctx context.Context, videoID int64) (*catalog.Video, error) {
	resp, err := a.client.Render(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return resp.Video, nil
}

func (a *ipcAccess) GetVideo(ctx context.Context, videoID int64) (*pipeline.VideoDetail, error) {
	resp, err := a.client.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return resp.Detail, nil
}

func (a *ipcAccess) ListVideos(ctx context.Context, statuses []catalog.VideoStatus) ([]*catalog.Video, error) {
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}
	resp, err := a.client.ListVideos(ctx, names)
	if err != nil {
		return nil, err
	}
	return resp.Videos, nil
}

func (a *ipcAccess) Export(ctx context.Context, videoID int64, dest string, allowOriginal bool) (pipeline.ExportResult, error) {
	resp, err := a.client.Export(ctx, ipc.ExportRequest{VideoID: videoID, Destination: dest, AllowOriginal: allowOriginal})
	if err != nil {
		return pipeline.ExportResult{}, err
	}
	return resp.Result, nil
}

func (a *ipcAccess) Sweep(ctx context.Context) (artifact.SweepResult, error) {
	resp, err := a.client.Sweep(ctx)
	if err != nil {
		return artifact.SweepResult{}, err
	}
	return resp.SweepResult(), nil
}

func (a *ipcAccess) Recover(ctx context.Context) (catalog.RecoveryResult, error) {
	resp, err := a.client.Recover(ctx)
	if err != nil {
		return catalog.RecoveryResult{}, err
	}
	return resp.Result, nil
}

func (a *ipcAccess) Status(ctx context.Context) (daemon.Status, error) {
	resp, err := a.client.Status(ctx)
	if err != nil {
		return daemon.Status{}, err
	}
	return resp.Status, nil
}

func (a *ipcAccess) Remote() bool { return true }

type pipelineAccess struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
}

func (a *pipelineAccess) ImportVideo(ctx context.Context, req pipeline.ImportRequest) (*catalog.Video, error) {
	return a.pipeline.ImportVideo(ctx, req)
}

func (a *pipelineAccess) SubmitEdit(ctx context.Context, videoID int64, kind catalog.EditType, params catalog.EditParams) (*catalog.Edit, error) {
	return a.pipeline.SubmitEdit(ctx, videoID, kind, params)
}

func (a *pipelineAccess) Render(ctx context.Context, videoID int64) (*catalog.Video, error) {
	return a.pipeline.Render(ctx, videoID)
}

func (a *pipelineAccess) GetVideo(ctx context.Context, videoID int64) (*pipeline.VideoDetail, error) {
	return a.pipeline.GetVideo(ctx, videoID)
}

func (a *pipelineAccess) ListVideos(ctx context.Context, statuses []catalog.VideoStatus) ([]*catalog.Video, error) {
	return a.pipeline.ListVideos(ctx, statuses...)
}

func (a *pipelineAccess) Export(ctx context.Context, videoID int64, dest string, allowOriginal bool) (pipeline.ExportResult, error) {
	return a.pipeline.Export(ctx, videoID, dest, allowOriginal)
}

func (a *pipelineAccess) Sweep(ctx context.Context) (artifact.SweepResult, error) {
	return a.pipeline.Sweep(ctx), nil
}

func (a *pipelineAccess) Recover(ctx context.Context) (catalog.RecoveryResult, error) {
	return a.pipeline.Recover(ctx)
}

// Status reports what an offline daemon would: Running is false and the
// lock path points at where a daemon would hold its lock.
func (a *pipelineAccess) Status(ctx context.Context) (daemon.Status, error) {
	d, err := daemon.New(a.cfg, a.pipeline, a.logger, daemon.WithSweepInterval(0))
	if err != nil {
		return daemon.Status{}, err
	}
	return d.Status(ctx), nil
}

func (a *pipelineAccess) Remote() bool { return false }
