package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"cutroom/internal/artifact"
	"cutroom/internal/catalog"
	"cutroom/internal/logging"
	"cutroom/internal/notifications"
	"cutroom/internal/services"
)

// Render applies every completed edit of the video, oldest first, and makes
// the result the video's authoritative artifact. The previous artifact is left
// in place. On failure the video reverts to uploaded and the error is returned.
func (p *Pipeline) Render(ctx context.Context, videoID int64) (*catalog.Video, error) {
	ctx = withStage(services.WithVideoID(ctx, videoID), "render")
	logger := logging.WithContext(ctx, p.logger)

	if _, err := p.store.MustGetVideo(ctx, videoID); err != nil {
		return nil, err
	}

	release, err := p.locks.Lock(ctx, videoID)
	if err != nil {
		return nil, err
	}
	defer release()

	video, err := p.store.MustGetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	edits, err := p.store.EditsForVideo(ctx, videoID, catalog.EditCompleted)
	if err != nil {
		return nil, fmt.Errorf("load completed edits: %w", err)
	}
	if len(edits) == 0 {
		return nil, services.Wrap(services.ErrNoCompletedEdits, "pipeline", "render",
			fmt.Sprintf("video %d has no completed edits", videoID), nil)
	}
	steps := p.planRender(edits)

	finish := p.metrics.StartRender()
	defer p.flushMetrics(logger)

	video, err = p.store.TransitionVideo(ctx, videoID, catalog.VideoProcessing)
	if err != nil {
		finish(err, 0)
		return nil, err
	}

	source := video.Filepath
	final := p.paths.FinalOutput(source)
	started := time.Now()
	logger.Info("render started",
		logging.String(logging.FieldEventType, "render_start"),
		logging.Int("edits", len(steps)),
		logging.String("source", source),
		logging.String("output", final),
	)

	if err := p.chain.Run(ctx, source, final, steps); err != nil {
		p.failRender(ctx, logger, video, err)
		finish(err, 0)
		return nil, err
	}

	media := p.engine.Probe(ctx, final)
	rendered, err := p.store.MarkRendered(context.WithoutCancel(ctx), videoID, final, media.Size, media.Duration)
	if err != nil {
		_ = p.storage.Remove(final)
		p.failRender(ctx, logger, video, err)
		finish(err, 0)
		return nil, fmt.Errorf("persist render result: %w", err)
	}
	finish(nil, len(steps))

	logger.Info("render completed",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.Int("edits", len(steps)),
		logging.Duration("elapsed", time.Since(started)),
		logging.String("output", final),
		logging.Float64("duration_seconds", media.Duration),
		logging.Int64("size_bytes", media.Size),
	)
	p.publish(ctx, logger, notifications.EventRenderCompleted, notifications.Payload{
		"title":  rendered.Title,
		"edits":  len(steps),
		"output": filepath.Base(final),
	})
	return rendered, nil
}

// planRender orders edits by creation time, then id, and turns them into
// chain steps. The incoming order is not trusted.
func (p *Pipeline) planRender(edits []*catalog.Edit) []artifact.Step {
	ordered := make([]*catalog.Edit, len(edits))
	copy(ordered, edits)
	catalog.SortRenderOrder(ordered)

	steps := make([]artifact.Step, 0, len(ordered))
	for _, edit := range ordered {
		steps = append(steps, p.editStep(edit))
	}
	return steps
}

// failRender reverts the video to uploaded. It uses a non-cancelable context
// so an interrupted render does not leave the video processing.
func (p *Pipeline) failRender(ctx context.Context, logger *slog.Logger, video *catalog.Video, renderErr error) {
	persistCtx := context.WithoutCancel(ctx)
	if _, err := p.store.TransitionVideo(persistCtx, video.ID, catalog.VideoUploaded); err != nil {
		logger.Error("failed to revert video after render failure",
			logging.String(logging.FieldEventType, "render_revert_failed"),
			logging.String(logging.FieldErrorHint, "run cutroom recover"),
			logging.Error(err),
		)
	}
	logging.ErrorWithContext(logger, "render failed", "render_failure",
		logging.String("resolved_status", string(catalog.VideoUploaded)),
		logging.String("error_kind", services.Kind(renderErr)),
		logging.String(logging.FieldErrorHint, hintFor(renderErr)),
		logging.Error(renderErr),
	)
	p.publish(ctx, logger, notifications.EventRenderFailed, notifications.Payload{
		"title": video.Title,
		"error": services.Details(renderErr),
	})
}
