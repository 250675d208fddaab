package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cutroom/internal/artifact"
	"cutroom/internal/catalog"
	"cutroom/internal/logging"
	"cutroom/internal/services"
)

// VideoDetail is a video with all of its edits in creation order.
type VideoDetail struct {
	Video *catalog.Video  `json:"video"`
	Edits []*catalog.Edit `json:"edits"`
}

// GetVideo returns the video and its edits.
func (p *Pipeline) GetVideo(ctx context.Context, videoID int64) (*VideoDetail, error) {
	video, err := p.store.MustGetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	edits, err := p.store.EditsForVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("load edits: %w", err)
	}
	return &VideoDetail{Video: video, Edits: edits}, nil
}

// ListVideos returns videos, newest first, optionally filtered by status.
func (p *Pipeline) ListVideos(ctx context.Context, statuses ...catalog.VideoStatus) ([]*catalog.Video, error) {
	return p.store.ListVideos(ctx, statuses...)
}

// ExportResult describes a completed export.
type ExportResult struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Bytes       int64  `json:"bytes"`
}

// Export copies the video's authoritative artifact to dest. A directory dest
// receives the artifact's base name. Videos that are not ready are refused
// unless allowOriginal is set; existing files are never overwritten.
func (p *Pipeline) Export(ctx context.Context, videoID int64, dest string, allowOriginal bool) (ExportResult, error) {
	ctx = withStage(services.WithVideoID(ctx, videoID), "export")
	logger := logging.WithContext(ctx, p.logger)

	dest = strings.TrimSpace(dest)
	if dest == "" {
		return ExportResult{}, services.Wrap(services.ErrValidation, "pipeline", "export", "destination is required", nil)
	}
	if _, err := p.store.MustGetVideo(ctx, videoID); err != nil {
		return ExportResult{}, err
	}

	release, err := p.locks.RLock(ctx, videoID)
	if err != nil {
		return ExportResult{}, err
	}
	defer release()

	video, err := p.store.MustGetVideo(ctx, videoID)
	if err != nil {
		return ExportResult{}, err
	}
	if video.Status != catalog.VideoReady && !allowOriginal {
		return ExportResult{}, services.Wrap(services.ErrConflict, "pipeline", "export",
			fmt.Sprintf("video %d is %s; render it first or export the original", videoID, video.Status), nil)
	}

	target, err := filepath.Abs(dest)
	if err != nil {
		return ExportResult{}, services.Wrap(services.ErrValidation, "pipeline", "export", "resolve destination", err)
	}
	if info, err := os.Stat(target); err == nil {
		if !info.IsDir() {
			return ExportResult{}, services.Wrap(services.ErrConflict, "pipeline", "export",
				fmt.Sprintf("destination %q already exists", target), nil)
		}
		target = filepath.Join(target, artifact.BaseName(video.Filepath))
		if exists, _ := p.storage.Exists(target); exists {
			return ExportResult{}, services.Wrap(services.ErrConflict, "pipeline", "export",
				fmt.Sprintf("destination %q already exists", target), nil)
		}
	}

	written, err := artifact.Copy(p.storage, video.Filepath, target)
	if err != nil {
		return ExportResult{}, err
	}
	logger.Info("video exported",
		logging.String(logging.FieldEventType, "video_exported"),
		logging.String("source", video.Filepath),
		logging.String("destination", target),
		logging.Int64("bytes", written),
	)
	return ExportResult{Source: video.Filepath, Destination: target, Bytes: written}, nil
}

// Recover resets work left in processing by an interrupted process: videos
// go back to uploaded and edits become failed. A video whose lease is still
// held belongs to a live render or edit and is skipped.
func (p *Pipeline) Recover(ctx context.Context) (catalog.RecoveryResult, error) {
	logger := logging.WithContext(withStage(ctx, "recover"), p.logger)
	var result catalog.RecoveryResult

	ids, err := p.store.StuckVideoIDs(ctx)
	if err != nil {
		return result, err
	}
	for _, id := range ids {
		reset, err := p.recoverVideo(ctx, id)
		if err != nil {
			return result, err
		}
		if reset == nil {
			result.Skipped = append(result.Skipped, id)
			logger.Info("recovery skipped busy video",
				logging.VideoID(id),
				logging.String(logging.FieldEventType, "recovery_skipped"),
			)
			continue
		}
		result.Videos += reset.Videos
		result.Edits += reset.Edits
	}

	if result.Videos > 0 || result.Edits > 0 {
		logging.WarnWithContext(logger, "reset interrupted work", "recovery_reset",
			logging.Int64("videos", result.Videos),
			logging.Int64("edits", result.Edits),
			logging.String(logging.FieldErrorHint, "re-submit failed edits and render again"),
			logging.String(logging.FieldImpact, "interrupted edits were marked failed"),
		)
	}
	return result, nil
}

// recoverVideo resets one video under its exclusive lease. It returns nil
// when the lease is busy.
func (p *Pipeline) recoverVideo(ctx context.Context, videoID int64) (*catalog.RecoveryResult, error) {
	release, ok, err := p.locks.TryLock(videoID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	defer release()

	reset, err := p.store.ResetVideoProcessing(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

// Sweep removes stale temp intermediates and subtitle files left by
// interrupted processes. Files a running render in this process still owns
// are kept regardless of age.
func (p *Pipeline) Sweep(ctx context.Context) artifact.SweepResult {
	logger := logging.WithContext(withStage(ctx, "sweep"), p.logger)
	maxAge := p.cfg.TempMaxAge()

	result := artifact.SweepStaleExcept(ctx, p.paths.Temp, maxAge, logger, p.chain.InFlight)
	srt := artifact.SweepStaleExcept(ctx, p.paths.Processed, maxAge, logger, p.chain.InFlight, "*.srt")
	result.Removed = append(result.Removed, srt.Removed...)
	result.Errors = append(result.Errors, srt.Errors...)

	p.metrics.AddSwept(len(result.Removed))
	p.flushMetrics(logger)
	return result
}

// Stats returns catalog counts and refreshes the video status gauge.
func (p *Pipeline) Stats(ctx context.Context) (catalog.Stats, error) {
	stats, err := p.store.Stats(ctx)
	if err != nil {
		return stats, err
	}
	counts := make(map[string]int, len(stats.Videos))
	for status, n := range stats.Videos {
		counts[string(status)] = n
	}
	p.metrics.SetVideoCounts(counts)
	return stats, nil
}
