package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cutroom/internal/artifact"
	"cutroom/internal/catalog"
	"cutroom/internal/logging"
	"cutroom/internal/services"
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".m4v":  {},
	".mov":  {},
	".mkv":  {},
	".webm": {},
	".avi":  {},
}

// ImportRequest describes a file to bring into the catalog.
type ImportRequest struct {
	SourcePath  string `json:"source_path"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	// Move removes the source after it lands in the originals directory.
	Move bool `json:"move,omitempty"`
}

// ImportVideo stores a copy of the source under originals, probes it, and
// records an uploaded video. Probe failures fall back to unknown metadata.
func (p *Pipeline) ImportVideo(ctx context.Context, req ImportRequest) (*catalog.Video, error) {
	ctx = withStage(ctx, "import")
	logger := logging.WithContext(ctx, p.logger)

	source := strings.TrimSpace(req.SourcePath)
	if source == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "import", "source path is required", nil)
	}
	absPath, err := filepath.Abs(source)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "import", "resolve source path", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "pipeline", "import", absPath, nil)
		}
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "import", fmt.Sprintf("source path %q is a directory", absPath), nil)
	}
	ext := strings.ToLower(filepath.Ext(info.Name()))
	if _, ok := videoExtensions[ext]; !ok {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "import", fmt.Sprintf("unsupported file extension %q", ext), nil)
	}

	dest := p.paths.Original(info.Name())
	if req.Move {
		err = p.storage.Move(absPath, dest)
	} else {
		_, err = artifact.Copy(p.storage, absPath, dest)
	}
	if err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}

	media := p.engine.Probe(ctx, dest)
	size := media.Size
	if size <= 0 {
		size = info.Size()
	}

	video, err := p.store.NewVideo(ctx, catalog.NewVideo{
		Title:       req.Title,
		Description: req.Description,
		Filename:    info.Name(),
		Filepath:    dest,
		Filesize:    size,
		Duration:    media.Duration,
	})
	if err != nil {
		p.abandonImport(logger, absPath, dest, req.Move)
		return nil, err
	}

	logger.Info("video imported",
		logging.VideoID(video.ID),
		logging.String(logging.FieldEventType, "video_imported"),
		logging.String("source", absPath),
		logging.String("path", dest),
		logging.Float64("duration_seconds", media.Duration),
		logging.String("codec", media.Codec),
		logging.Bool("has_audio", media.HasAudio),
	)
	return video, nil
}

// abandonImport undoes the file placement when the catalog insert fails.
func (p *Pipeline) abandonImport(logger *slog.Logger, source, dest string, moved bool) {
	var err error
	if moved {
		err = p.storage.Move(dest, source)
	} else {
		err = p.storage.Remove(dest)
	}
	if err != nil {
		logging.WarnWithContext(logger, "failed to undo import", "import_rollback_failed",
			logging.String("path", dest),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the file from data_dir/originals manually"),
			logging.String(logging.FieldImpact, "orphaned original on disk"),
		)
	}
}

func withStage(ctx context.Context, stage string) context.Context {
	return services.WithStage(ctx, stage)
}
