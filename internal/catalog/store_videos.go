package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cutroom/internal/services"
)

// NewVideo inserts an imported video in the uploaded state.
func (s *Store) NewVideo(ctx context.Context, input NewVideo) (*Video, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = strings.TrimSpace(input.Filename)
	}
	if title == "" || strings.TrimSpace(input.Filepath) == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "new video", "title and filepath are required", nil)
	}
	if input.Filesize < 0 || input.Duration < 0 {
		return nil, services.Wrap(services.ErrValidation, "catalog", "new video", "size and duration must be non-negative", nil)
	}

	timestamp := s.timestamp()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO videos (
            title, description, filename, filepath, filesize, duration, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		title,
		nullableString(strings.TrimSpace(input.Description)),
		input.Filename,
		input.Filepath,
		input.Filesize,
		input.Duration,
		VideoUploaded,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetVideo(ctx, id)
}

// GetVideo fetches a video by identifier. A missing video yields (nil, nil).
func (s *Store) GetVideo(ctx context.Context, id int64) (*Video, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// MustGetVideo fetches a video and reports services.ErrNotFound when absent.
func (s *Store) MustGetVideo(ctx context.Context, id int64) (*Video, error) {
	video, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "get video", fmt.Sprintf("video %d", id), nil)
	}
	return video, nil
}

// ListVideos returns videos newest first, optionally filtered by status.
func (s *Store) ListVideos(ctx context.Context, statuses ...VideoStatus) ([]*Video, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + videoColumns + ` FROM videos`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// TransitionVideo moves a video to target when its current state allows it.
// It reports services.ErrNotFound for a missing video and services.ErrConflict
// when the current state does not permit the transition.
func (s *Store) TransitionVideo(ctx context.Context, id int64, target VideoStatus) (*Video, error) {
	from := AllowedFrom(target)
	if len(from) == 0 {
		return nil, services.Wrap(services.ErrValidation, "catalog", "transition video", fmt.Sprintf("unknown status %q", target), nil)
	}

	args := make([]any, 0, len(from)+3)
	args = append(args, target, s.timestamp(), id)
	for _, status := range from {
		args = append(args, status)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE videos SET status = ?, updated_at = ?
         WHERE id = ? AND status IN (`+makePlaceholders(len(from))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("transition video: %w", err)
	}
	if err := s.requireVideoUpdated(ctx, res, id, target); err != nil {
		return nil, err
	}
	return s.GetVideo(ctx, id)
}

// MarkRendered promotes a render output to the authoritative artifact and
// moves the video from processing to ready.
func (s *Store) MarkRendered(ctx context.Context, id int64, filepath string, filesize int64, duration float64) (*Video, error) {
	if strings.TrimSpace(filepath) == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "mark rendered", "filepath is required", nil)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE videos SET status = ?, filepath = ?, filesize = ?, duration = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		VideoReady,
		filepath,
		filesize,
		duration,
		s.timestamp(),
		id,
		VideoProcessing,
	)
	if err != nil {
		return nil, fmt.Errorf("mark video rendered: %w", err)
	}
	if err := s.requireVideoUpdated(ctx, res, id, VideoReady); err != nil {
		return nil, err
	}
	return s.GetVideo(ctx, id)
}

func (s *Store) requireVideoUpdated(ctx context.Context, res sql.Result, id int64, target VideoStatus) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	current, err := s.GetVideo(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return services.Wrap(services.ErrNotFound, "catalog", "transition video", fmt.Sprintf("video %d", id), nil)
	}
	return services.Wrap(
		services.ErrConflict,
		"catalog",
		"transition video",
		fmt.Sprintf("video %d is %s; cannot move to %s", id, current.Status, target),
		nil,
	)
}
