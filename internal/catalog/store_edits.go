package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cutroom/internal/services"
)

// CreateEdit validates the request and inserts an edit in the processing state.
// Nothing is written when validation fails.
func (s *Store) CreateEdit(ctx context.Context, videoID int64, kind EditType, params EditParams) (*Edit, error) {
	if err := ValidateEdit(kind, params); err != nil {
		return nil, err
	}
	if kind == EditTrim {
		params.Text = ""
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode edit params: %w", err)
	}

	video, err := s.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "create edit", fmt.Sprintf("video %d", videoID), nil)
	}

	timestamp := s.timestamp()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO edits (video_id, type, params, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		videoID,
		kind,
		string(payload),
		EditProcessing,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert edit: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetEdit(ctx, id)
}

// GetEdit fetches an edit by identifier. A missing edit yields (nil, nil).
func (s *Store) GetEdit(ctx context.Context, id int64) (*Edit, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+editColumns+` FROM edits WHERE id = ?`, id)
	edit, err := scanEdit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get edit: %w", err)
	}
	return edit, nil
}

// MarkEditCompleted records the output artifact and closes a processing edit.
func (s *Store) MarkEditCompleted(ctx context.Context, id int64, outputPath string) (*Edit, error) {
	if strings.TrimSpace(outputPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "complete edit", "output path is required", nil)
	}
	return s.finishEdit(ctx, id, EditCompleted, outputPath, "")
}

// MarkEditFailed closes a processing edit without an output path.
func (s *Store) MarkEditFailed(ctx context.Context, id int64, message string) (*Edit, error) {
	return s.finishEdit(ctx, id, EditFailed, "", message)
}

func (s *Store) finishEdit(ctx context.Context, id int64, status EditStatus, outputPath, message string) (*Edit, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE edits SET status = ?, output_path = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		status,
		nullableString(outputPath),
		nullableString(strings.TrimSpace(message)),
		s.timestamp(),
		id,
		EditProcessing,
	)
	if err != nil {
		return nil, fmt.Errorf("update edit status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		current, err := s.GetEdit(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, services.Wrap(services.ErrNotFound, "catalog", "finish edit", fmt.Sprintf("edit %d", id), nil)
		}
		return nil, services.Wrap(
			services.ErrConflict,
			"catalog",
			"finish edit",
			fmt.Sprintf("edit %d is already %s", id, current.Status),
			nil,
		)
	}
	return s.GetEdit(ctx, id)
}

// EditsForVideo returns a video's edits in render order, optionally filtered
// by status.
func (s *Store) EditsForVideo(ctx context.Context, videoID int64, statuses ...EditStatus) ([]*Edit, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + editColumns + ` FROM edits WHERE video_id = ?`
	args := make([]any, 0, len(statuses)+1)
	args = append(args, videoID)
	if len(statuses) > 0 {
		query += ` AND status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list edits: %w", err)
	}
	defer rows.Close()

	var edits []*Edit
	for rows.Next() {
		edit, err := scanEdit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		edits = append(edits, edit)
	}
	return edits, rows.Err()
}

// SortRenderOrder orders edits by creation time, then id, in place.
func SortRenderOrder(edits []*Edit) {
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i], edits[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
