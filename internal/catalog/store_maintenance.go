package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// StuckVideoIDs lists videos left in processing and videos owning a
// processing edit. Whether any of them is still being worked on is for the
// caller to decide.
func (s *Store) StuckVideoIDs(ctx context.Context) ([]int64, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM videos WHERE status = ?
		 UNION
		 SELECT video_id FROM edits WHERE status = ?
		 ORDER BY 1`,
		VideoProcessing,
		EditProcessing,
	)
	if err != nil {
		return nil, fmt.Errorf("list stuck videos: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stuck video: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResetVideoProcessing repairs one video left in processing by an
// interrupted process: the video reverts to uploaded and its processing
// edits become failed. Callers must hold the video's render lease.
func (s *Store) ResetVideoProcessing(ctx context.Context, videoID int64) (RecoveryResult, error) {
	timestamp := s.timestamp()
	var result RecoveryResult

	res, err := s.execWithRetry(
		ctx,
		`UPDATE videos SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		VideoUploaded,
		timestamp,
		videoID,
		VideoProcessing,
	)
	if err != nil {
		return result, fmt.Errorf("reset stuck video %d: %w", videoID, err)
	}
	if result.Videos, err = res.RowsAffected(); err != nil {
		return result, fmt.Errorf("rows affected: %w", err)
	}

	res, err = s.execWithRetry(
		ctx,
		`UPDATE edits SET status = ?, error_message = ?, output_path = NULL, updated_at = ? WHERE video_id = ? AND status = ?`,
		EditFailed,
		"interrupted before completion",
		timestamp,
		videoID,
		EditProcessing,
	)
	if err != nil {
		return result, fmt.Errorf("reset stuck edits of video %d: %w", videoID, err)
	}
	if result.Edits, err = res.RowsAffected(); err != nil {
		return result, fmt.Errorf("rows affected: %w", err)
	}
	return result, nil
}

// Stats returns record counts grouped by status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{
		Videos: make(map[VideoStatus]int),
		Edits:  make(map[EditStatus]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM videos GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("video stats: %w", err)
	}
	for rows.Next() {
		var status VideoStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return stats, err
		}
		stats.Videos[status] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return stats, err
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM edits GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("edit stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status EditStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.Edits[status] = count
	}
	return stats, rows.Err()
}

// CheckHealth returns diagnostic information about the catalog database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("catalog database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat catalog database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("catalog database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping catalog database: %w", err)
	}
	health.DatabaseReadable = true

	if health.SchemaVersion, err = s.readSchemaVersion(connCtx); err != nil {
		health.Error = err.Error()
		return health, err
	}

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")
	return health, nil
}
