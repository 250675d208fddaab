package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	videoColumns = "id, title, description, filename, filepath, filesize, duration, status, created_at, updated_at"
	editColumns  = "id, video_id, type, params, status, output_path, error_message, created_at, updated_at"
)

// timeLayout is fixed width so lexical order in SQLite matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(scanner rowScanner) (*Video, error) {
	var (
		video       Video
		description sql.NullString
		status      string
		createdRaw  string
		updatedRaw  string
	)
	if err := scanner.Scan(
		&video.ID,
		&video.Title,
		&description,
		&video.Filename,
		&video.Filepath,
		&video.Filesize,
		&video.Duration,
		&status,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	video.Description = description.String
	video.Status = VideoStatus(status)
	if created, err := parseTimeString(createdRaw); err == nil {
		video.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		video.UpdatedAt = updated
	}
	return &video, nil
}

func scanEdit(scanner rowScanner) (*Edit, error) {
	var (
		edit       Edit
		kind       string
		params     string
		status     string
		outputPath sql.NullString
		errMessage sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&edit.ID,
		&edit.VideoID,
		&kind,
		&params,
		&status,
		&outputPath,
		&errMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	edit.Type = EditType(kind)
	edit.Status = EditStatus(status)
	edit.OutputPath = outputPath.String
	edit.ErrorMessage = errMessage.String
	if err := json.Unmarshal([]byte(params), &edit.Params); err != nil {
		return nil, fmt.Errorf("decode params for edit %d: %w", edit.ID, err)
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		edit.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		edit.UpdatedAt = updated
	}
	return &edit, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
