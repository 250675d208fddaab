package catalog

import (
	"fmt"
	"math"
	"strings"
	"time"

	"cutroom/internal/services"
)

// VideoStatus is the lifecycle state of a video.
type VideoStatus string

const (
	VideoUploaded   VideoStatus = "uploaded"
	VideoProcessing VideoStatus = "processing"
	VideoReady      VideoStatus = "ready"
)

// EditStatus is the lifecycle state of an edit record.
type EditStatus string

const (
	EditProcessing EditStatus = "processing"
	EditCompleted  EditStatus = "completed"
	EditFailed     EditStatus = "failed"
)

// EditType names the transformation an edit applies.
type EditType string

const (
	EditTrim     EditType = "trim"
	EditSubtitle EditType = "subtitle"
)

// videoTransitions lists, per target state, the states a video may leave to reach it.
var videoTransitions = map[VideoStatus][]VideoStatus{
	VideoProcessing: {VideoUploaded, VideoReady},
	VideoReady:      {VideoProcessing},
	VideoUploaded:   {VideoProcessing},
}

// AllowedFrom returns the states from which a video may move to target.
func AllowedFrom(target VideoStatus) []VideoStatus {
	from := videoTransitions[target]
	out := make([]VideoStatus, len(from))
	copy(out, from)
	return out
}

// CanTransition reports whether a video may move from one state to another.
func CanTransition(from, to VideoStatus) bool {
	for _, allowed := range videoTransitions[to] {
		if allowed == from {
			return true
		}
	}
	return false
}

// ParseVideoStatus converts user input into a VideoStatus.
func ParseVideoStatus(value string) (VideoStatus, bool) {
	switch status := VideoStatus(strings.ToLower(strings.TrimSpace(value))); status {
	case VideoUploaded, VideoProcessing, VideoReady:
		return status, true
	default:
		return "", false
	}
}

// ParseEditType converts user input into an EditType.
func ParseEditType(value string) (EditType, bool) {
	switch kind := EditType(strings.ToLower(strings.TrimSpace(value))); kind {
	case EditTrim, EditSubtitle:
		return kind, true
	default:
		return "", false
	}
}

// Video is a media asset under edit. Filepath always names the authoritative
// artifact: the original upload until a render succeeds, the render output after.
type Video struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Filename    string      `json:"filename"`
	Filepath    string      `json:"filepath"`
	Filesize    int64       `json:"filesize"`
	Duration    float64     `json:"duration"`
	Status      VideoStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewVideo carries the attributes recorded on import.
type NewVideo struct {
	Title       string
	Description string
	Filename    string
	Filepath    string
	Filesize    int64
	Duration    float64
}

// EditParams holds the parameters of either edit variant. Text is only used
// by subtitle edits.
type EditParams struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Text      string  `json:"text,omitempty"`
}

// Duration returns the length of the edit's time range.
func (p EditParams) Duration() float64 {
	return p.EndTime - p.StartTime
}

// Edit is one requested transformation of a video.
type Edit struct {
	ID           int64      `json:"id"`
	VideoID      int64      `json:"video_id"`
	Type         EditType   `json:"type"`
	Params       EditParams `json:"params"`
	Status       EditStatus `json:"status"`
	OutputPath   string     `json:"output_path,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the edit has left processing.
func (e *Edit) IsTerminal() bool {
	return e != nil && (e.Status == EditCompleted || e.Status == EditFailed)
}

// ValidateEdit checks an edit request before any record exists. Range errors
// are marked services.ErrValidation.
func ValidateEdit(kind EditType, params EditParams) error {
	if _, ok := ParseEditType(string(kind)); !ok {
		return services.Wrap(services.ErrValidation, "catalog", "validate edit", fmt.Sprintf("unsupported edit type %q", kind), nil)
	}
	for _, value := range []float64{params.StartTime, params.EndTime} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return services.Wrap(services.ErrValidation, "catalog", "validate edit", "time values must be finite", nil)
		}
	}
	if params.StartTime < 0 || params.EndTime < 0 {
		return services.Wrap(services.ErrValidation, "catalog", "validate edit", "time values must be non-negative", nil)
	}
	if params.StartTime >= params.EndTime {
		return InvalidRangeError(params.StartTime, params.EndTime)
	}
	if kind == EditSubtitle && strings.TrimSpace(params.Text) == "" {
		return services.Wrap(services.ErrValidation, "catalog", "validate edit", "subtitle text is required", nil)
	}
	return nil
}

// InvalidRangeError reports a time range whose start is not before its end.
func InvalidRangeError(start, end float64) error {
	return services.Wrap(
		services.ErrValidation,
		"catalog",
		"validate edit",
		fmt.Sprintf("invalid range: start %.3fs must be before end %.3fs", start, end),
		nil,
	)
}

// Stats counts records by status.
type Stats struct {
	Videos map[VideoStatus]int `json:"videos"`
	Edits  map[EditStatus]int  `json:"edits"`
}

// RecoveryResult reports rows reset after an unclean shutdown.
type RecoveryResult struct {
	Videos int64 `json:"videos"`
	Edits  int64 `json:"edits"`
	// Skipped lists videos left alone because a live render or edit holds them.
	Skipped []int64 `json:"skipped,omitempty"`
}

// DatabaseHealth captures diagnostic information about the catalog database.
type DatabaseHealth struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	SchemaVersion    int    `json:"schema_version"`
	IntegrityCheck   bool   `json:"integrity_check"`
	Error            string `json:"error,omitempty"`
}
