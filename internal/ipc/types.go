package ipc

import (
	"errors"

	"cutroom/internal/artifact"
	"cutroom/internal/catalog"
	"cutroom/internal/daemon"
	"cutroom/internal/pipeline"
)

// ImportVideoRequest copies or moves a source file into the catalog.
type ImportVideoRequest struct {
	SourcePath  string `json:"source_path"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Move        bool   `json:"move"`
}

// VideoResponse carries a single video.
type VideoResponse struct {
	Video *catalog.Video `json:"video"`
}

// SubmitEditRequest asks the daemon to apply one edit.
type SubmitEditRequest struct {
	VideoID int64              `json:"video_id"`
	Type    string             `json:"type"`
	Params  catalog.EditParams `json:"params"`
}

// SubmitEditResponse carries the edit record. A failed application still
// returns the record with Error set, since the RPC error path drops replies.
type SubmitEditResponse struct {
	Edit  *catalog.Edit `json:"edit"`
	Error string        `json:"error,omitempty"`
}

// RenderRequest renders every completed edit of a video.
type RenderRequest struct {
	VideoID int64 `json:"video_id"`
}

// GetVideoRequest fetches a video and its edits.
type GetVideoRequest struct {
	VideoID int64 `json:"video_id"`
}

// GetVideoResponse carries the video detail.
type GetVideoResponse struct {
	Detail *pipeline.VideoDetail `json:"detail"`
}

// ListVideosRequest filters videos by status.
type ListVideosRequest struct {
	Statuses []string `json:"statuses"`
}

// ListVideosResponse contains videos newest first.
type ListVideosResponse struct {
	Videos []*catalog.Video `json:"videos"`
}

// ExportRequest copies a video's authoritative artifact out of the data dir.
type ExportRequest struct {
	VideoID       int64  `json:"video_id"`
	Destination   string `json:"destination"`
	AllowOriginal bool   `json:"allow_original"`
}

// ExportResponse describes the completed copy.
type ExportResponse struct {
	Result pipeline.ExportResult `json:"result"`
}

// SweepRequest triggers a stale temp sweep.
type SweepRequest struct{}

// SweepFailure is a sweep error flattened for the wire.
type SweepFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// SweepResponse reports removed paths and failures.
type SweepResponse struct {
	Removed  []string       `json:"removed"`
	Failures []SweepFailure `json:"failures"`
}

// NewSweepResponse flattens a sweep result.
func NewSweepResponse(result artifact.SweepResult) SweepResponse {
	resp := SweepResponse{Removed: result.Removed}
	for _, failure := range result.Errors {
		msg := ""
		if failure.Error != nil {
			msg = failure.Error.Error()
		}
		resp.Failures = append(resp.Failures, SweepFailure{Path: failure.Path, Error: msg})
	}
	return resp
}

// SweepResult rebuilds the sweep result on the client side.
func (r SweepResponse) SweepResult() artifact.SweepResult {
	result := artifact.SweepResult{Removed: r.Removed}
	for _, failure := range r.Failures {
		result.Errors = append(result.Errors, artifact.SweepError{Path: failure.Path, Error: errors.New(failure.Error)})
	}
	return result
}

// RecoverRequest resets interrupted work.
type RecoverRequest struct{}

// RecoverResponse reports how many rows were reset.
type RecoverResponse struct {
	Result catalog.RecoveryResult `json:"result"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Status daemon.Status `json:"status"`
}
