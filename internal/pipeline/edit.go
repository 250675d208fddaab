package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cutroom/internal/artifact"
	"cutroom/internal/catalog"
	"cutroom/internal/config"
	"cutroom/internal/logging"
	"cutroom/internal/notifications"
	"cutroom/internal/services"
	"cutroom/internal/transcode"
)

// SubmitEdit records an edit and applies it once to the video's current
// artifact. The edit ends completed with an output path, or failed. On engine
// failure the failed record is returned together with the error.
func (p *Pipeline) SubmitEdit(ctx context.Context, videoID int64, kind catalog.EditType, params catalog.EditParams) (*catalog.Edit, error) {
	ctx = withStage(services.WithVideoID(ctx, videoID), "edit")
	logger := logging.WithContext(ctx, p.logger)

	if err := catalog.ValidateEdit(kind, params); err != nil {
		return nil, err
	}
	if _, err := p.store.MustGetVideo(ctx, videoID); err != nil {
		return nil, err
	}

	release, err := p.locks.RLock(ctx, videoID)
	if err != nil {
		return nil, err
	}
	defer release()

	// The video may have been re-rendered while waiting for the lease.
	video, err := p.store.MustGetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	params, err = applyRangePolicy(p.cfg.Editing.RangePolicy, video.Duration, params)
	if err != nil {
		return nil, err
	}

	edit, err := p.store.CreateEdit(ctx, videoID, kind, params)
	if err != nil {
		return nil, err
	}
	ctx = services.WithEditID(ctx, edit.ID)
	logger = logging.WithContext(ctx, p.logger)

	output := p.paths.EditOutput(string(edit.Type), video.Filepath)
	logger.Info("edit started",
		logging.String(logging.FieldEventType, "edit_start"),
		logging.String("type", string(edit.Type)),
		logging.Float64("start_seconds", edit.Params.StartTime),
		logging.Float64("end_seconds", edit.Params.EndTime),
		logging.String("input", video.Filepath),
		logging.String("output", output),
	)

	started := time.Now()
	applyErr := p.applyEdit(ctx, edit, video.Filepath, output)
	p.metrics.ObserveEdit(string(edit.Type), applyErr, time.Since(started))
	defer p.flushMetrics(logger)

	// Bookkeeping must land even if the caller gave up.
	persistCtx := context.WithoutCancel(ctx)
	if applyErr != nil {
		_ = p.storage.Remove(output)
		failed, err := p.store.MarkEditFailed(persistCtx, edit.ID, failureMessage(applyErr))
		if err != nil {
			logger.Error("failed to persist edit failure",
				logging.String(logging.FieldEventType, "edit_persist_failed"),
				logging.String(logging.FieldErrorHint, "run cutroom recover"),
				logging.Error(err),
			)
			return edit, applyErr
		}
		logging.ErrorWithContext(logger, "edit failed", "edit_failure",
			logging.String("type", string(edit.Type)),
			logging.String("error_kind", services.Kind(applyErr)),
			logging.String(logging.FieldErrorHint, hintFor(applyErr)),
			logging.Error(applyErr),
		)
		p.publish(ctx, logger, notifications.EventEditFailed, notifications.Payload{
			"title":  video.Title,
			"type":   edit.Type,
			"editID": edit.ID,
			"error":  services.Details(applyErr),
		})
		return failed, applyErr
	}

	completed, err := p.store.MarkEditCompleted(persistCtx, edit.ID, output)
	if err != nil {
		_ = p.storage.Remove(output)
		if failed, markErr := p.store.MarkEditFailed(persistCtx, edit.ID, failureMessage(err)); markErr == nil {
			edit = failed
		}
		return edit, fmt.Errorf("persist edit result: %w", err)
	}

	logger.Info("edit completed",
		logging.String(logging.FieldEventType, "edit_complete"),
		logging.String("type", string(completed.Type)),
		logging.Duration("elapsed", time.Since(started)),
		logging.String("output", output),
	)
	return completed, nil
}

// applyEdit runs the engine operation for edit from input to output.
func (p *Pipeline) applyEdit(ctx context.Context, edit *catalog.Edit, input, output string) error {
	var err error
	switch edit.Type {
	case catalog.EditTrim:
		_, err = p.engine.Trim(ctx, input, output, edit.Params.StartTime, edit.Params.EndTime)
	case catalog.EditSubtitle:
		cues := []transcode.Cue{{
			Text:  edit.Params.Text,
			Start: edit.Params.StartTime,
			End:   edit.Params.EndTime,
		}}
		_, err = p.engine.BurnSubtitle(ctx, input, output, cues)
	default:
		err = services.Wrap(services.ErrValidation, "pipeline", "apply edit", fmt.Sprintf("unsupported edit type %q", edit.Type), nil)
	}
	p.metrics.ObserveEngine(engineOperation(edit.Type), err)
	return err
}

// editStep adapts an edit to an artifact.Step.
func (p *Pipeline) editStep(edit *catalog.Edit) artifact.Step {
	return artifact.Step{
		Name: fmt.Sprintf("%s #%d", edit.Type, edit.ID),
		Apply: func(ctx context.Context, input, output string) error {
			return p.applyEdit(services.WithEditID(ctx, edit.ID), edit, input, output)
		},
	}
}

// applyRangePolicy resolves an edit that ends past a known duration.
// An unknown duration (zero) always passes through.
func applyRangePolicy(policy string, duration float64, params catalog.EditParams) (catalog.EditParams, error) {
	if duration <= 0 || params.EndTime <= duration {
		return params, nil
	}
	switch policy {
	case config.RangePolicyReject:
		return params, services.Wrap(services.ErrValidation, "pipeline", "range policy",
			fmt.Sprintf("end %.3fs is past the video duration %.3fs", params.EndTime, duration), nil)
	case config.RangePolicyClamp:
		params.EndTime = duration
		if params.StartTime >= params.EndTime {
			return params, catalog.InvalidRangeError(params.StartTime, params.EndTime)
		}
		return params, nil
	default:
		return params, nil
	}
}

func engineOperation(kind catalog.EditType) string {
	if kind == catalog.EditSubtitle {
		return "burn_subtitle"
	}
	return string(kind)
}

func failureMessage(err error) string {
	msg := strings.TrimSpace(services.Details(err))
	if msg == "" {
		return "edit failed"
	}
	return msg
}

func hintFor(err error) string {
	switch services.Kind(err) {
	case "engine_unavailable":
		return "install ffmpeg or set engine.engine_path"
	case "timeout":
		return "raise engine.invocation_timeout_seconds"
	case "conflict":
		return "wait for the running render to finish"
	default:
		return "check the engine stderr in the error message"
	}
}
