package services

import "context"

type contextKey string

const (
	videoIDKey   contextKey = "video_id"
	editIDKey    contextKey = "edit_id"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

// WithVideoID tags ctx with the catalog video being worked on.
func WithVideoID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, videoIDKey, id)
}

// VideoIDFromContext returns the video id set by WithVideoID.
func VideoIDFromContext(ctx context.Context) (int64, bool) {
	return lookup[int64](ctx, videoIDKey)
}

// WithEditID tags ctx with the edit record being applied.
func WithEditID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, editIDKey, id)
}

// EditIDFromContext returns the edit id set by WithEditID.
func EditIDFromContext(ctx context.Context) (int64, bool) {
	return lookup[int64](ctx, editIDKey)
}

// WithStage tags ctx with a pipeline stage such as "trim" or "render".
// An empty stage leaves ctx unchanged.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return lookup[string](ctx, stageKey)
}

// WithRequestID tags ctx with the correlation id of an IPC request.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) {
	return lookup[string](ctx, requestIDKey)
}

func lookup[T comparable](ctx context.Context, key contextKey) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	v, ok := ctx.Value(key).(T)
	if !ok || v == zero {
		return zero, false
	}
	return v, true
}
