package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"

	"cutroom/internal/notifications"
	"cutroom/internal/services"
	"cutroom/internal/transcode"
)

// fakeEngine appends a marker per operation to the input bytes, so the final
// artifact records which edits ran and in which order.
type fakeEngine struct {
	mu          sync.Mutex
	calls       []string
	failOnCall  int
	unavailable bool
	duration    float64
	// before runs ahead of each operation with its 1-based call number.
	before func(call int, input string)
}

func (f *fakeEngine) Available() error {
	if f.unavailable {
		return services.Wrap(services.ErrEngineUnavailable, "transcode", "lookup", "ffmpeg not found", nil)
	}
	return nil
}

func (f *fakeEngine) Probe(_ context.Context, path string) transcode.MediaInfo {
	info := transcode.MediaInfo{Duration: f.duration, Codec: "h264"}
	if stat, err := os.Stat(path); err == nil {
		info.Size = stat.Size()
	}
	return info
}

func (f *fakeEngine) Trim(ctx context.Context, input, output string, start, end float64) (string, error) {
	return output, f.apply(ctx, input, output, fmt.Sprintf("|trim(%.1f,%.1f)", start, end))
}

func (f *fakeEngine) BurnSubtitle(ctx context.Context, input, output string, cues []transcode.Cue) (string, error) {
	marker := "|sub("
	for _, cue := range cues {
		marker += cue.Text
	}
	return output, f.apply(ctx, input, output, marker+")")
}

func (f *fakeEngine) apply(_ context.Context, input, output, marker string) error {
	if err := f.Available(); err != nil {
		return err
	}
	f.mu.Lock()
	f.calls = append(f.calls, marker)
	call := len(f.calls)
	before := f.before
	f.mu.Unlock()

	if before != nil {
		before(call, input)
	}

	if f.failOnCall == call {
		_ = os.WriteFile(output, []byte("partial"), 0o644)
		return services.Wrap(services.ErrTranscode, "transcode", "invoke", "ffmpeg exited with status 1", nil)
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return services.Wrap(services.ErrTranscode, "transcode", "invoke", "read input", err)
	}
	return os.WriteFile(output, append(data, marker...), 0o644)
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEngine) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.failOnCall = 0
	f.before = nil
}

type recordedEvent struct {
	event   string
	payload map[string]any
}

type captureNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (c *captureNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, recordedEvent{event: string(event), payload: payload})
	return nil
}

func (c *captureNotifier) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.event)
	}
	return out
}
