package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cutroom/internal/config"
)

const userAgent = "Cutroom-Go/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventRenderCompleted Event = "render_completed"
	EventRenderFailed    Event = "render_failed"
	EventEditFailed      Event = "edit_failed"
	EventTest            Event = "test"
)

// Payload carries event fields. Values are rendered with fmt.
type Payload map[string]any

// Service publishes pipeline events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		render:   cfg.Notifications.Render,
		errors:   cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	render   bool
	errors   bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventRenderCompleted:
		if !n.render {
			return message{}, false
		}
		body := fmt.Sprintf("🎬 Render complete: %s", payload.text("title"))
		if edits := payload.text("edits"); edits != "" {
			body = fmt.Sprintf("%s (%s edits)", body, edits)
		}
		if output := payload.text("output"); output != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, output)
		}
		return message{
			title: "Cutroom - Render Complete",
			body:  body,
			tags:  []string{"cutroom", "render", "completed"},
		}, true
	case EventRenderFailed:
		if !n.errors {
			return message{}, false
		}
		return message{
			title:    "Cutroom - Render Failed",
			body:     fmt.Sprintf("❌ Render failed for %s: %s", payload.text("title"), payload.text("error")),
			tags:     []string{"cutroom", "render", "error"},
			priority: "high",
		}, true
	case EventEditFailed:
		if !n.errors {
			return message{}, false
		}
		return message{
			title:    "Cutroom - Edit Failed",
			body:     fmt.Sprintf("❌ %s edit #%s failed for %s: %s", payload.text("type"), payload.text("editID"), payload.text("title"), payload.text("error")),
			tags:     []string{"cutroom", "edit", "error"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Cutroom - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"cutroom", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	if err, ok := value.(error); ok {
		return strings.TrimSpace(err.Error())
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
