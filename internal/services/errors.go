package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrEngineUnavailable = errors.New("engine unavailable")
	ErrTranscode         = errors.New("transcode failure")
	ErrNoCompletedEdits  = errors.New("no completed edits")
	ErrConfiguration     = errors.New("configuration error")
	ErrTimeout           = errors.New("timeout")
	ErrTransient         = errors.New("transient failure")
)

// markers lists every sentinel in classification order.
var markers = []struct {
	err  error
	kind string
}{
	{ErrValidation, "validation"},
	{ErrNotFound, "not_found"},
	{ErrConflict, "conflict"},
	{ErrEngineUnavailable, "engine_unavailable"},
	{ErrNoCompletedEdits, "no_completed_edits"},
	{ErrTimeout, "timeout"},
	{ErrTranscode, "transcode"},
	{ErrConfiguration, "configuration"},
	{ErrTransient, "transient"},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short stable label for the first marker carried by err, or
// "internal" when no marker matches.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range markers {
		if errors.Is(err, m.err) {
			return m.kind
		}
	}
	return "internal"
}

// Details strips the marker prefix from err's message, leaving the
// stage/operation/message detail and any wrapped cause.
func Details(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, m := range markers {
		prefix := m.err.Error() + ": "
		if errors.Is(err, m.err) && strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

// FromMessage rebuilds a marked error from a message produced by Wrap, such as
// an error string returned over RPC. Messages without a known marker prefix
// become plain errors.
func FromMessage(msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil
	}
	for _, m := range markers {
		prefix := m.err.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return fmt.Errorf("%w: %s", m.err, strings.TrimPrefix(msg, prefix))
		}
		if msg == m.err.Error() {
			return m.err
		}
	}
	return errors.New(msg)
}

// Portable returns err with its first marker as the message prefix so the
// classification survives a trip through a plain string.
func Portable(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for _, m := range markers {
		if errors.Is(err, m.err) && strings.HasPrefix(msg, m.err.Error()) {
			return err
		}
	}
	for _, m := range markers {
		if errors.Is(err, m.err) {
			return fmt.Errorf("%w: %s", m.err, msg)
		}
	}
	return err
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
