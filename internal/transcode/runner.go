package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// commandRunner executes an engine binary. Implementations must stop the
// process when ctx ends.
type commandRunner func(ctx context.Context, name string, args ...string) error

const (
	maxStderrTail = 2048
	killWaitDelay = 5 * time.Second
)

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = killWaitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, tail(strings.TrimSpace(stderr.String()), maxStderrTail))
	}
	return nil
}

func tail(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return "…" + value[len(value)-limit:]
}
