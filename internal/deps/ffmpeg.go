package deps

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// filterLister returns the output of `ffmpeg -hide_banner -filters`.
type filterLister func(ctx context.Context, binary string) ([]byte, error)

func listFilters(ctx context.Context, binary string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, "-hide_banner", "-filters")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// CheckSubtitleFilter reports whether the ffmpeg build includes the libass
// "subtitles" filter that subtitle burn-in needs.
func CheckSubtitleFilter(ctx context.Context, binary string) Status {
	return checkSubtitleFilter(ctx, binary, listFilters)
}

func checkSubtitleFilter(ctx context.Context, binary string, list filterLister) Status {
	result := Status{
		Name:        "FFmpeg subtitles filter",
		Command:     strings.TrimSpace(binary),
		Description: "Required for subtitle burn-in (libass)",
		Optional:    true,
	}
	if result.Command == "" {
		result.Detail = "command not configured"
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := list(ctx, result.Command)
	if err != nil {
		result.Detail = fmt.Sprintf("list filters: %v", err)
		return result
	}
	if hasFilter(out, "subtitles") {
		result.Available = true
		return result
	}
	result.Detail = "ffmpeg was built without libass"
	return result
}

// hasFilter scans `ffmpeg -filters` output, whose rows look like
// " ... subtitles         V->V       Render text subtitles ...".
func hasFilter(output []byte, name string) bool {
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
