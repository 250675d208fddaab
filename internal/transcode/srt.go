package transcode

import (
	"fmt"
	"math"
	"os"
	"strings"

	"cutroom/internal/services"
)

// Cue is one timed subtitle line.
type Cue struct {
	Text  string  `json:"text"`
	Start float64 `json:"startTime"`
	End   float64 `json:"endTime"`
}

// Validate rejects cues without text or with an empty time range.
func (c Cue) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return services.Wrap(services.ErrValidation, "transcode", "subtitle cue", "text is required", nil)
	}
	if math.IsNaN(c.Start) || math.IsNaN(c.End) || c.Start < 0 || c.Start >= c.End {
		return services.Wrap(services.ErrValidation, "transcode", "subtitle cue",
			fmt.Sprintf("invalid range: start %.3fs must be before end %.3fs", c.Start, c.End), nil)
	}
	return nil
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm, rounded to the nearest millisecond.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	ms := total % 1000
	totalSeconds := total / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", totalSeconds/3600, (totalSeconds/60)%60, totalSeconds%60, ms)
}

// BuildSRT renders cues as a SubRip document with 1-based sequential indexes.
func BuildSRT(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), cueText(cue.Text))
	}
	return b.String()
}

// WriteSRT writes cues to path.
func WriteSRT(path string, cues []Cue) error {
	return os.WriteFile(path, []byte(BuildSRT(cues)), 0o644)
}

// cueText normalizes line endings and drops blank lines, which would end the cue early.
func cueText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}
