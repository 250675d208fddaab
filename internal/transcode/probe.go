package transcode

import (
	"context"
	"os"
	"strings"

	"cutroom/internal/logging"
)

// UnknownCodec is reported when the codec cannot be determined.
const UnknownCodec = "unknown"

// MediaInfo is advisory metadata about a media file.
type MediaInfo struct {
	Duration float64 `json:"duration"`
	Size     int64   `json:"size"`
	BitRate  int64   `json:"bitrate"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Codec    string  `json:"codec"`
	HasAudio bool    `json:"has_audio"`
}

// Probe inspects path. It never fails: when ffprobe is missing or the file is
// unreadable it returns duration 0, the on-disk size (or 0), and an unknown codec.
func (e *Engine) Probe(ctx context.Context, path string) MediaInfo {
	info := defaultMediaInfo(path)

	probeCtx := ctx
	if e.cfg.InvocationTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, e.cfg.InvocationTimeout)
		defer cancel()
	}

	result, err := e.inspect(probeCtx, e.cfg.ProbePath, path)
	if err != nil {
		logging.WithContext(ctx, e.logger).Debug("probe degraded to defaults",
			logging.String("path", path),
			logging.Error(err),
		)
		return info
	}

	info.Duration = result.DurationSeconds()
	if size := result.SizeBytes(); size > 0 {
		info.Size = size
	}
	info.BitRate = result.BitRate()
	info.HasAudio = result.HasAudio()
	if stream, ok := result.PrimaryVideo(); ok {
		info.Width = stream.Width
		info.Height = stream.Height
		if codec := strings.TrimSpace(stream.CodecName); codec != "" {
			info.Codec = codec
		}
	}
	return info
}

func defaultMediaInfo(path string) MediaInfo {
	info := MediaInfo{Codec: UnknownCodec}
	if stat, err := os.Stat(path); err == nil && !stat.IsDir() {
		info.Size = stat.Size()
	}
	return info
}
