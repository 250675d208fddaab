package artifact

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"cutroom/internal/config"
	"cutroom/internal/textutil"
)

// Artifact kinds used as output name prefixes.
const (
	KindTrim     = "trim"
	KindSubtitle = "subtitle"
	KindFinal    = "final"
	KindTemp     = "temp"
)

// Paths derives artifact locations under the data directory.
type Paths struct {
	Originals string
	Processed string
	Temp      string
}

// NewPaths returns the layout configured by cfg.
func NewPaths(cfg *config.Config) Paths {
	return Paths{
		Originals: cfg.OriginalsDir(),
		Processed: cfg.ProcessedDir(),
		Temp:      cfg.TempDir(),
	}
}

// NewToken returns a name component that is unique even for calls within the
// same millisecond: unix millis plus eight random hex digits.
func NewToken() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// artifactPrefix matches names produced by this package so derived names do
// not accumulate prefixes across re-renders.
var artifactPrefix = regexp.MustCompile(`^(?:(?:trim|subtitle|final|temp)_)?\d+-[0-9a-f]{8}_`)

// BaseName strips artifact prefixes from path's file name.
func BaseName(path string) string {
	name := filepath.Base(path)
	for {
		stripped := artifactPrefix.ReplaceAllString(name, "")
		if stripped == name || stripped == "" {
			return name
		}
		name = stripped
	}
}

// Original returns a fresh location in the originals directory for an upload.
func (p Paths) Original(filename string) string {
	return filepath.Join(p.Originals, NewToken()+"_"+sanitize(filepath.Base(filename)))
}

// EditOutput returns a fresh processed path for a single edit applied to source.
func (p Paths) EditOutput(kind, source string) string {
	return filepath.Join(p.Processed, kind+"_"+NewToken()+"_"+BaseName(source))
}

// FinalOutput returns a fresh processed path for a render of source.
func (p Paths) FinalOutput(source string) string {
	return p.EditOutput(KindFinal, source)
}

// TempOutput returns a fresh intermediate path for a render of source.
func (p Paths) TempOutput(source string) string {
	return filepath.Join(p.Temp, KindTemp+"_"+NewToken()+"_"+BaseName(source))
}

func sanitize(name string) string {
	if cleaned := textutil.SanitizeFileName(name); cleaned != "" && cleaned != "." && cleaned != ".." {
		return cleaned
	}
	return "video"
}
