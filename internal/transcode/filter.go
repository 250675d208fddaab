package transcode

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// optionEscaper quotes a value for a single filter option.
var optionEscaper = strings.NewReplacer(
	`\`, `\\`,
	`:`, `\:`,
	`'`, `\'`,
)

// graphEscaper quotes an escaped option value again for the filtergraph
// parser, which splits on its own separators before the filter sees it.
var graphEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`,`, `\,`,
	`[`, `\[`,
	`]`, `\]`,
	`;`, `\;`,
)

func escapeFilterPath(path string) string {
	return graphEscaper.Replace(optionEscaper.Replace(path))
}

// cuePath names the temporary cue file next to output. The name carries no
// part of the output name, so only the directory can need escaping.
func cuePath(output string) string {
	return filepath.Join(filepath.Dir(output), "cues-"+uuid.NewString()[:8]+".srt")
}
