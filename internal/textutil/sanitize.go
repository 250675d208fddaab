package textutil

import "strings"

// unsafeFileChars maps path separators and wildcard characters to dashes and
// drops characters most filesystems or shells treat specially.
var unsafeFileChars = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-",
	"?", "", "\"", "", "<", "", ">", "", "|", "",
)

// SanitizeFileName turns a video title or upload name into a single safe path
// segment. Runs of whitespace collapse to one space; control characters are
// dropped. The result may be empty.
func SanitizeFileName(name string) string {
	name = strings.Join(strings.Fields(unsafeFileChars.Replace(name)), " ")
	return strings.Map(func(r rune) rune {
		if r < ' ' || r == 0x7f {
			return -1
		}
		return r
	}, name)
}
