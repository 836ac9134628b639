package imaging

import (
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// SanitizeFilename reduces name to a safe ASCII file name: compatibility
// decomposition folded to ASCII, path separators treated as spaces, runs of
// whitespace joined with "_", only [A-Za-z0-9_.-] kept, and leading or
// trailing "." and "_" trimmed. The result may be empty.
func SanitizeFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var ascii strings.Builder
	for _, r := range decomposed {
		switch {
		case r == '/' || r == '\\':
			ascii.WriteRune(' ')
		case r < unicode.MaxASCII:
			ascii.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var safe strings.Builder
	for _, r := range joined {
		if isSafe(r) {
			safe.WriteRune(r)
		}
	}

	return strings.Trim(safe.String(), "._")
}

// UniqueName builds "<uuid>_<base>.<ext>" from the sanitized original name.
func UniqueName(original, ext string) string {
	clean := SanitizeFilename(original)
	base := strings.TrimSuffix(clean, path.Ext(clean))
	if base == "" {
		base = "image"
	}
	return uuid.NewString() + "_" + base + "." + ext
}

func isSafe(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_' || r == '.' || r == '-'
}
