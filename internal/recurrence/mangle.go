package recurrence

import (
	"fmt"
	"path/filepath"
	"strings"

	"tapedeck/internal/recording"
)

// MangleTitle disambiguates an occurrence title. Under numbered mangling the
// sequence number is appended; under prefixed mangling the configured prefix
// plus the number is prepended. With no mangling all occurrences share the
// base title and the caller accepts collisions.
func MangleTitle(title string, mode recording.ManglingMode, prefix string, number int) string {
	switch mode {
	case recording.ManglingNumbered:
		return fmt.Sprintf("%s %d", title, number)
	case recording.ManglingPrefixed:
		return fmt.Sprintf("%s%d %s", prefix, number, title)
	default:
		return title
	}
}

// MangleFilename disambiguates an occurrence filename, keeping the extension
// in place. Numbered and prefixed modes produce names unique within one
// series by construction.
func MangleFilename(filename string, mode recording.ManglingMode, prefix string, number int) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	switch mode {
	case recording.ManglingNumbered:
		return fmt.Sprintf("%s_%d%s", base, number, ext)
	case recording.ManglingPrefixed:
		return fmt.Sprintf("%s%d_%s%s", prefix, number, base, ext)
	default:
		return filename
	}
}
