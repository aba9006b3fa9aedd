package sqlite

import (
	"strings"

	"github.com/maloquacious/skelly/internal/store"
)

// pragma represents a SQLite pragma setting.
type pragma struct {
	name  string
	value string
}

// uriPath escapes the characters SQLite would otherwise read as URI syntax
// in a file: name.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// buildDSN constructs a file: URI for loc with the pragmas for its mode.
// A bare ":memory:" becomes a private in-memory database. A plain path is
// escaped so SQLite opens exactly that file. readOnly opens a persistent
// database with mode=ro and without the pragmas that write to the file.
func buildDSN(loc store.Location, readOnly bool) string {
	var params []string
	switch {
	case loc.IsMemory():
		params = formatPragmas(memoryPragmas)
	case readOnly:
		params = append([]string{"mode=ro"}, formatPragmas(readOnlyPragmas)...)
	default:
		params = formatPragmas(persistentPragmas)
	}

	var sb strings.Builder
	switch {
	case loc == store.Memory:
		sb.WriteString("file::memory:")
	case strings.HasPrefix(string(loc), "file:"):
		sb.WriteString(string(loc))
	default:
		sb.WriteString("file:")
		sb.WriteString(uriPath.Replace(string(loc)))
	}

	sep := "?"
	if strings.Contains(sb.String(), "?") {
		sep = "&"
	}
	for _, p := range params {
		sb.WriteString(sep)
		sb.WriteString(p)
		sep = "&"
	}
	return sb.String()
}

func formatPragmas(pragmas []pragma) []string {
	out := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		out = append(out, formatPragma(p))
	}
	return out
}
