//go:build !mattn

package sqlite

import (
	"fmt"

	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver registered by modernc.org/sqlite.
const driverName = "sqlite"

// memoryPragmas are used for volatile databases.
var memoryPragmas = []pragma{
	{name: "foreign_keys", value: "ON"},
	{name: "busy_timeout", value: "5000"},
	{name: "journal_mode", value: "MEMORY"},
	{name: "synchronous", value: "OFF"},
	{name: "temp_store", value: "MEMORY"},
}

// persistentPragmas are used for file-backed databases.
var persistentPragmas = []pragma{
	{name: "foreign_keys", value: "ON"},
	{name: "busy_timeout", value: "5000"},
	{name: "journal_mode", value: "WAL"},
	{name: "synchronous", value: "NORMAL"},
}

// readOnlyPragmas are used when inspecting a file-backed database. They only
// affect the connection.
var readOnlyPragmas = []pragma{
	{name: "foreign_keys", value: "ON"},
	{name: "busy_timeout", value: "5000"},
}

// memoryConnPragmas are set on a volatile connection after it is opened.
// The modernc DSN carries all of them already.
var memoryConnPragmas []pragma

// formatPragma renders a pragma as a modernc DSN parameter: _pragma=name(value)
func formatPragma(p pragma) string {
	return fmt.Sprintf("_pragma=%s(%s)", p.name, p.value)
}
