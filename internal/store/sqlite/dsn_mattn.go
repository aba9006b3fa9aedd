//go:build mattn

package sqlite

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// driverName is the database/sql driver registered by github.com/mattn/go-sqlite3.
const driverName = "sqlite3"

// memoryPragmas are used for volatile databases.
var memoryPragmas = []pragma{
	{name: "_foreign_keys", value: "1"},
	{name: "_busy_timeout", value: "5000"},
	{name: "_journal_mode", value: "MEMORY"},
	{name: "_synchronous", value: "OFF"},
}

// persistentPragmas are used for file-backed databases.
var persistentPragmas = []pragma{
	{name: "_foreign_keys", value: "1"},
	{name: "_busy_timeout", value: "5000"},
	{name: "_journal_mode", value: "WAL"},
	{name: "_synchronous", value: "NORMAL"},
}

// readOnlyPragmas are used when inspecting a file-backed database. They only
// affect the connection.
var readOnlyPragmas = []pragma{
	{name: "_foreign_keys", value: "1"},
	{name: "_busy_timeout", value: "5000"},
}

// memoryConnPragmas are set on a volatile connection after it is opened.
// The mattn DSN has no temp_store parameter.
var memoryConnPragmas = []pragma{
	{name: "temp_store", value: "MEMORY"},
}

// formatPragma renders a pragma as a mattn DSN parameter: _name=value
func formatPragma(p pragma) string {
	return fmt.Sprintf("%s=%s", p.name, p.value)
}
