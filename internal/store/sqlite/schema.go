package sqlite

import _ "embed"

// SchemaVersion is the version recorded by InitSchema.
const SchemaVersion = "0.1"

// initialSchema creates the schema_migrations and config tables.
//
//go:embed schema.sql
var initialSchema string
