package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maloquacious/skelly/internal/logger"
	"github.com/maloquacious/skelly/internal/store"
)

// Compile-time interface guard.
var _ store.Store = (*Store)(nil)

// Config holds the options for Open.
type Config struct {
	// Location of the database. Use store.Memory for a volatile database.
	Location store.Location

	// Logger for operational logging. Discards output if nil.
	Logger logger.Logger

	// AppVersion is written to the config table by the first InitSchema.
	// Leave empty to skip it.
	AppVersion string

	// ExpectedSchema is the version CheckState compares against.
	// Default: SchemaVersion.
	ExpectedSchema string

	// ReadOnly opens an existing persistent database with mode=ro. The file
	// is never created or modified. Ignored for volatile databases.
	ReadOnly bool
}

// defaults returns a copy of cfg with default values applied.
func (cfg Config) defaults() Config {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.ExpectedSchema == "" {
		cfg.ExpectedSchema = SchemaVersion
	}
	return cfg
}

// Store implements store.Store using SQLite.
// It is owned by the caller of Open and is not safe for concurrent use.
type Store struct {
	loc            store.Location
	db             *sql.DB
	log            logger.Logger
	appVersion     string
	expectedSchema string
}

// Open opens the SQLite database at cfg.Location with safe defaults.
// A persistent database file is created if it does not exist, unless
// cfg.ReadOnly is set.
//
// On failure no handle is returned and the error wraps store.ErrAcquire
// (or store.ErrInvalidLocation for an empty location).
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg = cfg.defaults()

	loc, err := store.ParseLocation(string(cfg.Location))
	if err != nil {
		return nil, err
	}
	if !loc.IsMemory() {
		if err := validatePath(string(loc)); err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrAcquire, err)
		}
	}

	dsn := buildDSN(loc, cfg.ReadOnly)
	cfg.Logger.Debug("opening database: dsn=%s", dsn)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", store.ErrAcquire, loc, err)
	}

	// Ensure cleanup on error
	success := false
	defer func() {
		if !success {
			db.Close()
		}
	}()

	// One connection: a private in-memory database lives and dies with it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: ping %s: %w", store.ErrAcquire, loc, err)
	}

	if loc.IsMemory() {
		for _, p := range memoryConnPragmas {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
				return nil, fmt.Errorf("%w: pragma %s: %w", store.ErrAcquire, p.name, err)
			}
		}
		cfg.Logger.Info("DB mode: in-memory")
	} else if cfg.ReadOnly {
		cfg.Logger.Info("DB mode: read-only: path=%s", loc)
	} else {
		cfg.Logger.Info("DB mode: persistent: path=%s", loc)
	}

	success = true
	return &Store{
		loc:            loc,
		db:             db,
		log:            cfg.Logger,
		appVersion:     cfg.AppVersion,
		expectedSchema: cfg.ExpectedSchema,
	}, nil
}

// Opener returns a store.Opener that opens SQLite stores with cfg.
// The location passed to the opener replaces cfg.Location.
func Opener(cfg Config) store.Opener {
	return func(ctx context.Context, loc store.Location) (store.Store, error) {
		c := cfg
		c.Location = loc
		s, err := Open(ctx, c)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Location returns the location the store was opened at.
func (s *Store) Location() store.Location {
	return s.loc
}

// DB returns the underlying *sql.DB, or nil once the store is closed.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
// Closing a closed store returns an error wrapping store.ErrClosed.
func (s *Store) Close() error {
	if s.db == nil {
		return fmt.Errorf("close %s: %w", s.loc, store.ErrClosed)
	}
	db := s.db
	s.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.loc, err)
	}
	s.log.Debug("closed database: path=%s", s.loc)
	return nil
}

// InitSchema creates the schema_migrations and config tables if they are
// absent and records the schema version and database metadata.
// Existing rows are never overwritten, so a second call changes nothing.
func (s *Store) InitSchema(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("init schema: %w", store.ErrClosed)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", store.ErrInitSchema, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, initialSchema); err != nil {
		return fmt.Errorf("%w: create schema: %w", store.ErrInitSchema, err)
	}

	ts := time.Now().UTC().Unix()
	_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (?, ?)`, SchemaVersion, ts)
	if err != nil {
		return fmt.Errorf("%w: insert schema version: %w", store.ErrInitSchema, err)
	}

	metadata := [][2]string{
		{"db.created_at", strconv.FormatInt(ts, 10)},
		{"db.instance_id", uuid.NewString()},
	}
	if s.appVersion != "" {
		metadata = append(metadata, [2]string{"app.version", s.appVersion})
	}
	for _, kv := range metadata {
		_, err = tx.ExecContext(ctx, `INSERT OR IGNORE INTO config (key, value, updated_at) VALUES (?, ?, ?)`, kv[0], kv[1], ts)
		if err != nil {
			return fmt.Errorf("%w: set %s: %w", store.ErrInitSchema, kv[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit transaction: %w", store.ErrInitSchema, err)
	}

	s.log.Debug("schema initialized: version=%s", SchemaVersion)
	return nil
}

// CheckState returns the current state of the datastore.
func (s *Store) CheckState(ctx context.Context) (store.StoreState, error) {
	if s.db == nil {
		return store.StateMissing, fmt.Errorf("check state: %w", store.ErrClosed)
	}

	// Check if schema_migrations table exists
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_migrations'`).Scan(&count)
	if err != nil {
		return store.StateUninitialized, fmt.Errorf("failed to check schema_migrations table: %w", err)
	}

	if count == 0 {
		return store.StateUninitialized, nil
	}

	// Check schema version
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return store.StateUninitialized, fmt.Errorf("failed to get schema version: %w", err)
	}

	if version == "" {
		return store.StateUninitialized, nil
	}
	if version != s.expectedSchema {
		return store.StateVersionMismatch, nil
	}

	return store.StateReady, nil
}

// SchemaVersion returns the current schema version from the database.
// Returns an empty string if the schema has not been initialized.
func (s *Store) SchemaVersion(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("schema version: %w", store.ErrClosed)
	}

	var version string
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_migrations ORDER BY applied_at DESC, version DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) || isNoSuchTable(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}

	return version, nil
}

// Metadata returns the rows of the config table.
// Returns an empty map if the schema has not been initialized.
func (s *Store) Metadata(ctx context.Context) (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("metadata: %w", store.ErrClosed)
	}

	result := make(map[string]string)
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM config ORDER BY key`)
	if err != nil {
		if isNoSuchTable(err) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to query config: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		result[key] = value
	}
	return result, rows.Err()
}

// validatePath checks that a persistent database can be created at path.
func validatePath(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s: path is a directory", path)
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%s: parent directory: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: parent is not a directory", dir)
	}
	return nil
}

// isNoSuchTable checks if an error indicates a missing table.
func isNoSuchTable(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "no such table")
}
