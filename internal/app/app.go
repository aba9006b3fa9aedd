// Package app implements the skelly application: the startup path, the
// built-in self-test suite and the database maintenance commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/maloquacious/skelly/internal/config"
	"github.com/maloquacious/skelly/internal/logger"
	"github.com/maloquacious/skelly/internal/store"
	"github.com/maloquacious/skelly/internal/store/sqlite"
)

const Name = "skelly"

// App carries the dependencies shared by the commands.
type App struct {
	Config config.Config

	// Out receives the human-readable output.
	Out io.Writer

	Log logger.Logger

	// Version is recorded as app.version when a schema is first created.
	Version string

	// Open acquires stores. Defaults to SQLite.
	Open store.Opener

	// Inspect acquires existing stores without changing them. Used by Verify.
	Inspect store.Opener
}

// New returns an App using the SQLite engine.
func New(cfg config.Config, out io.Writer, log logger.Logger, version string) *App {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = logger.Default()
	}
	return &App{
		Config:  cfg,
		Out:     out,
		Log:     log,
		Version: version,
		Open:    sqlite.Opener(sqlite.Config{Logger: log, AppVersion: version}),
		Inspect: sqlite.Opener(sqlite.Config{Logger: log, ReadOnly: true}),
	}
}

// Run is the application startup. Without a store it prints the start
// message. With a store it opens the configured location, initializes the
// schema and closes it again; any failure is returned so the caller can
// exit non-zero.
func (a *App) Run(ctx context.Context) error {
	if !a.Config.Store.Enabled {
		a.Log.Debug("store disabled")
		fmt.Fprintf(a.Out, "%s started\n", Name)
		return nil
	}

	loc, err := a.Config.Location()
	if err != nil {
		return err
	}

	if err := store.WithStore(ctx, a.Open, loc, nil); err != nil {
		a.Log.Error("store %s: %s: %v", loc, store.StatusOf(err), err)
		if store.StatusOf(err) == store.StatusAcquireFailed {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(a.Out, "%s initialized (SQLite ready)\n", Name)
	return nil
}

// Create creates and initializes a new persistent database at the
// configured location. It refuses volatile locations and existing files.
func (a *App) Create(ctx context.Context) error {
	loc, err := a.Config.Location()
	if err != nil {
		return err
	}
	if loc.IsMemory() {
		return errors.New("create requires a persistent path, not :memory:")
	}

	exists, err := store.CheckExists(loc)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s: file already exists", loc)
	}

	a.Log.Info("creating database: path=%s", loc)
	if err := store.WithStore(ctx, a.Open, loc, nil); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%s: created %s\n", Name, loc)
	return nil
}
