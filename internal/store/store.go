package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultDBFile = "skelly.db"

	// Memory is the volatile location. The data is discarded on Close.
	Memory Location = ":memory:"
)

// Location is either a filesystem path or Memory.
type Location string

// ParseLocation returns s as a Location.
// The empty string is rejected with ErrInvalidLocation.
func ParseLocation(s string) (Location, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: empty location", ErrInvalidLocation)
	}
	return Location(s), nil
}

// IsMemory returns true if the location is a volatile, memory-only store.
func (l Location) IsMemory() bool {
	return l == Memory || strings.HasPrefix(string(l), "file::memory:")
}

func (l Location) String() string {
	return string(l)
}

// CheckExists verifies if the datastore exists at the given location.
// Returns true if the store exists, false otherwise.
// Memory locations never exist before they are opened.
func CheckExists(loc Location) (bool, error) {
	if loc.IsMemory() {
		return false, nil
	}
	info, err := os.Stat(string(loc))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check store existence: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("datastore path is a directory, expected file: %s", loc)
	}
	return true, nil
}

// DefaultLocation returns the location of the database file in dir.
func DefaultLocation(dir string) Location {
	return Location(filepath.Join(dir, DefaultDBFile))
}

// WithStore opens a store at loc, initializes its schema, runs fn and
// closes the store.
//
// If open fails its error is returned and nothing is closed. Otherwise the
// store is closed exactly once on every path, including a failed InitSchema.
// fn is only called after a successful InitSchema and may be nil.
// A Close error is joined with any earlier error.
func WithStore(ctx context.Context, open Opener, loc Location, fn func(Store) error) (err error) {
	s, err := open(ctx, loc)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", loc, cerr))
		}
	}()

	if err := s.InitSchema(ctx); err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	return fn(s)
}
