package store

import "context"

// StoreState represents the initialization state of the datastore.
type StoreState int

const (
	StateMissing         StoreState = iota // File doesn't exist
	StateUninitialized                     // Opened but no schema
	StateVersionMismatch                   // Schema exists but wrong version
	StateReady                             // Initialized and correct version
)

func (s StoreState) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateUninitialized:
		return "uninitialized"
	case StateVersionMismatch:
		return "version-mismatch"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Store defines the skelly datastore contract.
// A Store is owned by whoever opened it and is not safe for concurrent use.
// Every method returns an error wrapping ErrClosed once Close has been called.
type Store interface {
	// Location returns the location the store was opened at
	Location() Location

	// InitSchema creates the schema objects if they are absent.
	// Calling it again on the same store has no further effect.
	InitSchema(ctx context.Context) error

	// CheckState returns the current state of the datastore
	CheckState(ctx context.Context) (StoreState, error)

	// SchemaVersion returns the current schema version from the database
	SchemaVersion(ctx context.Context) (string, error)

	// Close releases the datastore connection
	Close() error
}

// Opener acquires a Store at a location.
// On failure it returns a nil Store; there is nothing to close.
type Opener func(ctx context.Context, loc Location) (Store, error)
