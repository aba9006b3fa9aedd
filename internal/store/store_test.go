package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckExists(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name      string
		setup     func(string) error
		wantExist bool
		wantError bool
	}{
		{
			name: "database exists",
			setup: func(dir string) error {
				f, err := os.Create(string(DefaultLocation(dir)))
				if err != nil {
					return err
				}
				return f.Close()
			},
			wantExist: true,
			wantError: false,
		},
		{
			name: "database does not exist",
			setup: func(dir string) error {
				return nil
			},
			wantExist: false,
			wantError: false,
		},
		{
			name: "database path is directory",
			setup: func(dir string) error {
				return os.Mkdir(string(DefaultLocation(dir)), 0755)
			},
			wantExist: false,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testDir := filepath.Join(tmpDir, tt.name)
			if err := os.Mkdir(testDir, 0755); err != nil {
				t.Fatalf("failed to create test dir: %v", err)
			}

			if err := tt.setup(testDir); err != nil {
				t.Fatalf("setup failed: %v", err)
			}

			exists, err := CheckExists(DefaultLocation(testDir))

			if tt.wantError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if exists != tt.wantExist {
				t.Errorf("got exists=%v, want %v", exists, tt.wantExist)
			}
		})
	}
}

func TestCheckExists_Memory(t *testing.T) {
	exists, err := CheckExists(Memory)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDefaultLocation(t *testing.T) {
	got := DefaultLocation(".")
	if got != "skelly.db" {
		t.Errorf("got %q, want %q", got, "skelly.db")
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		memory  bool
		wantErr bool
	}{
		{in: ":memory:", want: Memory, memory: true},
		{in: "file::memory:?cache=shared", want: "file::memory:?cache=shared", memory: true},
		{in: "data/app.db", want: "data/app.db"},
		{in: "", wantErr: true},
		{in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			loc, err := ParseLocation(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLocation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc)
			assert.Equal(t, tt.memory, loc.IsMemory())
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"nil", nil, StatusOK},
		{"plain error", errors.New("x"), StatusFailed},
		{"wrapped acquire", wrap(ErrAcquire), StatusAcquireFailed},
		{"invalid location", wrap(ErrInvalidLocation), StatusAcquireFailed},
		{"init", wrap(ErrInitSchema), StatusInitFailed},
		{"closed", wrap(ErrClosed), StatusMisuse},
		{"init joined with close", errors.Join(wrap(ErrInitSchema), errors.New("close")), StatusInitFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func wrap(err error) error {
	return errors.Join(errors.New("context"), err)
}

// fakeStore records the lifecycle calls made against it.
type fakeStore struct {
	calls    []string
	initErr  error
	closeErr error
}

func (f *fakeStore) Location() Location { return Memory }

func (f *fakeStore) InitSchema(context.Context) error {
	f.calls = append(f.calls, "init")
	return f.initErr
}

func (f *fakeStore) CheckState(context.Context) (StoreState, error) {
	return StateReady, nil
}

func (f *fakeStore) SchemaVersion(context.Context) (string, error) {
	return "0.1", nil
}

func (f *fakeStore) Close() error {
	f.calls = append(f.calls, "close")
	return f.closeErr
}

func TestWithStore(t *testing.T) {
	ctx := context.Background()

	t.Run("open, init, fn, close", func(t *testing.T) {
		fs := &fakeStore{}
		err := WithStore(ctx, openerFor(fs, nil), Memory, func(s Store) error {
			fs.calls = append(fs.calls, "fn")
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"init", "fn", "close"}, fs.calls)
	})

	t.Run("nil fn", func(t *testing.T) {
		fs := &fakeStore{}
		require.NoError(t, WithStore(ctx, openerFor(fs, nil), Memory, nil))
		assert.Equal(t, []string{"init", "close"}, fs.calls)
	})

	t.Run("open failure never closes", func(t *testing.T) {
		opened := false
		open := func(context.Context, Location) (Store, error) {
			opened = true
			return nil, errors.Join(errors.New("no such directory"), ErrAcquire)
		}
		err := WithStore(ctx, open, "/nonexistent/skelly.db", func(Store) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.True(t, opened)
		assert.Equal(t, StatusAcquireFailed, StatusOf(err))
	})

	t.Run("init failure still closes", func(t *testing.T) {
		fs := &fakeStore{initErr: errors.Join(errors.New("disk I/O error"), ErrInitSchema)}
		err := WithStore(ctx, openerFor(fs, nil), Memory, func(Store) error {
			t.Fatal("fn must not run")
			return nil
		})
		assert.Equal(t, StatusInitFailed, StatusOf(err))
		assert.Equal(t, []string{"init", "close"}, fs.calls)
	})

	t.Run("fn error still closes", func(t *testing.T) {
		fs := &fakeStore{}
		boom := errors.New("boom")
		err := WithStore(ctx, openerFor(fs, nil), Memory, func(Store) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"init", "close"}, fs.calls)
	})

	t.Run("close error is joined", func(t *testing.T) {
		closeErr := errors.New("close failed")
		fs := &fakeStore{closeErr: closeErr}
		err := WithStore(ctx, openerFor(fs, nil), Memory, nil)
		assert.ErrorIs(t, err, closeErr)
	})
}

func openerFor(s *fakeStore, err error) Opener {
	return func(context.Context, Location) (Store, error) {
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
