package app

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/require"

	"github.com/maloquacious/skelly/internal/harness"
	"github.com/maloquacious/skelly/internal/store"
)

// Case is a named self-test.
type Case struct {
	Name string
	Body func(t *harness.T)
}

// SelfTest runs the built-in cases followed by extra, prints a progress line
// per case and the summary, and returns the counters.
// The store cases only run when the store is enabled, and always against a
// volatile store.
func (a *App) SelfTest(ctx context.Context, extra ...Case) harness.Summary {
	fmt.Fprintf(a.Out, "\n%s Tests\n\n", Name)

	r := harness.New(a.Out)
	for _, c := range append(a.cases(ctx), extra...) {
		res := r.Run(c.Name, c.Body)
		if res.Failure != nil {
			a.Log.Debug("case %s failed: %s", c.Name, res.Failure.Detail)
		}
	}
	return r.Report()
}

func (a *App) cases(ctx context.Context) []Case {
	cases := []Case{
		{Name: "test_basic", Body: func(t *harness.T) {
			t.Assert(1+1 == 2, "1 + 1 == 2")
		}},
	}
	if !a.Config.Store.Enabled {
		return cases
	}
	return append(cases,
		Case{Name: "test_schema_init", Body: func(t *harness.T) {
			s, err := a.Open(ctx, store.Memory)
			t.NoError(err)
			defer closeOnFailure(t, s)
			t.NoError(s.InitSchema(ctx))
			t.NoError(s.InitSchema(ctx))
			t.NoError(s.Close())
		}},
		Case{Name: "test_schema_state", Body: func(t *harness.T) {
			s, err := a.Open(ctx, store.Memory)
			require.NoError(t, err)
			defer closeOnFailure(t, s)

			state, err := s.CheckState(ctx)
			require.NoError(t, err)
			require.Equal(t, store.StateUninitialized, state)

			require.NoError(t, s.InitSchema(ctx))
			state, err = s.CheckState(ctx)
			require.NoError(t, err)
			require.Equal(t, store.StateReady, state)
			require.NoError(t, s.Close())
		}},
		Case{Name: "test_close_twice", Body: func(t *harness.T) {
			s, err := a.Open(ctx, store.Memory)
			t.NoError(err)
			t.NoError(s.Close())
			harness.Equal(t, store.StatusOf(s.Close()), store.StatusMisuse)
		}},
	)
}

// closeOnFailure releases a store left open by a case that stopped early.
func closeOnFailure(t *harness.T, s store.Store) {
	if t.Failed() {
		_ = s.Close()
	}
}
