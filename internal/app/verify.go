package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/maloquacious/skelly/internal/store"
)

// Report is the result of Verify.
type Report struct {
	Location      string            `json:"location" yaml:"location"`
	State         string            `json:"state" yaml:"state"`
	SchemaVersion string            `json:"schemaVersion,omitempty" yaml:"schema_version,omitempty"`
	Size          int64             `json:"size" yaml:"size"`
	Metadata      map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Ready returns true if the schema is initialized at the expected version.
func (r Report) Ready() bool {
	return r.State == store.StateReady.String()
}

// Encode writes the report as "text", "json" or "yaml".
func (r Report) Encode(w io.Writer, format string) error {
	switch format {
	case "", "text":
		fmt.Fprintf(w, "location:       %s\n", r.Location)
		fmt.Fprintf(w, "state:          %s\n", r.State)
		if r.SchemaVersion != "" {
			fmt.Fprintf(w, "schema version: %s\n", r.SchemaVersion)
		}
		fmt.Fprintf(w, "size:           %s\n", humanize.Bytes(uint64(r.Size)))
		keys := make([]string, 0, len(r.Metadata))
		for k := range r.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-14s %s\n", k, r.Metadata[k])
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

// metadataReader is implemented by stores that expose their config table.
type metadataReader interface {
	Metadata(ctx context.Context) (map[string]string, error)
}

// Verify inspects the configured persistent database without creating or
// changing it.
func (a *App) Verify(ctx context.Context) (report Report, err error) {
	loc, err := a.Config.Location()
	if err != nil {
		return Report{}, err
	}
	if loc.IsMemory() {
		return Report{}, errors.New("cannot verify an in-memory database")
	}

	report = Report{Location: loc.String(), State: store.StateMissing.String()}
	exists, err := store.CheckExists(loc)
	if err != nil {
		return Report{}, err
	}
	if !exists {
		return report, nil
	}
	if info, err := os.Stat(string(loc)); err == nil {
		report.Size = info.Size()
	}

	s, err := a.Inspect(ctx, loc)
	if err != nil {
		return Report{}, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	state, err := s.CheckState(ctx)
	if err != nil {
		return Report{}, err
	}
	report.State = state.String()

	if report.SchemaVersion, err = s.SchemaVersion(ctx); err != nil {
		return Report{}, err
	}
	if md, ok := s.(metadataReader); ok {
		if report.Metadata, err = md.Metadata(ctx); err != nil {
			return Report{}, err
		}
	}
	return report, nil
}
