// Package source produces raw registry records for the radar pipeline.
package source

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/radar-cli/internal/model"
)

// Source yields a batch of raw company records.
type Source interface {
	// Name returns the identifier recorded on runs (e.g., "mock", "cnpja").
	Name() string

	// Fetch returns the records currently available from the provider.
	Fetch(ctx context.Context) ([]model.RawCompany, error)
}

// DetailLookup returns the full record for one tax id, or nil when the
// provider does not know it.
type DetailLookup interface {
	Lookup(ctx context.Context, taxID string) (*model.RawCompany, error)
}

// Registry maps source names to implementations.
type Registry struct {
	sources map[string]Source
}

// NewRegistry creates a registry holding the given sources.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[string]Source, len(sources))}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register adds a source, replacing any source with the same name.
func (r *Registry) Register(s Source) {
	r.sources[s.Name()] = s
}

// Get returns the named source.
func (r *Registry) Get(name string) (Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, eris.Errorf("source: unknown source %q (valid: %v)", name, r.Names())
	}
	return s, nil
}

// Names returns registered source names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for n := range r.sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
