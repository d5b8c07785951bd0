package sources

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mr-shirmofakhami/weather-bitcoin-api/pkg/config"
)

var (
	mu         sync.RWMutex
	strategies = make(map[string]Strategy)
)

// Register adds a source strategy to the table, keyed by its default
// descriptor's name. Called from init funcs of the per-source files.
func Register(s Strategy) {
	mu.Lock()
	defer mu.Unlock()
	strategies[s.DefaultDescriptor().Name] = s
}

func lookup(name string) (Strategy, bool) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := strategies[name]
	return s, ok
}

type entry struct {
	desc  Descriptor
	strat Strategy
}

// Registry is the immutable mapping from source identifier to its endpoint
// descriptor and strategy. Built once at startup; read-only thereafter.
type Registry struct {
	order   []string
	entries map[string]entry
}

// NewRegistry builds a registry from configuration, merging overrides over
// each strategy's built-in descriptor. Iteration order follows the
// configuration order.
func NewRegistry(cfgs []config.SourceConfig) (*Registry, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("at least one source must be configured")
	}

	r := &Registry{entries: make(map[string]entry, len(cfgs))}
	for _, cfg := range cfgs {
		strat, ok := lookup(cfg.Name)
		if !ok {
			return nil, fmt.Errorf("unknown source: %s", cfg.Name)
		}

		desc := strat.DefaultDescriptor()
		if cfg.URL != "" {
			desc.URL = cfg.URL
		}
		if cfg.APIKey != "" {
			desc.APIKey = cfg.APIKey
		}
		if cfg.Timeout.ToDuration() != 0 {
			desc.Timeout = cfg.Timeout.ToDuration()
		}
		for k, v := range cfg.Params {
			if desc.Params == nil {
				desc.Params = make(map[string]string)
			}
			desc.Params[k] = v
		}
		for k, v := range cfg.Headers {
			if desc.Headers == nil {
				desc.Headers = make(map[string]string)
			}
			desc.Headers[k] = v
		}

		if _, dup := r.entries[cfg.Name]; dup {
			return nil, fmt.Errorf("duplicate source: %s", cfg.Name)
		}
		r.order = append(r.order, cfg.Name)
		r.entries[cfg.Name] = entry{desc: desc, strat: strat}
	}

	return r, nil
}

// Resolve returns the descriptor and strategy for a source identifier. An
// unknown identifier yields an invalid_source error listing the known ones.
func (r *Registry) Resolve(name string) (Descriptor, Strategy, *FetchError) {
	e, ok := r.entries[name]
	if !ok {
		return Descriptor{}, nil, &FetchError{
			Source: name,
			Kind:   KindInvalidSource,
			Message: fmt.Sprintf("invalid source %q, available sources: %s",
				name, strings.Join(r.order, ", ")),
		}
	}
	return e.desc, e.strat, nil
}

// List returns all registered identifiers in configuration order.
func (r *Registry) List() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	return len(r.order)
}
