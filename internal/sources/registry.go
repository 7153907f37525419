package sources

import (
	"fmt"

	"github.com/paisapro/pricewise/internal/config"
	"github.com/paisapro/pricewise/internal/currency"
	"github.com/paisapro/pricewise/internal/pkg/logger"
)

// Registry holds the configured source adapters. It is built once at
// startup and never mutated; enumeration order is configuration order,
// which makes it the stable tie-break order for equal prices.
type Registry struct {
	order  []string
	byName map[string]Adapter
}

// NewRegistry builds a registry from adapters in the given order
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{
		order:  make([]string, 0, len(adapters)),
		byName: make(map[string]Adapter, len(adapters)),
	}
	for _, a := range adapters {
		if _, dup := r.byName[a.Name()]; dup {
			return nil, fmt.Errorf("duplicate source adapter: %s", a.Name())
		}
		r.order = append(r.order, a.Name())
		r.byName[a.Name()] = a
	}
	if len(r.order) == 0 {
		return nil, fmt.Errorf("registry needs at least one adapter")
	}
	return r, nil
}

// Build constructs the registry from configuration. Unknown source names
// and unsupported currencies are startup failures.
func Build(cfg config.SourcesConfig, conv *currency.Converter, log *logger.Logger) (*Registry, error) {
	adapters := make([]Adapter, 0, len(cfg.Enabled))
	for _, name := range cfg.Enabled {
		var a Adapter
		switch name {
		case "alfatah":
			a = NewAlfatah(cfg.AlfatahURL, cfg.RequestTimeout, log)
		case "daraz":
			a = NewDaraz(cfg.DarazURL, cfg.RequestTimeout, log)
		case "imtiaz":
			a = NewImtiaz(cfg.ImtiazURL, cfg.RequestTimeout, log)
		default:
			return nil, fmt.Errorf("unknown catalog source: %s", name)
		}
		if !conv.Supports(a.Currency()) {
			return nil, fmt.Errorf("source %s quotes in unsupported currency %s", a.Name(), a.Currency())
		}
		adapters = append(adapters, a)
	}
	return NewRegistry(adapters...)
}

// Get returns the adapter registered under name
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Names returns the registered source names in registry order
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Position returns the enumeration position of a source, or -1 if absent
func (r *Registry) Position(name string) int {
	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return -1
}

// Subset returns the adapters for the requested names, in registry order
// regardless of the order requested. An unknown name is an error.
func (r *Registry) Subset(names []string) ([]Adapter, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := r.byName[n]; !ok {
			return nil, fmt.Errorf("unknown catalog source: %s", n)
		}
		want[n] = true
	}
	out := make([]Adapter, 0, len(want))
	for _, n := range r.order {
		if want[n] {
			out = append(out, r.byName[n])
		}
	}
	return out, nil
}

// All returns every registered adapter in registry order
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byName[n])
	}
	return out
}
