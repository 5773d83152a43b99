package caps

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry is an immutable set of descriptors keyed by model. It keeps its
// own copies and hands out copies, so callers may modify what they get.
type Registry struct {
	byModel map[ModelID]*Descriptor
	models  []ModelID
}

// NewRegistry builds a registry from copies of descs. Duplicate model IDs
// are an error.
func NewRegistry(descs ...*Descriptor) (*Registry, error) {
	r := &Registry{byModel: make(map[ModelID]*Descriptor, len(descs))}
	for _, d := range descs {
		if _, dup := r.byModel[d.Model]; dup {
			return nil, fmt.Errorf("duplicate model %d (%s)", d.Model, d.ModelName)
		}
		r.byModel[d.Model] = d.Clone()
		r.models = append(r.models, d.Model)
	}
	slices.Sort(r.models)
	return r, nil
}

// Lookup returns a copy of the descriptor of a model.
func (r *Registry) Lookup(id ModelID) (*Descriptor, bool) {
	d, ok := r.byModel[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// LookupName finds a model by name, ignoring case and dashes
// ("ICR-8500", "icr8500").
func (r *Registry) LookupName(name string) (*Descriptor, bool) {
	want := normalizeName(name)
	for _, id := range r.models {
		d := r.byModel[id]
		if normalizeName(d.ModelName) == want {
			return d.Clone(), true
		}
	}
	return nil, false
}

// Models returns the registered model IDs in ascending order.
func (r *Registry) Models() []ModelID {
	return slices.Clone(r.models)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := NewRegistry(&icr8500)
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the registry of shipped models.
func Default() *Registry {
	return defaultRegistry()
}
