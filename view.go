package store

import (
	"sort"

	"github.com/goliatone/go-store/internal/snapshot"
)

// View is a read-only lookup over one or more state layers, ordered from
// strongest to weakest. Scalar values are read live; map and slice values
// are returned as copies so nested module state cannot be changed through a
// View.
type View struct {
	layers []State
}

// NewView builds a View over layers ordered strongest first. Nil layers are
// skipped.
func NewView(layers ...State) View {
	kept := make([]State, 0, len(layers))
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		kept = append(kept, layer)
	}
	return View{layers: kept}
}

// Get returns the value of key from the strongest layer defining it.
func (v View) Get(key string) (any, bool) {
	for _, layer := range v.layers {
		if value, ok := layer[key]; ok {
			return detach(value), true
		}
	}
	return nil, false
}

// Has reports whether any layer defines key.
func (v View) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Keys returns the union of keys across layers, sorted.
func (v View) Keys() []string {
	seen := map[string]struct{}{}
	for _, layer := range v.layers {
		for key := range layer {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of distinct keys.
func (v View) Len() int {
	return len(v.Keys())
}

// Snapshot returns a detached copy of the merged layers. Nested maps present
// in several layers are merged key by key, stronger layers winning.
func (v View) Snapshot() State {
	if len(v.layers) == 0 {
		return State{}
	}
	merged := snapshot.Flatten(v.layers...)
	if merged == nil {
		return State{}
	}
	return merged
}

func detach(value any) any {
	switch value.(type) {
	case State, map[string]any, []any:
		return snapshot.Clone(value)
	default:
		return value
	}
}
