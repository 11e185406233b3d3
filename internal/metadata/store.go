// Package metadata provides the application-wide layered key-value store.
//
// The base layer is the mapping supplied at construction and is never
// written to. All writes land in the overlay, so Changes reports exactly what
// processors changed during a run.
package metadata

import (
	"fmt"
	"maps"
	"slices"
)

// Store is a two-layer map: reads check the overlay, then the base.
type Store struct {
	base    map[string]any
	overlay map[string]any
}

// New creates a store over base. The caller's map is not copied or modified.
func New(base map[string]any) *Store {
	if base == nil {
		base = map[string]any{}
	}
	return &Store{base: base, overlay: map[string]any{}}
}

// Get returns the value for key.
func (s *Store) Get(key string) (any, bool) {
	if v, ok := s.overlay[key]; ok {
		return v, true
	}
	v, ok := s.base[key]
	return v, ok
}

// GetString returns the value for key when it is a string.
func (s *Store) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Has reports whether key is set in either layer.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set writes key into the overlay.
func (s *Store) Set(key string, value any) {
	s.overlay[key] = value
}

// Update writes every entry of values into the overlay. Existing keys are
// only replaced when overwrite is true.
func (s *Store) Update(values map[string]any, overwrite bool) {
	for k, v := range values {
		if !overwrite && s.Has(k) {
			continue
		}
		s.overlay[k] = v
	}
}

// Keys returns the union of both layers' keys, sorted.
func (s *Store) Keys() []string {
	merged := maps.Clone(s.base)
	maps.Copy(merged, s.overlay)
	return slices.Sorted(maps.Keys(merged))
}

// Map returns a merged snapshot of both layers.
func (s *Store) Map() map[string]any {
	out := maps.Clone(s.base)
	maps.Copy(out, s.overlay)
	return out
}

// Changes returns a copy of the overlay.
func (s *Store) Changes() map[string]any {
	return maps.Clone(s.overlay)
}

// JSONLookup resolves a single pointer token against both layers.
func (s *Store) JSONLookup(key string) (any, error) {
	v, ok := s.Get(key)
	if !ok {
		return nil, fmt.Errorf("metadata has no key %q", key)
	}
	return v, nil
}
