// Package item defines the records flowing through a pipe and the lazy
// streams that carry them.
//
// An Item is a mutable key-value record. Reads consult the explicit store
// first and then the computed properties of the item's variant; writes always
// go to the explicit store.
package item

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// privatePrefix marks names that are never resolved to computed properties.
const privatePrefix = "_"

// ErrKeyNotFound is returned when a key is neither stored nor computed.
var ErrKeyNotFound = errors.New("key not found")

// Properties provides the computed, read-only values of an item variant.
type Properties interface {
	// Names lists the computed property names, sorted.
	Names() []string
	// Compute returns the value of the named property for it.
	Compute(it *Item, name string) (any, bool)
}

// Item is one unit of content flowing through a pipe.
type Item struct {
	keys   []string
	fields map[string]any
	props  Properties
}

// New creates a generic item holding fields. Keys are inserted in sorted
// order so construction from a map is deterministic.
func New(fields map[string]any) *Item {
	return newWithProperties(fields, nil)
}

func newWithProperties(fields map[string]any, props Properties) *Item {
	it := &Item{
		keys:   make([]string, 0, len(fields)),
		fields: make(map[string]any, len(fields)),
		props:  props,
	}
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		it.Set(k, fields[k])
	}
	return it
}

// Get returns the value for key, falling through to computed properties.
func (it *Item) Get(key string) (any, bool) {
	if v, ok := it.fields[key]; ok {
		return v, true
	}
	if it.props == nil || strings.HasPrefix(key, privatePrefix) {
		return nil, false
	}
	return it.props.Compute(it, key)
}

// Value is Get with an error for absent keys. Templates call it directly.
func (it *Item) Value(key string) (any, error) {
	v, ok := it.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return v, nil
}

// JSONLookup resolves a single pointer token, computed properties included.
func (it *Item) JSONLookup(key string) (any, error) {
	return it.Value(key)
}

// GetString returns the value for key when it is a string.
func (it *Item) GetString(key string) (string, bool) {
	v, ok := it.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether key resolves to a stored or computed value.
func (it *Item) Has(key string) bool {
	_, ok := it.Get(key)
	return ok
}

// Set stores value under key. A stored value shadows a computed property of
// the same name without altering how the property is computed.
func (it *Item) Set(key string, value any) {
	if _, exists := it.fields[key]; !exists {
		it.keys = append(it.keys, key)
	}
	it.fields[key] = value
}

// Delete removes key from the explicit store.
func (it *Item) Delete(key string) {
	if _, exists := it.fields[key]; !exists {
		return
	}
	delete(it.fields, key)
	it.keys = slices.DeleteFunc(it.keys, func(k string) bool { return k == key })
}

// Keys returns the explicitly stored keys in insertion order.
func (it *Item) Keys() []string {
	return slices.Clone(it.keys)
}

// AsMap materializes the item: explicit fields merged over computed ones.
func (it *Item) AsMap() map[string]any {
	out := make(map[string]any, len(it.fields)+2)
	if it.props != nil {
		for _, name := range it.props.Names() {
			if v, ok := it.props.Compute(it, name); ok {
				out[name] = v
			}
		}
	}
	maps.Copy(out, it.fields)
	return out
}

// Equal compares the fully materialized views of two items.
func (it *Item) Equal(other *Item) bool {
	if it == nil || other == nil {
		return it == other
	}
	return reflect.DeepEqual(it.AsMap(), other.AsMap())
}

// String lists the stored keys only; values may reference other items.
func (it *Item) String() string {
	return "Item(" + strings.Join(it.keys, ", ") + ")"
}
