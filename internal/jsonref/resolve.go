// Package jsonref resolves {"$ref": "<source>#<pointer>"} placeholders
// inside nested maps and slices against a set of named sources.
package jsonref

import (
	"errors"
	"fmt"
	"strings"
)

// RefKey is the map key that marks a reference node.
const RefKey = "$ref"

// maxDepth bounds chains of references that resolve to further references.
const maxDepth = 32

var (
	// ErrUnknownSource is returned for a reference to a source absent from
	// the context while unknown references must not be kept.
	ErrUnknownSource = errors.New("missing reference source")
	// ErrReferenceLoop is returned when references keep resolving to
	// references beyond maxDepth.
	ErrReferenceLoop = errors.New("reference nesting too deep")
)

// Resolve walks value and replaces every reference node with the value the
// pointer selects from sources[source]. Maps and slices are updated in place
// and the (possibly replaced) root is returned. Values obtained through a
// reference are cloned before being resolved in turn, so the referenced
// source is never modified.
//
// A reference to a source absent from sources is left as is when keepUnknown
// is true and fails with ErrUnknownSource otherwise.
func Resolve(value any, sources map[string]any, keepUnknown bool) (any, error) {
	r := resolver{sources: sources, keepUnknown: keepUnknown}
	return r.walk(value, 0)
}

type resolver struct {
	sources     map[string]any
	keepUnknown bool
}

func (r resolver) walk(node any, depth int) (any, error) {
	switch n := node.(type) {
	case map[string]any:
		if ref, ok := n[RefKey]; ok {
			return r.follow(n, ref, depth)
		}
		for k, v := range n {
			resolved, err := r.walk(v, depth)
			if err != nil {
				return nil, err
			}
			n[k] = resolved
		}
		return n, nil
	case []any:
		for i, v := range n {
			resolved, err := r.walk(v, depth)
			if err != nil {
				return nil, err
			}
			n[i] = resolved
		}
		return n, nil
	case []map[string]any:
		for i, v := range n {
			resolved, err := r.walk(v, depth)
			if err != nil {
				return nil, err
			}
			m, ok := resolved.(map[string]any)
			if !ok {
				// The element became something other than a map; widen.
				return r.widen(n, i, resolved, depth)
			}
			n[i] = m
		}
		return n, nil
	default:
		return node, nil
	}
}

func (r resolver) widen(n []map[string]any, at int, resolved any, depth int) (any, error) {
	out := make([]any, len(n))
	for i, v := range n {
		out[i] = v
	}
	out[at] = resolved
	for i := at + 1; i < len(out); i++ {
		v, err := r.walk(out[i], depth)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r resolver) follow(node map[string]any, ref any, depth int) (any, error) {
	if depth >= maxDepth {
		return nil, fmt.Errorf("%w: %v", ErrReferenceLoop, ref)
	}
	s, ok := ref.(string)
	if !ok {
		return nil, fmt.Errorf("%s must be a string, got %T", RefKey, ref)
	}
	source, fragment := Split(s)
	doc, ok := r.sources[source]
	if !ok {
		if r.keepUnknown {
			return node, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	target, err := Lookup(doc, fragment)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", s, err)
	}
	return r.walk(Clone(target), depth+1)
}

// Split separates a reference into its source and pointer fragment.
func Split(ref string) (source, fragment string) {
	source, fragment, _ = strings.Cut(ref, "#")
	return source, fragment
}

// Clone deep-copies maps and slices; other values are shared.
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Clone(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, e := range v {
			out[i], _ = Clone(e).(map[string]any)
		}
		return out
	default:
		return value
	}
}
