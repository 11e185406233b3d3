package jsonref

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type getter map[string]any

func (g getter) JSONLookup(key string) (any, error) {
	v, ok := g[key]
	if !ok {
		return nil, fmt.Errorf("no key %q", key)
	}
	return v, nil
}

func ref(s string) map[string]any { return map[string]any{RefKey: s} }

func TestResolve_RootReference(t *testing.T) {
	got, err := Resolve(ref("metadata:#/x"), map[string]any{"metadata:": map[string]any{"x": 42}}, false)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestResolve_KeepUnknown(t *testing.T) {
	node := ref("other:#/x")
	got, err := Resolve(node, map[string]any{"metadata:": map[string]any{}}, true)
	require.NoError(t, err)
	assert.Equal(t, node, got)

	_, err = Resolve(ref("other:#/x"), map[string]any{}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSource))
	assert.Contains(t, err.Error(), "other:")
}

func TestResolve_NestedInPlace(t *testing.T) {
	list := []any{"keep", ref("metadata:#/b")}
	spec := map[string]any{
		"name": "x",
		"args": map[string]any{"a": ref("metadata:#/a/0"), "list": list},
	}
	sources := map[string]any{"metadata:": getter{"a": []any{"first"}, "b": true}}

	got, err := Resolve(spec, sources, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name": "x",
		"args": map[string]any{"a": "first", "list": []any{"keep", true}},
	}, got)
	assert.Equal(t, true, list[1], "slices are updated in place")
}

func TestResolve_ResolvedValuesAreResolvedAgain(t *testing.T) {
	meta := map[string]any{
		"author": map[string]any{"name": ref("metadata:#/owner")},
		"owner":  "Jane",
	}
	got, err := Resolve(ref("metadata:#/author"), map[string]any{"metadata:": meta}, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Jane"}, got)

	// The source document is left untouched.
	assert.Equal(t, ref("metadata:#/owner"), meta["author"].(map[string]any)["name"])
}

func TestResolve_ReferenceLoop(t *testing.T) {
	meta := map[string]any{"a": ref("metadata:#/a")}
	_, err := Resolve(ref("metadata:#/a"), map[string]any{"metadata:": meta}, false)
	require.ErrorIs(t, err, ErrReferenceLoop)
}

func TestResolve_PointerFailure(t *testing.T) {
	_, err := Resolve(ref("metadata:#/missing"), map[string]any{"metadata:": map[string]any{}}, false)
	require.ErrorIs(t, err, ErrPointer)
}

func TestResolve_StringsAreScalars(t *testing.T) {
	got, err := Resolve("metadata:#/x", map[string]any{"metadata:": map[string]any{"x": 1}}, false)
	require.NoError(t, err)
	assert.Equal(t, "metadata:#/x", got)
}

func TestResolve_SliceOfMaps(t *testing.T) {
	pipe := []map[string]any{
		{"name": "a", "args": ref("metadata:#/args")},
		{"name": "b"},
	}
	got, err := Resolve(pipe, map[string]any{"metadata:": map[string]any{"args": []any{1}}}, false)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"name": "a", "args": []any{1}},
		{"name": "b"},
	}, got)
}

func TestResolve_SliceOfMapsWidens(t *testing.T) {
	pipe := []map[string]any{ref("metadata:#/v"), {"name": "b"}}
	got, err := Resolve(pipe, map[string]any{"metadata:": map[string]any{"v": "scalar"}}, false)
	require.NoError(t, err)
	assert.Equal(t, []any{"scalar", map[string]any{"name": "b"}}, got)
}

func TestLookup(t *testing.T) {
	doc := map[string]any{
		"a/b":   1,
		"m~n":   2,
		"list":  []any{"x", "y"},
		"typed": map[string]int{"k": 3},
		"strs":  []string{"s0"},
		"store": getter{"tz": "UTC", "nested": map[string]any{"b/c": 42}},
	}
	tests := []struct {
		pointer string
		want    any
		wantErr bool
	}{
		{pointer: "", want: doc},
		{pointer: "/a~1b", want: 1},
		{pointer: "/m~0n", want: 2},
		{pointer: "/list/1", want: "y"},
		{pointer: "/typed/k", want: 3},
		{pointer: "/strs/0", want: "s0"},
		{pointer: "/store/tz", want: "UTC"},
		{pointer: "/store/nested/b~1c", want: 42},
		{pointer: "/store/missing", wantErr: true},
		{pointer: "/list/x", wantErr: true},
		{pointer: "/list/5", wantErr: true},
		{pointer: "nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.pointer, func(t *testing.T) {
			got, err := Lookup(doc, tt.pointer)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrPointer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplit(t *testing.T) {
	src, frag := Split("metadata:#/a/b")
	assert.Equal(t, "metadata:", src)
	assert.Equal(t, "/a/b", frag)

	src, frag = Split("metadata:")
	assert.Equal(t, "metadata:", src)
	assert.Empty(t, frag)
}
