package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

const even = `eq (mod .item.value 2) 0`

func TestWhen_PreservesOrder(t *testing.T) {
	app := newApp(t, nil)
	out := run(t, app, engine.Pipe{{
		"name": "when",
		"args": map[string]any{
			"processor": map[string]any{"name": "increment"},
			"condition": []any{even},
		},
	}}, numbered(1, 2, 3, 4)...)
	assert.Equal(t, []int{1, 3, 3, 5}, valuesOf(out))
}

func TestWhen_WrapperSyntax(t *testing.T) {
	app := newApp(t, nil)
	out := run(t, app, engine.Pipe{{
		"name": "increment",
		"when": map[string]any{"condition": even},
	}}, numbered(1, 2, 3, 4)...)
	assert.Equal(t, []int{1, 3, 3, 5}, valuesOf(out))

	out = run(t, app, engine.Pipe{{
		"name": "increment",
		"when": []any{even, `gt .item.value 2`},
	}}, numbered(1, 2, 3, 4)...)
	assert.Equal(t, []int{1, 2, 3, 5}, valuesOf(out), "all conditions must hold")
}

func TestWhen_ConditionSeesMetadata(t *testing.T) {
	app := newApp(t, map[string]any{"threshold": 2})
	out := run(t, app, engine.Pipe{{
		"name": "increment",
		"when": map[string]any{"condition": `ge .item.value .metadata.threshold`},
	}}, numbered(1, 2, 3)...)
	assert.Equal(t, []int{1, 3, 4}, valuesOf(out))
}

func TestWhen_NoMatchStillInvokesProcessor(t *testing.T) {
	app := newApp(t, nil)
	in := []*item.Item{
		page(t, "a.html", map[string]any{"value": 1}),
		page(t, "b.html", map[string]any{"value": 3}),
	}
	out := run(t, app, engine.Pipe{{
		"name": "archive",
		"args": map[string]any{"baseurl": testBaseURL},
		"when": map[string]any{"condition": even},
	}}, in...)

	require.Len(t, out, 3)
	assert.Same(t, in[0], out[0])
	assert.Same(t, in[1], out[1])
	assert.Equal(t, "index.html", get(t, out[2], "destination"))
	assert.Empty(t, get(t, out[2], "items"))
}

func TestWhen_BufferingProcessorKeepsUnmatchedFirst(t *testing.T) {
	app := newApp(t, nil)
	// chain with order_by buffers every matched item before yielding.
	out := run(t, app, engine.Pipe{{
		"name": "chain",
		"args": map[string]any{"order_by": "value", "direction": "desc"},
		"when": map[string]any{"condition": even},
	}}, numbered(2, 1, 4, 3)...)
	assert.Equal(t, []int{1, 3, 4, 2}, valuesOf(out))
}

func TestWhen_Errors(t *testing.T) {
	app := newApp(t, nil)

	err := runErr(app, engine.Pipe{{"name": "increment", "when": map[string]any{"condition": "eq ("}}}, numbered(1)...)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	err = runErr(app, engine.Pipe{{"name": "increment", "when": map[string]any{}}}, numbered(1)...)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	err = runErr(app, engine.Pipe{{"name": "increment", "when": map[string]any{"condition": `mod .item.value 0`}}}, numbered(1)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mod by zero")
}

func TestWhen_OrderProperty(t *testing.T) {
	app := newApp(t, nil)
	rapid.Check(t, func(rt *rapid.T) {
		vals := rapid.SliceOf(rapid.IntRange(-50, 50)).Draw(rt, "values")
		cond := rapid.SampledFrom([]string{even, `gt .item.value 0`, `lt .item.value -10`, `true`, `false`}).Draw(rt, "condition")

		out, err := item.Collect(app.InvokePipe(engine.Pipe{{
			"name": "increment",
			"when": map[string]any{"condition": cond},
		}}, item.Of(numbered(vals...)...)))
		if err != nil {
			rt.Fatal(err)
		}

		got := valuesOf(out)
		if len(got) != len(vals) {
			rt.Fatalf("got %d items, want %d", len(got), len(vals))
		}
		for i, v := range vals {
			want := v
			if matches(cond, v) {
				want = v + 1
			}
			if got[i] != want {
				rt.Fatalf("item %d: got %d, want %d (input %v, condition %q)", i, got[i], want, vals, cond)
			}
		}
	})
}

func matches(cond string, v int) bool {
	switch cond {
	case even:
		return v%2 == 0
	case `gt .item.value 0`:
		return v > 0
	case `lt .item.value -10`:
		return v < -10
	case `true`:
		return true
	default:
		return false
	}
}
