package engine

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
	"git.home.luguber.info/inful/pagepipe/internal/metrics"
)

func numbers(vals ...int) item.Stream {
	items := make([]*item.Item, len(vals))
	for i, v := range vals {
		items[i] = item.New(map[string]any{"value": v})
	}
	return item.Of(items...)
}

func values(t *testing.T, s item.Stream) []int {
	t.Helper()
	items, err := item.Collect(s)
	require.NoError(t, err)
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.AsMap()["value"].(int)
	}
	return out
}

func passthrough(_ *Application, items item.Stream, _ []any, _ map[string]any) (item.Stream, error) {
	return items, nil
}

func double(_ *Application, items item.Stream, _ []any, _ map[string]any) (item.Stream, error) {
	return item.Each(items, func(it *item.Item) error {
		v, _ := it.Get("value")
		it.Set("value", v.(int)*2)
		return nil
	}), nil
}

func TestInvoke_ChainsProcessors(t *testing.T) {
	app := New(nil)
	app.AddProcessor("a", passthrough)
	app.AddProcessor("b", double)
	app.AddPipe("p", Pipe{{"name": "a"}, {"name": "b"}})

	assert.Equal(t, []int{2, 4, 6}, values(t, app.Invoke("p", numbers(1, 2, 3))))
}

func TestInvoke_NilInputIsEmpty(t *testing.T) {
	app := New(nil)
	app.AddProcessor("a", passthrough)
	app.AddPipe("p", Pipe{{"name": "a"}})

	items, err := item.Collect(app.Invoke("p", nil))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInvoke_IsLazy(t *testing.T) {
	app := New(nil)
	called := false
	app.AddProcessor("a", func(_ *Application, items item.Stream, _ []any, _ map[string]any) (item.Stream, error) {
		called = true
		return items, nil
	})
	app.AddPipe("p", Pipe{{"name": "a"}})

	s := app.Invoke("p", numbers(1))
	assert.False(t, called)
	assert.Equal(t, []int{1}, values(t, s))
	assert.True(t, called)

	// Unknown pipes fail on iteration, not on call.
	s = app.Invoke("missing", nil)
	_, err := item.Collect(s)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Contains(t, err.Error(), "no such pipe: missing")
}

func TestInvoke_UnknownProcessor(t *testing.T) {
	app := New(nil)
	_, err := item.Collect(app.InvokePipe(Pipe{{"name": "nope"}}, numbers(1)))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Contains(t, err.Error(), "no such processor: nope")
}

func TestInvoke_ArgumentsReachProcessor(t *testing.T) {
	app := New(nil)
	var gotArgs []any
	var gotKwargs map[string]any
	app.AddProcessor("a", func(_ *Application, items item.Stream, args []any, kwargs map[string]any) (item.Stream, error) {
		gotArgs, gotKwargs = args, kwargs
		return items, nil
	})

	_, err := item.Collect(app.InvokePipe(Pipe{{"name": "a", "args": []any{1, "two"}}}, nil))
	require.NoError(t, err)
	assert.Equal(t, []any{1, "two"}, gotArgs)
	assert.Nil(t, gotKwargs)

	_, err = item.Collect(app.InvokePipe(Pipe{{"name": "a", "args": map[string]any{"k": true}}}, nil))
	require.NoError(t, err)
	assert.Nil(t, gotArgs)
	assert.Equal(t, map[string]any{"k": true}, gotKwargs)
}

func TestInvoke_ReferencesSeeEarlierSteps(t *testing.T) {
	app := New(map[string]any{"x": 1})
	app.AddProcessor("set", func(app *Application, items item.Stream, _ []any, kwargs map[string]any) (item.Stream, error) {
		app.Metadata().Set("x", kwargs["x"])
		return items, nil
	})
	var seen []any
	app.AddProcessor("see", func(_ *Application, items item.Stream, _ []any, kwargs map[string]any) (item.Stream, error) {
		seen = append(seen, kwargs["x"])
		return items, nil
	})

	pipe := Pipe{
		{"name": "see", "args": map[string]any{"x": map[string]any{"$ref": "metadata:#/x"}}},
		{"name": "set", "args": map[string]any{"x": 42}},
		{"name": "see", "args": map[string]any{"x": map[string]any{"$ref": "metadata:#/x"}}},
	}
	app.AddPipe("p", pipe)

	_, err := item.Collect(app.Invoke("p", nil))
	require.NoError(t, err)
	assert.Equal(t, []any{1, 42}, seen)

	// The registered spec keeps its references for the next invocation.
	assert.Equal(t, map[string]any{"$ref": "metadata:#/x"}, pipe[0]["args"].(map[string]any)["x"])
	// The base layer passed at construction is untouched.
	assert.Equal(t, map[string]any{"x": 42}, app.Metadata().Changes())
}

func TestInvoke_LogsMetadataChanges(t *testing.T) {
	var logs bytes.Buffer
	app := New(map[string]any{"title": "Site"},
		WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	app.AddProcessor("set", func(app *Application, items item.Stream, _ []any, _ map[string]any) (item.Stream, error) {
		app.Metadata().Set("title", "Changed")
		return items, nil
	})
	app.AddPipe("p", Pipe{{"name": "set"}})

	_, err := item.Collect(app.Invoke("p", nil))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), `msg="Pipe finished"`)
	assert.Contains(t, logs.String(), "metadata_changes=map[title:Changed]")
}

func TestInvoke_UnknownReferenceSourceIsKept(t *testing.T) {
	app := New(nil)
	var got any
	app.AddProcessor("a", func(_ *Application, items item.Stream, _ []any, kwargs map[string]any) (item.Stream, error) {
		got = kwargs["v"]
		return items, nil
	})
	ref := map[string]any{"$ref": "item:#/title"}
	_, err := item.Collect(app.InvokePipe(Pipe{{"name": "a", "args": map[string]any{"v": ref}}}, nil))
	require.NoError(t, err)
	assert.Equal(t, ref, got)
}

func TestInvoke_BadPointerIsReferenceError(t *testing.T) {
	app := New(nil)
	app.AddProcessor("a", passthrough)
	_, err := item.Collect(app.InvokePipe(Pipe{{"name": "a", "args": map[string]any{"v": map[string]any{"$ref": "metadata:#/nope"}}}}, nil))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryReference))
}

func TestInvoke_ErrorsAreAttributedOnce(t *testing.T) {
	rec := &fakeRecorder{}
	app := New(nil, WithRecorder(rec))
	boom := errors.New("boom")
	app.AddProcessor("fail", func(_ *Application, items item.Stream, _ []any, _ map[string]any) (item.Stream, error) {
		return item.Each(items, func(*item.Item) error { return boom }), nil
	})
	app.AddProcessor("b", double)
	app.AddPipe("p", Pipe{{"name": "fail"}, {"name": "b"}})

	_, err := item.Collect(app.Invoke("p", numbers(1, 2)))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "fail", se.Processor)
	assert.True(t, strings.HasPrefix(err.Error(), "fail: "))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryProcessor))

	assert.Equal(t, map[string]int{"fail": 1}, rec.failures)
	assert.Equal(t, map[string]int{"fail": 1, "b": 1}, rec.invocations)
	assert.Equal(t, []metrics.ResultLabel{metrics.ResultFailed}, rec.results)
}

func TestInvoke_SetupErrorStopsPipe(t *testing.T) {
	app := New(nil)
	app.AddProcessor("bad", func(*Application, item.Stream, []any, map[string]any) (item.Stream, error) {
		return nil, ferrors.ConfigError("invalid direction").Build()
	})
	_, err := item.Collect(app.InvokePipe(Pipe{{"name": "bad"}}, numbers(1)))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Equal(t, "bad: [config] invalid direction", err.Error())
}

func TestInvoke_WrapperReceivesWrappedSpec(t *testing.T) {
	app := New(nil)
	app.AddProcessor("b", double)
	require.NoError(t, app.AddProcessorWrapper("twice", func(app *Application, items item.Stream, args []any, kwargs map[string]any) (item.Stream, error) {
		spec := args[0].(map[string]any)
		assert.Equal(t, map[string]any{"times": 2}, kwargs)
		return app.InvokePipe(Pipe{spec, spec}, items), nil
	}))

	got := values(t, app.InvokePipe(Pipe{{"name": "b", "twice": map[string]any{"times": 2}}}, numbers(1, 2)))
	assert.Equal(t, []int{4, 8}, got)
}

func TestRegistry(t *testing.T) {
	var logs bytes.Buffer
	app := New(nil, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	app.AddProcessor("a", passthrough)
	app.AddProcessor("a", double)
	assert.Contains(t, logs.String(), "processor=a")
	assert.Equal(t, []int{2}, values(t, app.InvokePipe(Pipe{{"name": "a"}}, numbers(1))))

	logs.Reset()
	app.AddPipe("p", Pipe{{"name": "a"}})
	app.AddPipe("p", Pipe{})
	assert.Contains(t, logs.String(), "pipe=p")
	p, ok := app.Pipe("p")
	require.True(t, ok)
	assert.Empty(t, p)

	for _, reserved := range []string{"name", "args"} {
		err := app.AddProcessorWrapper(reserved, passthrough)
		require.Error(t, err)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	}
	require.NoError(t, app.AddProcessorWrapper("w", passthrough))
	assert.True(t, app.IsWrapper("w"))
	assert.Equal(t, []string{"a", "w"}, app.Processors())
	assert.Equal(t, []string{"p"}, app.Pipes())

	// A plain re-registration drops the wrapper mark.
	app.AddProcessor("w", passthrough)
	assert.False(t, app.IsWrapper("w"))
}

type fakeRecorder struct {
	mu          sync.Mutex
	invocations map[string]int
	items       map[string]int
	failures    map[string]int
	results     []metrics.ResultLabel
}

func (f *fakeRecorder) inc(m *map[string]int, k string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if *m == nil {
		*m = map[string]int{}
	}
	(*m)[k]++
}

func (f *fakeRecorder) IncStepInvocation(p string) { f.inc(&f.invocations, p) }
func (f *fakeRecorder) IncItemEmitted(p string)    { f.inc(&f.items, p) }
func (f *fakeRecorder) IncStepFailure(p string)    { f.inc(&f.failures, p) }
func (f *fakeRecorder) ObservePipeDuration(_ string, _ time.Duration, r metrics.ResultLabel) {
	f.results = append(f.results, r)
}
