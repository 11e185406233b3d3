package processors

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

const testBaseURL = "https://example.com/"

func newApp(t testing.TB, meta map[string]any) *engine.Application {
	t.Helper()
	app := engine.New(meta)
	require.NoError(t, RegisterDefaults(app))
	app.AddProcessor("increment", func(_ *engine.Application, items item.Stream, _ []any, _ map[string]any) (item.Stream, error) {
		return item.Each(items, func(it *item.Item) error {
			v, _ := it.Get("value")
			it.Set("value", v.(int)+1)
			return nil
		}), nil
	})
	return app
}

func run(t testing.TB, app *engine.Application, pipe engine.Pipe, items ...*item.Item) []*item.Item {
	t.Helper()
	out, err := item.Collect(app.InvokePipe(pipe, item.Of(items...)))
	require.NoError(t, err)
	return out
}

func runErr(app *engine.Application, pipe engine.Pipe, items ...*item.Item) error {
	_, err := item.Collect(app.InvokePipe(pipe, item.Of(items...)))
	return err
}

func numbered(vals ...int) []*item.Item {
	out := make([]*item.Item, len(vals))
	for i, v := range vals {
		out[i] = item.New(map[string]any{"value": v})
	}
	return out
}

func valuesOf(items []*item.Item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		v, _ := it.Get("value")
		out[i] = v.(int)
	}
	return out
}

func page(t testing.TB, dest string, fields map[string]any) *item.Item {
	t.Helper()
	all := map[string]any{item.KeyDestination: dest, item.KeyBaseURL: testBaseURL}
	for k, v := range fields {
		all[k] = v
	}
	it, err := item.NewWebSite(all)
	require.NoError(t, err)
	return it
}

func get(t testing.TB, it *item.Item, key string) any {
	t.Helper()
	v, err := it.Value(key)
	require.NoError(t, err)
	return v
}
