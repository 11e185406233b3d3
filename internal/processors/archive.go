package processors

import (
	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

type archiveParams struct {
	Template    string `param:"template" validate:"required"`
	Destination string `param:"save_as" validate:"path"`
	Title       string `param:"title"`
	BaseURL     string `param:"baseurl" fallback:"metadata:#/url" validate:"required"`
}

func (p *archiveParams) Defaults() {
	p.Template = "archive.html"
	p.Destination = "index.html"
}

// archive passes every item on and then emits one index item listing them.
// The index item is emitted for an empty stream too.
func archive(_ *engine.Application, items item.Stream, p *archiveParams) (item.Stream, error) {
	return func(yield func(*item.Item, error) bool) {
		var listed []*item.Item
		for it, err := range item.OrEmpty(items) {
			if err != nil {
				yield(nil, err)
				return
			}
			listed = append(listed, it)
			if !yield(it, nil) {
				return
			}
		}

		fields := map[string]any{
			item.KeyDestination: p.Destination,
			item.KeyBaseURL:     p.BaseURL,
			keyTemplate:         p.Template,
			"items":             listed,
		}
		if p.Title != "" {
			fields[keyTitle] = p.Title
		}
		index, err := item.NewWebSite(fields)
		if err != nil {
			yield(nil, err)
			return
		}
		yield(index, nil)
	}, nil
}
