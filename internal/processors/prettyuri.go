package processors

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

type prettyuriParams struct{}

// prettyuri moves pages to directory indexes: about.html becomes
// about/index.html, so the page is served as /about/.
func prettyuri(_ *engine.Application, items item.Stream, _ *prettyuriParams) (item.Stream, error) {
	return item.Each(items, func(it *item.Item) error {
		if !hasExt(it, ".html", ".htm") {
			return nil
		}
		dest, _ := destination(it)
		base := path.Base(dest)
		if base == "index.html" || base == "index.htm" {
			return nil
		}
		it.Set(item.KeyDestination, path.Join(path.Dir(dest), strings.TrimSuffix(base, path.Ext(base)), "index.html"))
		return nil
	}), nil
}
