package processors

import (
	"maps"
	"slices"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/frontmatter"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

type frontmatterParams struct {
	Format    string `param:"format" validate:"oneof=yaml toml json"`
	Delimiter string `param:"delimiter"`
	Overwrite bool   `param:"overwrite"`
}

func (p *frontmatterParams) Defaults() {
	p.Format = string(frontmatter.YAML)
	p.Overwrite = true
}

// frontmatterProc moves a front matter block from an item's content into
// the item's keys. Items without text content or without a block pass
// unchanged.
func frontmatterProc(_ *engine.Application, items item.Stream, p *frontmatterParams) (item.Stream, error) {
	format := frontmatter.Format(p.Format)
	delimiter := p.Delimiter
	if delimiter == "" {
		delimiter = format.Delimiter()
	}

	return item.Each(items, func(it *item.Item) error {
		content, ok := textContent(it)
		if !ok {
			return nil
		}
		front, body, had, err := frontmatter.Split([]byte(content), delimiter)
		if err != nil {
			return itemError(err, "split front matter", it)
		}
		if !had {
			return nil
		}
		fields, err := frontmatter.Parse(format, front)
		if err != nil {
			return itemError(err, "parse front matter", it)
		}
		for _, k := range slices.Sorted(maps.Keys(fields)) {
			if p.Overwrite || !it.Has(k) {
				it.Set(k, fields[k])
			}
		}
		it.Set(keyContent, string(body))
		return nil
	}), nil
}
