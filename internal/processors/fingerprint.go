package processors

import (
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/frontmatter"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

type fingerprintParams struct {
	Key    string   `param:"key" validate:"required"`
	Fields []string `param:"fields"`
}

func (p *fingerprintParams) Defaults() { p.Key = mdfp.FingerprintField }

// fingerprint stores a content hash of each text item under Key. The hash
// covers the item's content and, canonically serialized, the listed Fields.
func fingerprint(_ *engine.Application, items item.Stream, p *fingerprintParams) (item.Stream, error) {
	return item.Each(items, func(it *item.Item) error {
		content, ok := textContent(it)
		if !ok {
			return nil
		}
		fields := make(map[string]any, len(p.Fields))
		for _, k := range p.Fields {
			if v, ok := it.Get(k); ok {
				fields[k] = v
			}
		}
		serialized, err := frontmatter.SerializeYAML(fields)
		if err != nil {
			return itemError(err, "fingerprint", it)
		}
		it.Set(p.Key, mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(serialized), "\n"), content))
		return nil
	}), nil
}
