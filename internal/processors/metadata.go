package processors

import (
	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/item"
	"git.home.luguber.info/inful/pagepipe/internal/logfields"
)

type metadataParams struct {
	Metadata  map[string]any `param:"metadata" validate:"required"`
	Overwrite bool           `param:"overwrite"`
}

func (p *metadataParams) Defaults() { p.Overwrite = true }

// metadataProc writes into the application metadata as soon as the step
// begins, so references in later steps of the same pipe see the values.
func metadataProc(app *engine.Application, items item.Stream, p *metadataParams) (item.Stream, error) {
	app.Metadata().Update(p.Metadata, p.Overwrite)
	app.Logger().Debug("Updated metadata", logfields.Count(len(p.Metadata)))
	return items, nil
}
