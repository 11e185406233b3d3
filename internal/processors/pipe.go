package processors

import (
	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

type pipeParams struct {
	Pipe []map[string]any `param:"pipe" validate:"required"`
}

// pipe runs an inline pipe over the stream.
func pipe(app *engine.Application, items item.Stream, p *pipeParams) (item.Stream, error) {
	return app.InvokePipe(engine.Pipe(p.Pipe), items), nil
}
