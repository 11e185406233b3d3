package processors

import (
	"git.home.luguber.info/inful/pagepipe/internal/engine"
	"git.home.luguber.info/inful/pagepipe/internal/expr"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

type whenParams struct {
	Processor map[string]any `param:"processor" validate:"required"`
	Condition []string       `param:"condition" variadic:"true" validate:"min=1,dive,required"`
}

// when runs a processor on the items every condition holds for. Other items
// bypass it and are re-interleaved so the output keeps upstream order.
func when(app *engine.Application, items item.Stream, p *whenParams) (item.Stream, error) {
	conds, err := expr.CompileAll(p.Condition)
	if err != nil {
		return nil, ferrors.ConfigError("invalid condition").WithCause(err).Build()
	}

	return func(yield func(*item.Item, error) bool) {
		var untouched []*item.Item

		matched := func(yieldMatch func(*item.Item, error) bool) {
			for it, err := range item.OrEmpty(items) {
				if err != nil {
					yieldMatch(nil, err)
					return
				}
				ok, err := expr.All(conds, expr.Data(it, app.Metadata().Map()))
				if err != nil {
					yieldMatch(nil, itemError(err, "evaluate condition", it))
					return
				}
				if !ok {
					untouched = append(untouched, it)
					continue
				}
				if !yieldMatch(it, nil) {
					return
				}
			}
		}

		flush := func() bool {
			pending := untouched
			untouched = nil
			for _, it := range pending {
				if !yield(it, nil) {
					return false
				}
			}
			return true
		}

		for it, err := range app.InvokePipe(engine.Pipe{p.Processor}, matched) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !flush() || !yield(it, nil) {
				return
			}
		}
		flush()
	}, nil
}
