package processors

import (
	"slices"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

const (
	keyPrev = "prev"
	keyNext = "next"
)

type chainParams struct {
	OrderBy   string `param:"order_by"`
	Direction string `param:"direction" validate:"omitempty,oneof=asc desc"`
}

// chain optionally sorts the stream by one key and links adjacent items
// through "prev" and "next".
func chain(_ *engine.Application, items item.Stream, p *chainParams) (item.Stream, error) {
	if p.Direction != "" && p.OrderBy == "" {
		return nil, invalidArgument("direction " + p.Direction + " given without order_by")
	}
	if p.OrderBy == "" {
		return link(items), nil
	}
	return func(yield func(*item.Item, error) bool) {
		sorted, err := sortBy(items, p.OrderBy, p.Direction == "desc")
		if err != nil {
			yield(nil, err)
			return
		}
		for it, err := range link(item.Of(sorted...)) {
			if !yield(it, err) {
				return
			}
		}
	}, nil
}

type sortEntry struct {
	it  *item.Item
	key any
}

func sortBy(items item.Stream, key string, desc bool) ([]*item.Item, error) {
	all, err := item.Collect(items)
	if err != nil {
		return nil, err
	}
	entries := make([]sortEntry, len(all))
	for i, it := range all {
		v, err := it.Value(key)
		if err != nil {
			return nil, itemError(err, "order_by", it)
		}
		entries[i] = sortEntry{it: it, key: v}
	}

	var failed *compareFailure
	slices.SortStableFunc(entries, func(a, b sortEntry) int {
		c, err := item.Compare(a.key, b.key)
		if err != nil {
			if failed == nil {
				failed = &compareFailure{a: a.it, b: b.it, err: err}
			}
			return 0
		}
		if desc {
			return -c
		}
		return c
	})
	if failed != nil {
		return nil, failed.classify(key)
	}

	for i, e := range entries {
		all[i] = e.it
	}
	return all, nil
}

// compareFailure is the first pair of items whose keys could not be ordered.
type compareFailure struct {
	a, b *item.Item
	err  error
}

func (f *compareFailure) classify(key string) error {
	b := ferrors.ProcessorError("order_by " + key).WithCause(f.err)
	if dest, ok := destination(f.a); ok {
		b = b.WithContext("destination", dest)
	}
	if dest, ok := destination(f.b); ok {
		b = b.WithContext("other_destination", dest)
	}
	return b.Build()
}

// link holds one item back so it can be given a "next" before it is yielded.
func link(items item.Stream) item.Stream {
	return func(yield func(*item.Item, error) bool) {
		var prev *item.Item
		for it, err := range item.OrEmpty(items) {
			if err != nil {
				yield(nil, err)
				return
			}
			if prev == nil {
				it.Delete(keyPrev)
			} else {
				it.Set(keyPrev, prev)
				prev.Set(keyNext, it)
				if !yield(prev, nil) {
					return
				}
			}
			prev = it
		}
		if prev != nil {
			prev.Delete(keyNext)
			yield(prev, nil)
		}
	}
}
