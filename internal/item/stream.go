package item

import "iter"

// Stream is a lazy, single-pass sequence of items. A non-nil error is
// yielded as (nil, err) and terminates the stream.
type Stream = iter.Seq2[*Item, error]

// Of returns a stream over the given items.
func Of(items ...*Item) Stream {
	return func(yield func(*Item, error) bool) {
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
	}
}

// Empty returns a stream that yields nothing.
func Empty() Stream {
	return func(func(*Item, error) bool) {}
}

// Fail returns a stream that yields err once.
func Fail(err error) Stream {
	return func(yield func(*Item, error) bool) {
		yield(nil, err)
	}
}

// OrEmpty normalizes a nil stream to an empty one.
func OrEmpty(s Stream) Stream {
	if s == nil {
		return Empty()
	}
	return s
}

// Collect drains s. It stops at and returns the first error.
func Collect(s Stream) ([]*Item, error) {
	var out []*Item
	for it, err := range OrEmpty(s) {
		if err != nil {
			return out, err
		}
		out = append(out, it)
	}
	return out, nil
}

// Each calls fn on every item of s before passing it on. An error from fn
// ends the stream.
func Each(s Stream, fn func(*Item) error) Stream {
	return func(yield func(*Item, error) bool) {
		for it, err := range OrEmpty(s) {
			if err != nil {
				yield(nil, err)
				return
			}
			if err := fn(it); err != nil {
				yield(nil, err)
				return
			}
			if !yield(it, nil) {
				return
			}
		}
	}
}

// Concat yields every stream in turn.
func Concat(streams ...Stream) Stream {
	return func(yield func(*Item, error) bool) {
		for _, s := range streams {
			for it, err := range OrEmpty(s) {
				if !yield(it, err) || err != nil {
					return
				}
			}
		}
	}
}
